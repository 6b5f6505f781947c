package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// UpdateEnv names the environment variable that rewrites golden files
// instead of comparing against them.
const UpdateEnv = "UPDATE_GOLDEN"

// GoldenString compares got with testdata/<name>.golden. On mismatch it
// reports the first line that differs along with both full texts.
func GoldenString(t *testing.T, name string, got string) {
	t.Helper()

	path := filepath.Join("testdata", name+".golden")
	if os.Getenv(UpdateEnv) != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create testdata: %v", err)
		}
		if err := os.WriteFile(path, []byte(got), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s (set %s=1 to create it): %v\nGot:\n%s", path, UpdateEnv, err, got)
	}
	want := string(data)
	if got == want {
		return
	}

	line, w, g := firstDiff(want, got)
	t.Errorf("%s: line %d differs\n  want: %q\n  got:  %q\nWant:\n%s\nGot:\n%s", name, line, w, g, want, got)
}

// firstDiff returns the 1-based number of the first differing line and the
// two versions of it.
func firstDiff(want, got string) (int, string, string) {
	wl := strings.Split(want, "\n")
	gl := strings.Split(got, "\n")
	for i := 0; i < len(wl) || i < len(gl); i++ {
		var w, g string
		if i < len(wl) {
			w = wl[i]
		}
		if i < len(gl) {
			g = gl[i]
		}
		if w != g || i >= len(wl) || i >= len(gl) {
			return i + 1, w, g
		}
	}
	return 0, "", ""
}
