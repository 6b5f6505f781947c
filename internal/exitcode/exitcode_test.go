package exitcode

import "testing"

func TestName(t *testing.T) {
	tests := map[int]string{
		Success:      "success",
		UserError:    "user_error",
		AuthError:    "auth_error",
		BackendError: "backend_error",
		42:           "unknown",
	}
	for code, want := range tests {
		if got := Name(code); got != want {
			t.Errorf("Name(%d) = %q, want %q", code, got, want)
		}
	}
}
