package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
)

// session is the on-disk form of the cookies held for the API host.
type session struct {
	URL     string        `json:"url"`
	Cookies []savedCookie `json:"cookies"`
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LoadSession returns a cookie jar seeded from the session file at path.
// A missing file yields an empty jar.
func LoadSession(path string, base *url.URL) (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return jar, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var s session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid session file: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	jar.SetCookies(base, cookies)
	return jar, nil
}

// SaveSession writes the cookies jar holds for base to path with mode 0600.
// It reports false when the jar holds no cookie for base.
func SaveSession(path string, jar http.CookieJar, base *url.URL) (bool, error) {
	cookies := jar.Cookies(base)
	if len(cookies) == 0 {
		return false, nil
	}

	s := session{URL: base.String()}
	for _, c := range cookies {
		s.Cookies = append(s.Cookies, savedCookie{Name: c.Name, Value: c.Value})
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return false, fmt.Errorf("failed to save session: %w", err)
	}
	return true, nil
}
