package hostname

import (
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want string
	}{
		{"WWW.Example.COM", "example.com"},
		{"  login.example.com ", "login.example.com"},
		{"example.com.", "example.com"},
		{"", ""},
		{"bücher.example", "xn--bcher-kva.example"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFromURL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		url     string
		want    string
		wantErr error
	}{
		{"https", "https://www.Google.com/search?q=1", "google.com", nil},
		{"port", "http://evil.test:8080/login", "evil.test", nil},
		{"about", "about:blank", "", ErrInternalScheme},
		{"chrome", "chrome://settings", "", ErrInternalScheme},
		{"extension", "moz-extension://abc/popup.html", "", ErrInternalScheme},
		{"file", "file:///etc/passwd", "", ErrInternalScheme},
		{"no host", "/relative/path", "", ErrMalformedURL},
		{"bad escape", "http://%zz", "", ErrMalformedURL},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := FromURL(tc.url)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsSameDomain(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		a, b string
		want bool
	}{
		{"mail.google.com", "accounts.google.com", true},
		{"google.com", "www.google.com", true},
		{"amazon.co.uk", "smile.amazon.co.uk", true},
		{"amazon.co.uk", "evil.co.uk", false},
		{"shop.example.com.br", "example.com.br", true},
		{"google.com", "google-login.com", false},
		{"", "google.com", false},
		{"localhost", "localhost", true},
	}

	for _, tc := range testCases {
		t.Run(tc.a+"|"+tc.b, func(t *testing.T) {
			t.Parallel()
			if got := IsSameDomain(tc.a, tc.b); got != tc.want {
				t.Errorf("IsSameDomain(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		host, stored string
		want         bool
	}{
		{"google.com", "google.com", true},
		{"mail.google.com", "google.com", true},
		{"notgoogle.com", "google.com", false},
		{"google.com.evil.test", "google.com", false},
		{"www.github.com", "github.com", true},
		{"", "github.com", false},
	}

	for _, tc := range testCases {
		t.Run(tc.host, func(t *testing.T) {
			t.Parallel()
			if got := Matches(tc.host, tc.stored); got != tc.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tc.host, tc.stored, got, tc.want)
			}
		})
	}

	if !MatchesAny("docs.github.com", []string{"gitlab.com", "github.com"}) {
		t.Error("MatchesAny should match github.com")
	}
}
