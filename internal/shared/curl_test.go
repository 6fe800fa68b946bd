package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantToken   string
		wantCookies map[string]string
		wantURL     string
		wantErr     bool
	}{
		{
			name:      "bearer header with single quotes",
			curlCmd:   `curl 'https://api.example.com/file/script/' -H 'Authorization: Bearer token123'`,
			wantToken: "token123",
			wantURL:   "https://api.example.com/file/script/",
		},
		{
			name:      "bearer header with double quotes",
			curlCmd:   `curl -H "Authorization: Bearer token123" https://api.example.com`,
			wantToken: "token123",
			wantURL:   "https://api.example.com",
		},
		{
			name:        "cookie in -b flag",
			curlCmd:     `curl 'https://api.example.com' -b 'refresh_token=abc123; csrftoken=xyz'`,
			wantCookies: map[string]string{"refresh_token": "abc123", "csrftoken": "xyz"},
			wantURL:     "https://api.example.com",
		},
		{
			name:        "cookie in header",
			curlCmd:     `curl 'https://api.example.com' -H 'Cookie: refresh_token=abc123'`,
			wantCookies: map[string]string{"refresh_token": "abc123"},
			wantURL:     "https://api.example.com",
		},
		{
			name:        "-b wins over cookie header",
			curlCmd:     `curl 'https://api.example.com' -H 'Cookie: refresh_token=old' -b 'refresh_token=new'`,
			wantCookies: map[string]string{"refresh_token": "new"},
			wantURL:     "https://api.example.com",
		},
		{
			name: "multiline with backslashes",
			curlCmd: `curl 'https://api.example.com/audio/tts/' \
  -H 'accept: application/json' \
  -H 'authorization: Bearer tok' \
  --cookie 'refresh_token=r1'`,
			wantToken:   "tok",
			wantCookies: map[string]string{"refresh_token": "r1"},
			wantURL:     "https://api.example.com/audio/tts/",
		},
		{
			name:    "no credentials",
			curlCmd: `curl -H 'Accept: application/json' https://api.example.com`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCurlCommand([]byte(tc.curlCmd))
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got.AccessToken != tc.wantToken {
				t.Errorf("AccessToken = %q, want %q", got.AccessToken, tc.wantToken)
			}
			if got.URL != tc.wantURL {
				t.Errorf("URL = %q, want %q", got.URL, tc.wantURL)
			}
			if len(got.Cookies) != len(tc.wantCookies) {
				t.Fatalf("got %d cookies, want %d", len(got.Cookies), len(tc.wantCookies))
			}
			for name, value := range tc.wantCookies {
				c := got.Cookie(name)
				if c == nil {
					t.Errorf("cookie %q missing", name)
					continue
				}
				if c.Value != value {
					t.Errorf("cookie %q = %q, want %q", name, c.Value, value)
				}
			}
		})
	}
}

func TestParseCurlFile(t *testing.T) {
	t.Run("reads command from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "request.sh")
		content := "curl 'https://api.example.com' \\\n  -H 'Authorization: Bearer filetoken'\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write curl file: %v", err)
		}

		got, err := ParseCurlFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.AccessToken != "filetoken" {
			t.Errorf("AccessToken = %q, want filetoken", got.AccessToken)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := ParseCurlFile(filepath.Join(t.TempDir(), "nope.sh")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
