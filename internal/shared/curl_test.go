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
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:        "single header with single quotes",
			curlCmd:     `curl -H 'Authorization: Token abc123' https://api.example.com`,
			wantHeaders: map[string]string{"authorization": "Token abc123"},
		},
		{
			name:        "single header with double quotes",
			curlCmd:     `curl -H "Authorization: Token abc123" https://api.example.com`,
			wantHeaders: map[string]string{"authorization": "Token abc123"},
		},
		{
			name:    "multiple headers",
			curlCmd: `curl -H 'Content-Type: application/json' -H 'Authorization: Token t' https://api.example.com`,
			wantHeaders: map[string]string{
				"content-type":  "application/json",
				"authorization": "Token t",
			},
		},
		{
			name:        "cookie in -b flag",
			curlCmd:     `curl -b 'session=abc123' https://api.example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "session=abc123",
		},
		{
			name:        "cookie header is excluded from regular headers",
			curlCmd:     `curl -H 'Cookie: session=abc123' -H 'Authorization: Token t' https://api.example.com`,
			wantHeaders: map[string]string{"authorization": "Token t"},
			wantCookie:  "session=abc123",
		},
		{
			name:        "-b cookie takes precedence over -H cookie",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://api.example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
		},
		{
			name: "multiline curl with backslashes",
			curlCmd: `curl 'http://localhost:8000/api/songs/1/download' \
  -X POST \
  -H 'accept: */*' \
  -H 'authorization: Token deadbeef'`,
			wantHeaders: map[string]string{
				"accept":        "*/*",
				"authorization": "Token deadbeef",
			},
		},
		{
			name:    "no headers or cookies",
			curlCmd: `curl https://api.example.com`,
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
			result, err := ParseCurlCommand(tc.curlCmd)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}

			if len(result.Headers) != len(tc.wantHeaders) {
				t.Errorf("headers count = %d, want %d", len(result.Headers), len(tc.wantHeaders))
			}
			for key, want := range tc.wantHeaders {
				if got := result.Headers[key]; got != want {
					t.Errorf("header[%s] = %q, want %q", key, got, want)
				}
			}
			if result.Cookie != tc.wantCookie {
				t.Errorf("cookie = %q, want %q", result.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestCurlHeaders_Credential(t *testing.T) {
	t.Run("Token Scheme", func(t *testing.T) {
		h := &CurlHeaders{Headers: map[string]string{"authorization": "Token s3cr3t"}}
		got, err := h.Credential()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != "s3cr3t" {
			t.Errorf("expected s3cr3t, got %q", got)
		}
	})

	t.Run("Missing Header", func(t *testing.T) {
		h := &CurlHeaders{Headers: map[string]string{}}
		if _, err := h.Credential(); !errors.Is(err, ErrMissingToken) {
			t.Errorf("expected ErrMissingToken, got %v", err)
		}
	})

	t.Run("Bearer Scheme Rejected", func(t *testing.T) {
		h := &CurlHeaders{Headers: map[string]string{"authorization": "Bearer abc"}}
		if _, err := h.Credential(); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestParseCurlFile(t *testing.T) {
	t.Run("successful file parse", func(t *testing.T) {
		curlFile := filepath.Join(t.TempDir(), "curl.sh")
		cmd := `curl -H 'Authorization: Token token123' http://localhost:8000/api/user/me`
		if err := os.WriteFile(curlFile, []byte(cmd), 0644); err != nil {
			t.Fatalf("failed to create test file: %v", err)
		}

		result, err := ParseCurlFile(curlFile)
		if err != nil {
			t.Fatalf("ParseCurlFile() error = %v", err)
		}
		if result.Headers["authorization"] != "Token token123" {
			t.Errorf("authorization = %q", result.Headers["authorization"])
		}
	})

	t.Run("file does not exist", func(t *testing.T) {
		if _, err := ParseCurlFile("/nonexistent/file.sh"); err == nil {
			t.Error("expected error for nonexistent file")
		}
	})
}
