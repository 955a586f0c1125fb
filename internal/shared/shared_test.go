package shared

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	tu "github.com/desertthunder/songdl/internal/testing"
)

func TestNormalizeQuery(t *testing.T) {
	tc := []struct {
		name  string
		query string
		want  string
	}{
		{name: "already normal", query: "daft punk", want: "daft punk"},
		{name: "extra whitespace", query: "  daft   punk  ", want: "daft punk"},
		{name: "tabs and newlines", query: "daft\tpunk\n", want: "daft punk"},
		{name: "empty", query: "   ", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeQuery(tt.query); got != tt.want {
				t.Errorf("NormalizeQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Artist - Song", want: "Artist - Song"},
		{name: "slashes", in: "AC/DC - Back In Black", want: "AC_DC - Back In Black"},
		{name: "reserved characters", in: `a:b*c?d"e<f>g|h`, want: "a_b_c_d'e_f_g_h"},
		{name: "only dots", in: "...", want: "untitled"},
		{name: "empty", in: "", want: "untitled"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("ParseLevel", func(t *testing.T) {
		if got := ParseLevel("debug"); got != log.DebugLevel {
			t.Errorf("expected debug level, got %v", got)
		}
		if got := ParseLevel(" WARN "); got != log.WarnLevel {
			t.Errorf("expected warn level, got %v", got)
		}
		if got := ParseLevel("nonsense"); got != log.InfoLevel {
			t.Errorf("expected info fallback, got %v", got)
		}
	})

	t.Run("WithLogger Adds Fields", func(t *testing.T) {
		var buf bytes.Buffer
		l := WithLogger(NewLogger(&buf), "component", "gateway")
		l.Info("hello")
		if !strings.Contains(buf.String(), "component=gateway") {
			t.Errorf("expected component field, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger Creates Directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "songdl.log")
		l, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		l.Info("written")
		tu.AssertDirExists(t, filepath.Dir(path))
	})
}

func TestValidateJSON(t *testing.T) {
	if err := ValidateJSON([]byte(`{"ok":true}`)); err != nil {
		t.Errorf("expected valid JSON, got %v", err)
	}
	if err := ValidateJSON([]byte(`{nope`)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string, got %q", a)
	}
}

func TestOpenBrowser(t *testing.T) {
	t.Run("rejects non-web URLs", func(t *testing.T) {
		for _, target := range []string{"file:///etc/passwd", "javascript:alert(1)", "not a url", "https://"} {
			if err := OpenBrowser(target); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("OpenBrowser(%q): expected ErrInvalidInput, got %v", target, err)
			}
		}
	})

	t.Run("unsupported platform", func(t *testing.T) {
		t.Setenv(EnvBrowser, "")
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = orig }()

		if err := OpenBrowser("https://example.com"); err == nil || !strings.Contains(err.Error(), "unsupported platform") {
			t.Errorf("expected unsupported platform error, got %v", err)
		}
	})

	t.Run("browser override", func(t *testing.T) {
		t.Setenv(EnvBrowser, "songdl-test-browser")
		cmd, err := browserCommand("https://example.com")
		if err != nil {
			t.Fatalf("browserCommand failed: %v", err)
		}
		if len(cmd.Args) != 2 || cmd.Args[0] != "songdl-test-browser" || cmd.Args[1] != "https://example.com" {
			t.Errorf("unexpected args %v", cmd.Args)
		}
	})
}
