package shared

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"runtime"
)

// EnvBrowser names a browser command that takes precedence over the platform default.
const EnvBrowser = "BROWSER"

var getRuntime = func() string { return runtime.GOOS }

// browserCommand picks the command that opens target on this platform.
func browserCommand(target string) (*exec.Cmd, error) {
	if b := os.Getenv(EnvBrowser); b != "" {
		return exec.Command(b, target), nil
	}

	switch rt := getRuntime(); rt {
	case "darwin":
		return exec.Command("open", target), nil
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", target), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", rt)
	}
}

// OpenBrowser opens the sign-in page or player widget at target in the system browser.
//
// Only http and https URLs are opened.
func OpenBrowser(target string) error {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: refusing to open %q", ErrInvalidInput, target)
	}

	cmd, err := browserCommand(u.String())
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
