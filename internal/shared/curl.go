// Utilities for lifting a credential out of a "Copy as cURL" command.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRe = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieRe = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	Headers map[string]string // keys are lower-cased
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(path string) (*CurlHeaders, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts -H headers and the -b cookie (or a Cookie header) from a cURL command.
func ParseCurlCommand(cmd string) (*CurlHeaders, error) {
	cmd = strings.ReplaceAll(cmd, "\\\n", " ")

	out := &CurlHeaders{Headers: make(map[string]string)}
	for _, match := range curlHeaderRe.FindAllStringSubmatch(cmd, -1) {
		line := firstNonEmpty(match[1], match[2])
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "cookie" {
			if out.Cookie == "" {
				out.Cookie = value
			}
			continue
		}
		out.Headers[key] = value
	}

	// -b wins over a Cookie header
	if m := curlCookieRe.FindStringSubmatch(cmd); m != nil {
		out.Cookie = firstNonEmpty(m[1], m[2])
	}

	if len(out.Headers) == 0 && out.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return out, nil
}

// Credential returns the opaque token from an "Authorization: Token <value>" header.
func (c *CurlHeaders) Credential() (string, error) {
	auth, ok := c.Headers["authorization"]
	if !ok {
		return "", fmt.Errorf("%w: no authorization header", ErrMissingToken)
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(auth), " ")
	if !ok || !strings.EqualFold(scheme, "token") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: unsupported authorization scheme", ErrInvalidInput)
	}
	return strings.TrimSpace(token), nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
