// Package browser opens record links in the system browser.
package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// ErrNoLink is returned for the placeholder link records carry when a provider gave none.
var ErrNoLink = errors.New("record has no link")

// Open validates link and opens it with the platform's URL handler.
func Open(link string) error {
	cmd, err := command(runtime.GOOS, link)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Validate reports whether link is an absolute http(s) URL safe to hand to the OS.
func Validate(link string) error {
	if link == "" || link == "#" {
		return ErrNoLink
	}
	if strings.ContainsAny(link, " \t\r\n\x00") {
		return fmt.Errorf("invalid URL: contains whitespace or control characters")
	}
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https allowed)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL: missing host")
	}
	return nil
}

func command(goos, link string) (*exec.Cmd, error) {
	if err := Validate(link); err != nil {
		return nil, err
	}

	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return exec.Command("xdg-open", link), nil // #nosec G204 -- link validated above
	case "darwin":
		return exec.Command("open", link), nil // #nosec G204 -- link validated above
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", link), nil // #nosec G204 -- link validated above
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}
