package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// EnvBrowser names a browser command that takes precedence over the platform default.
const EnvBrowser = "BROWSER"

var platformOpeners = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

// browserCommand returns the program and arguments that open url on goos.
func browserCommand(goos, browser, url string) (string, []string, error) {
	if fields := strings.Fields(browser); len(fields) > 0 {
		return fields[0], append(fields[1:], url), nil
	}

	opener, ok := platformOpeners[goos]
	if !ok {
		return "", nil, fmt.Errorf("no browser opener for platform %s", goos)
	}
	return opener[0], append(opener[1:len(opener):len(opener)], url), nil
}

// OpenBrowser starts the user's browser on url without waiting for it to exit.
func OpenBrowser(url string) error {
	name, args, err := browserCommand(runtime.GOOS, os.Getenv(EnvBrowser), url)
	if err != nil {
		return err
	}

	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
