package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// launcher returns the program and arguments that hand url to the desktop
// for goos.
func launcher(goos, url string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{url}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{url}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}, nil
	}
	return "", nil, fmt.Errorf("%w: cannot open a browser on %s", ErrNotImplemented, goos)
}

// OpenBrowser shows url in the user's browser without waiting for it to exit.
func OpenBrowser(url string) error {
	name, args, err := launcher(runtime.GOOS, url)
	if err != nil {
		return err
	}
	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
