package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser hands url to the platform's default browser. The login flow
// uses it to send the user to the Spotify consent page.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch goos := getRuntime(); goos {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return fmt.Errorf("no browser launcher for platform %s", goos)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("could not launch browser: %w", err)
	}
	return nil
}
