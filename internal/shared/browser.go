package shared

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// OpenBrowser opens the default system browser to the specified URL.
//
// $BROWSER takes precedence; otherwise macOS, Linux, and Windows are supported.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	if browser := os.Getenv("BROWSER"); browser != "" {
		cmd = exec.Command(browser, url)
	} else {
		switch rt := getRuntime(); rt {
		case "darwin":
			cmd = exec.Command("open", url)
		case "linux", "freebsd", "openbsd":
			cmd = exec.Command("xdg-open", url)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			return fmt.Errorf("unsupported platform: %s", rt)
		}
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
