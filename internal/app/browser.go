package app

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
)

// openWindow starts a Chromium-based browser in app mode so the survey runs
// in its own window rather than a browser tab.
func openWindow(url string, disableGPU bool) error {
	path, err := findBrowser()
	if err != nil {
		return err
	}
	args := []string{"--app=" + url, "--new-window"}
	if disableGPU {
		args = append(args, "--disable-gpu")
	}
	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// The browser forks into an existing instance on some platforms, so the
	// exit of this process says nothing about the window. Reap it quietly.
	go func() { _ = cmd.Wait() }()
	return nil
}

func findBrowser() (string, error) {
	var names []string
	var absolute []string
	switch runtime.GOOS {
	case "windows":
		absolute = []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Microsoft\Edge\Application\msedge.exe`,
		}
	case "darwin":
		absolute = []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
			"/Applications/Microsoft Edge.app/Contents/MacOS/Microsoft Edge",
		}
	default:
		names = []string{"google-chrome", "chromium", "chromium-browser", "microsoft-edge"}
	}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	for _, path := range absolute {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no Chromium-based browser found")
}
