package utils

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigDirCandidates lists the directories app may keep its config in,
// most preferred first.
func ConfigDirCandidates(app string) ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	var dirs []string
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			dirs = append(dirs, filepath.Join(appData, app))
		}
		dirs = append(dirs, filepath.Join(homeDir, "AppData", "Roaming", app))
	default:
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			dirs = append(dirs, filepath.Join(configHome, app))
		}
		dirs = append(dirs, filepath.Join(homeDir, ".config", app))
		// Not conventional, only used when ~/.config is not writable
		if runtime.GOOS == "darwin" {
			dirs = append(dirs, filepath.Join(homeDir, "Library", "Application Support", app))
		}
	}
	return dirs, nil
}
