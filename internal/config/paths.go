package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "chatrelay"

// Paths contains the standard paths for relay data.
type Paths struct {
	Config string // ~/.config/chatrelay
	State  string // ~/.local/state/chatrelay
}

// GetPaths returns the standard paths, honoring the XDG variables.
func GetPaths() *Paths {
	return &Paths{
		Config: filepath.Join(getEnvOrDefault("XDG_CONFIG_HOME", defaultConfigHome()), appName),
		State:  filepath.Join(getEnvOrDefault("XDG_STATE_HOME", defaultStateHome()), appName),
	}
}

// LogDir is where log files go when file logging is enabled.
func (p *Paths) LogDir() string {
	return filepath.Join(p.State, "log")
}

// SearchPaths lists the config files Load tries, in order, when no path is
// given: the working directory first, then the user config directory.
func SearchPaths() []string {
	var out []string
	for _, dir := range []string{".", GetPaths().Config} {
		for _, name := range []string{"chatrelay.jsonc", "chatrelay.json", "chatrelay.yaml", "chatrelay.yml"} {
			out = append(out, filepath.Join(dir, name))
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultConfigHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

func defaultStateHome() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("APPDATA")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "state")
}
