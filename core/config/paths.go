package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultConfigPath returns the default config file path for the given file
// name (e.g. "client.yaml").
func DefaultConfigPath(name string) string {
	home, _ := os.UserHomeDir()
	return ResolveConfigPath(runtime.GOOS, home, os.Getenv("ProgramData"), name)
}

// ResolveConfigPath builds the config file path for goos from the given base
// directories.
func ResolveConfigPath(goos, home, programData, name string) string {
	switch goos {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "rtvi", name)
	case "windows":
		if programData == "" {
			programData = "C:/ProgramData"
		}
		return filepath.Join(strings.TrimRight(programData, "\\/"), "rtvi", name)
	default:
		return filepath.Join("/etc", "rtvi", name)
	}
}
