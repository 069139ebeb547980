package config

import (
	"os"
	"path/filepath"
)

// Extensions are the config file formats searched for, in order
var Extensions = []string{"yml", "yaml", "json", "toml"}

// FindLocalConfig finds local config file by walking up directories
func FindLocalConfig(dir string) string {
	for {
		for _, ext := range Extensions {
			path := filepath.Join(dir, ".protogen."+ext)

			if _, err := os.Stat(path); err == nil {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}

// FindGlobalConfig returns the first config file in the user config directory
func FindGlobalConfig() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	for _, ext := range Extensions {
		path := filepath.Join(dir, "protogen", "config."+ext)

		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
