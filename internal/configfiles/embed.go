// Package configfiles provides the embedded example configuration file,
// used as a template when initializing a new deployment.
package configfiles

import (
	"embed"
	"os"
	"path/filepath"
)

//go:embed config.example.yaml
var configFS embed.FS

// GetConfigExample returns the example configuration file content
func GetConfigExample() ([]byte, error) {
	return configFS.ReadFile("config.example.yaml")
}

// WriteConfigExample writes the example configuration to the given path,
// creating parent directories as needed. Refuses to overwrite an existing
// file.
func WriteConfigExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return os.ErrExist
	}

	content, err := GetConfigExample()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, content, 0644)
}
