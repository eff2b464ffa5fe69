package utils

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
)

// FileExists simply checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// EnsureDir creates directory if it doesn't exist
func EnsureDir(dirPath string) error {
	return os.MkdirAll(dirPath, 0755)
}

// LoadTOMLFile decodes a TOML file into the given struct
func LoadTOMLFile(filePath string, data interface{}) error {
	_, err := toml.DecodeFile(filePath, data)
	return err
}

// SaveTOMLFile saves a struct to a TOML file
func SaveTOMLFile(data interface{}, filePath string) error {
	file, err := os.Create(filePath)
	if err != nil {
		log.Errorf("Failed to create file: %v", err)
		return err
	}
	defer file.Close()
	encoder := toml.NewEncoder(file)
	return encoder.Encode(data)
}

// GetAbsolutePath returns the absolute path of a file
func GetAbsolutePath(path string) string {
	if path == "" {
		return "unknown"
	}
	if !filepath.IsAbs(path) {
		if absPath, err := filepath.Abs(path); err == nil {
			return absPath
		}
	}
	return path
}

// GetExecutableDir returns the directory of the current executable.
// Fallback for when no user config directory is usable.
func GetExecutableDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(execPath), nil
}
