package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultAPIURL = "http://localhost:8080"

const tokenFileName = ".taskmgr_token"

// APIURL returns the base URL for the Task Management API.
// It can be overridden with the TASKMGR_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("TASKMGR_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

func tokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	return filepath.Join(home, tokenFileName), nil
}

// SaveToken stores the JWT token in the user's home directory for later commands.
func SaveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

// ReadToken loads the stored JWT token. Returns an error when not logged in.
func ReadToken() (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("not logged in: %w", err)
	}
	return string(data), nil
}

// DeleteToken removes the stored token (logout). Missing file is not an error.
func DeleteToken() error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
