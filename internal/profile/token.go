package profile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// LoadToken returns the saved session token, or "" when none is saved.
func LoadToken(name string) (string, error) {
	data, err := os.ReadFile(TokenPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveToken persists the session token with owner-only permissions.
func SaveToken(name, token string) error {
	path := TokenPath(name)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0600)
}

// ClearToken removes the saved session token. Missing file is not an error.
func ClearToken(name string) error {
	err := os.Remove(TokenPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
