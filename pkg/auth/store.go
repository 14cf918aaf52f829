package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// TokenStore is the interface for storing and retrieving the sleep-cloud
// user token. The system fetches for exactly one credentialed identity, so
// the store holds a single token rather than named accounts.
type TokenStore interface {
	// Store saves the token
	Store(token string) error

	// Retrieve gets the stored token
	Retrieve() (string, error)

	// Delete removes the stored token
	Delete() error

	// Exists checks if a token is stored
	Exists() bool
}

// Manager handles token storage with fallback mechanisms
type Manager struct {
	stores []TokenStore
}

// NewManager creates a token manager with the available storage backends:
// system keyring first, encrypted file as fallback, environment variable as
// a read-only last resort.
func NewManager() (*Manager, error) {
	var stores []TokenStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "token.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves the token using the first available writable store
func (m *Manager) Store(token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(token); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return errors.New("no available token stores")
}

// Retrieve gets the token from the first store that has one. The environment
// variable takes precedence so an explicitly exported token always wins.
func (m *Manager) Retrieve() (string, error) {
	for i := len(m.stores) - 1; i >= 0; i-- {
		if token, err := m.stores[i].Retrieve(); err == nil && token != "" {
			return token, nil
		}
	}
	return "", ErrTokenNotFound
}

// Delete removes the token from all writable stores
func (m *Manager) Delete() error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	if !deleted {
		return ErrTokenNotFound
	}

	return nil
}

// Exists checks whether any store holds a token
func (m *Manager) Exists() bool {
	for _, store := range m.stores {
		if store.Exists() {
			return true
		}
	}
	return false
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "sleepfetch")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "sleepfetch")
	default: // Linux and others
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "sleepfetch")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "sleepfetch")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// MaskToken masks all but the first 4 and last 4 characters of a token
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// Errors
var (
	ErrTokenNotFound = errors.New("token not found")
	ErrInvalidToken  = errors.New("invalid token")
	ErrStoreReadOnly = errors.New("token store is read-only")
)
