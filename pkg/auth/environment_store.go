package auth

import (
	"os"
	"strings"
)

// EnvironmentStore implements TokenStore over the SLEEP_CLOUD_TOKEN
// environment variable. It is read-only: Store and Delete report the token
// as unmanageable so the manager falls through to a writable backend.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based token store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(token string) error {
	return ErrStoreReadOnly
}

// Retrieve gets the token from the environment
func (e *EnvironmentStore) Retrieve() (string, error) {
	token := strings.TrimSpace(os.Getenv("SLEEP_CLOUD_TOKEN"))
	if token == "" {
		return "", ErrTokenNotFound
	}
	return token, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete() error {
	return ErrStoreReadOnly
}

// Exists checks if the environment variable is set
func (e *EnvironmentStore) Exists() bool {
	return strings.TrimSpace(os.Getenv("SLEEP_CLOUD_TOKEN")) != ""
}
