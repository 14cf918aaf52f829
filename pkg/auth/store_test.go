package auth

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskToken(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"", "********"},
		{"short", "********"},
		{"12345678", "********"},
		{"123456789", "1234...6789"},
		{"abcdefghijklmnop", "abcd...mnop"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MaskToken(tt.token))
	}
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	t.Run("without variable", func(t *testing.T) {
		t.Setenv("SLEEP_CLOUD_TOKEN", "")
		assert.False(t, store.Exists())
		_, err := store.Retrieve()
		assert.ErrorIs(t, err, ErrTokenNotFound)
	})

	t.Run("with variable", func(t *testing.T) {
		t.Setenv("SLEEP_CLOUD_TOKEN", "  env-token  ")
		assert.True(t, store.Exists())
		token, err := store.Retrieve()
		require.NoError(t, err)
		assert.Equal(t, "env-token", token)
	})

	t.Run("read only", func(t *testing.T) {
		assert.ErrorIs(t, store.Store("x"), ErrStoreReadOnly)
		assert.ErrorIs(t, store.Delete(), ErrStoreReadOnly)
	})
}

func newEncryptedStore(t *testing.T) *EncryptedFileStore {
	t.Helper()
	t.Setenv("SLEEPFETCH_PASSPHRASE", "test-passphrase")
	store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "token.enc"))
	require.NoError(t, err)
	return store
}

func TestEncryptedFileStoreRoundTrip(t *testing.T) {
	store := newEncryptedStore(t)

	require.NoError(t, store.Store("my-secret-token"))
	assert.True(t, store.Exists())

	token, err := store.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, "my-secret-token", token)
}

func TestEncryptedFileStoreRejectsEmptyToken(t *testing.T) {
	store := newEncryptedStore(t)
	assert.ErrorIs(t, store.Store(""), ErrInvalidToken)
}

func TestEncryptedFileStoreMissingToken(t *testing.T) {
	store := newEncryptedStore(t)

	assert.False(t, store.Exists())
	_, err := store.Retrieve()
	assert.ErrorIs(t, err, ErrTokenNotFound)
	assert.ErrorIs(t, store.Delete(), ErrTokenNotFound)
}

func TestEncryptedFileStoreDelete(t *testing.T) {
	store := newEncryptedStore(t)

	require.NoError(t, store.Store("my-secret-token"))
	require.NoError(t, store.Delete())
	assert.False(t, store.Exists())
}

func TestEncryptedFileStoreOverwrite(t *testing.T) {
	store := newEncryptedStore(t)

	require.NoError(t, store.Store("first"))
	require.NoError(t, store.Store("second"))

	token, err := store.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, "second", token)
}

func TestEncryptedFileStoreWrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.enc")

	t.Setenv("SLEEPFETCH_PASSPHRASE", "test-passphrase")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store("my-secret-token"))

	t.Setenv("SLEEPFETCH_PASSPHRASE", "different")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	_, err = other.Retrieve()
	assert.Error(t, err)
}
