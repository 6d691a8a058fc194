package infra

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKeyProvider_StoreKeyInstallsAtomically(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested")
	provider := NewFileKeyProvider(dataDir)
	assert.False(t, provider.KeyExists())

	key, err := GenerateKey()
	require.NoError(t, err)
	require.NoError(t, provider.StoreKey(key))

	info, err := os.Stat(filepath.Join(dataDir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(dataDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover temp file %s", e.Name())
	}

	got, err := provider.GetKey()
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestFileKeyProvider_StoreKeyReplacesExisting(t *testing.T) {
	provider := NewFileKeyProvider(t.TempDir())

	first, err := GenerateKey()
	require.NoError(t, err)
	second, err := GenerateKey()
	require.NoError(t, err)

	require.NoError(t, provider.StoreKey(first))
	require.NoError(t, provider.StoreKey(second))

	got, err := provider.GetKey()
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestFileKeyProvider_RejectsBadKeys(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not base64", content: "not-base64!!!"},
		{name: "short key", content: base64.StdEncoding.EncodeToString([]byte("short"))},
		{name: "empty file", content: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dataDir, keyFileName), []byte(tt.content), 0600))

			_, err := NewFileKeyProvider(dataDir).GetKey()
			assert.Error(t, err)
		})
	}

	t.Run("store rejects wrong size", func(t *testing.T) {
		provider := NewFileKeyProvider(t.TempDir())
		assert.Error(t, provider.StoreKey([]byte("short")))
		assert.False(t, provider.KeyExists())
	})
}

func TestGenerateKey_SizeAndUniqueness(t *testing.T) {
	a, err := GenerateKey()
	require.NoError(t, err)
	b, err := GenerateKey()
	require.NoError(t, err)

	assert.Len(t, a, keySize)
	assert.NotEqual(t, a, b)
}

// racingKeyProvider stores a peer's key in place of the one it is given,
// as when another process renames its key file in first.
type racingKeyProvider struct {
	*FileKeyProvider
	peerKey []byte
}

func (p *racingKeyProvider) StoreKey(key []byte) error {
	return p.FileKeyProvider.StoreKey(p.peerKey)
}

func TestEnsureKey(t *testing.T) {
	t.Run("second call returns the same key", func(t *testing.T) {
		provider := NewFileKeyProvider(t.TempDir())

		first, err := EnsureKey(provider)
		require.NoError(t, err)
		second, err := EnsureKey(provider)
		require.NoError(t, err)

		assert.Len(t, first, keySize)
		assert.Equal(t, first, second)
	})

	t.Run("returns the key on disk after a racing write", func(t *testing.T) {
		peerKey, err := GenerateKey()
		require.NoError(t, err)
		provider := &racingKeyProvider{
			FileKeyProvider: NewFileKeyProvider(t.TempDir()),
			peerKey:         peerKey,
		}

		key, err := EnsureKey(provider)
		require.NoError(t, err)
		assert.Equal(t, peerKey, key)
	})
}
