package vault

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is an in-memory SecureStore with optional injected failures.
type memStore struct {
	entries map[string]string
	failAll bool
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]string)}
}

func (m *memStore) Set(key, value string) error {
	if m.failAll {
		return errors.New("store unavailable")
	}
	m.entries[key] = value
	return nil
}

func (m *memStore) Get(key string) (string, bool, error) {
	if m.failAll {
		return "", false, errors.New("store unavailable")
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *memStore) Delete(key string) error {
	if m.failAll {
		return errors.New("store unavailable")
	}
	delete(m.entries, key)
	return nil
}

func TestVault_CredentialRoundTrip(t *testing.T) {
	v := New(newMemStore(), zap.NewNop())

	require.False(t, v.HasCredential())
	require.Nil(t, v.Credential())

	require.True(t, v.SaveCredential("52998224725", "s3cret!"))
	require.True(t, v.HasCredential())

	cred := v.Credential()
	require.NotNil(t, cred)
	assert.Equal(t, "52998224725", cred.Identifier)
	assert.Equal(t, "s3cret!", cred.Secret)

	require.True(t, v.RemoveCredential())
	assert.False(t, v.HasCredential())
	assert.Nil(t, v.Credential())
}

func TestVault_StorageFailuresDegrade(t *testing.T) {
	store := newMemStore()
	store.failAll = true
	v := New(store, zap.NewNop())

	assert.False(t, v.SaveCredential("id", "secret"))
	assert.Nil(t, v.Credential())
	assert.False(t, v.HasCredential())
	assert.False(t, v.RemoveCredential())
	assert.False(t, v.SetRemembered("id"))
	_, ok := v.Remembered()
	assert.False(t, ok)
	assert.False(t, v.ClearRemembered())
}

func TestVault_CorruptCredentialIsNil(t *testing.T) {
	store := newMemStore()
	store.entries["selfcare.credential"] = "{not json"
	v := New(store, zap.NewNop())

	assert.Nil(t, v.Credential())
	// Existence probe still reports the entry; only decode fails.
	assert.True(t, v.HasCredential())
}

func TestVault_RememberedIndependentOfCredential(t *testing.T) {
	v := New(newMemStore(), zap.NewNop())

	require.True(t, v.SaveCredential("52998224725", "pw"))
	require.True(t, v.SetRemembered("52998224725"))

	require.True(t, v.RemoveCredential())
	id, ok := v.Remembered()
	require.True(t, ok)
	assert.Equal(t, "52998224725", id)

	require.True(t, v.ClearRemembered())
	_, ok = v.Remembered()
	assert.False(t, ok)
}
