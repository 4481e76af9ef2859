// Package vault persists the cached login credential and the
// remember-me preference behind platform secure storage. Storage
// failures never propagate to callers: operations degrade to
// false/nil and log, so biometric and remember-me features fail
// closed into a full manual login.
package vault

import (
	"encoding/json"

	"go.uber.org/zap"
)

const (
	credentialKey = "selfcare.credential"
	rememberKey   = "selfcare.remember"
)

// Vault owns the credential and remember-me entries. No other
// component reads or writes the backing store directly.
type Vault struct {
	store SecureStore
	log   *zap.Logger
}

// New constructs a Vault over the given secure store.
func New(store SecureStore, log *zap.Logger) *Vault {
	return &Vault{store: store, log: log}
}

// SaveCredential caches the identifier/secret pair for biometric
// unlock. Returns false on any storage failure. The secret itself is
// never logged.
func (v *Vault) SaveCredential(identifier, secret string) bool {
	b, err := json.Marshal(Credential{Identifier: identifier, Secret: secret})
	if err != nil {
		v.log.Error("serialize credential", zap.Error(err))
		return false
	}
	if err := v.store.Set(credentialKey, string(b)); err != nil {
		v.log.Error("save credential", zap.Error(err))
		return false
	}
	return true
}

// Credential returns the cached pair, or nil when absent, unreadable
// or corrupt.
func (v *Vault) Credential() *Credential {
	raw, ok, err := v.store.Get(credentialKey)
	if err != nil {
		v.log.Error("read credential", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var cred Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		v.log.Error("decode credential", zap.Error(err))
		return nil
	}
	return &cred
}

// HasCredential is an existence probe used to gate the biometric
// challenge without releasing the secret.
func (v *Vault) HasCredential() bool {
	_, ok, err := v.store.Get(credentialKey)
	if err != nil {
		v.log.Error("probe credential", zap.Error(err))
		return false
	}
	return ok
}

// RemoveCredential deletes the cached pair. Returns false on storage
// failure.
func (v *Vault) RemoveCredential() bool {
	if err := v.store.Delete(credentialKey); err != nil {
		v.log.Error("remove credential", zap.Error(err))
		return false
	}
	return true
}

// SetRemembered stores the identifier to pre-fill the login screen.
// Independent of the credential entry.
func (v *Vault) SetRemembered(identifier string) bool {
	if err := v.store.Set(rememberKey, identifier); err != nil {
		v.log.Error("save remembered identifier", zap.Error(err))
		return false
	}
	return true
}

// Remembered returns the remembered identifier, if any.
func (v *Vault) Remembered() (string, bool) {
	raw, ok, err := v.store.Get(rememberKey)
	if err != nil {
		v.log.Error("read remembered identifier", zap.Error(err))
		return "", false
	}
	return raw, ok
}

// ClearRemembered drops the remember-me entry.
func (v *Vault) ClearRemembered() bool {
	if err := v.store.Delete(rememberKey); err != nil {
		v.log.Error("clear remembered identifier", zap.Error(err))
		return false
	}
	return true
}
