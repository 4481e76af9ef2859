package vault

// Credential is the password-equivalent secret pair released by a
// successful biometric challenge.
type Credential struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// SecureStore is the platform secure-storage boundary: an encrypted
// key→value store. Keys are logically independent and may be cleared
// independently.
type SecureStore interface {
	// Set writes value under key, replacing any previous value.
	Set(key, value string) error
	// Get returns the value under key and whether it was present.
	Get(key string) (string, bool, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}
