package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileStore implements SecureStore on an encrypted JSON file. Each
// value is sealed individually with AES-GCM (nonce prepended) and
// base64-encoded, so keys stay independently readable and clearable.
type FileStore struct {
	path string
	aead cipher.AEAD
	mu   sync.Mutex
}

// fileDocument is the on-disk shape.
type fileDocument struct {
	Entries map[string]string `json:"entries"`
}

// NewFileStore creates a store persisting to path, sealing values
// with aead.
func NewFileStore(path string, aead cipher.AEAD) *FileStore {
	return &FileStore{path: path, aead: aead}
}

// load reads the backing file. A missing file yields an empty document.
func (fs *FileStore) load() (*fileDocument, error) {
	doc := &fileDocument{Entries: make(map[string]string)}
	f, err := os.Open(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(doc); err != nil {
		return nil, err
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string]string)
	}
	return doc, nil
}

func (fs *FileStore) save(doc *fileDocument) error {
	f, err := os.OpenFile(fs.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(doc)
}

// Set seals value and writes it under key.
func (fs *FileStore) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.load()
	if err != nil {
		return err
	}
	nonce := make([]byte, fs.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := fs.aead.Seal(nonce, nonce, []byte(value), nil)
	doc.Entries[key] = base64.StdEncoding.EncodeToString(sealed)
	return fs.save(doc)
}

// Get opens the value under key. A value that fails to decode or
// decrypt is reported as an error, not as absent, so callers can log
// the corruption.
func (fs *FileStore) Get(key string) (string, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.load()
	if err != nil {
		return "", false, err
	}
	encoded, ok := doc.Entries[key]
	if !ok {
		return "", false, nil
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(sealed) < fs.aead.NonceSize() {
		return "", false, fmt.Errorf("corrupt entry for %s", key)
	}
	nonce := sealed[:fs.aead.NonceSize()]
	plain, err := fs.aead.Open(nil, nonce, sealed[fs.aead.NonceSize():], nil)
	if err != nil {
		return "", false, fmt.Errorf("decrypt entry for %s: %w", key, err)
	}
	return string(plain), true, nil
}

// Delete removes key from the backing file.
func (fs *FileStore) Delete(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.load()
	if err != nil {
		return err
	}
	if _, ok := doc.Entries[key]; !ok {
		return nil
	}
	delete(doc.Entries, key)
	return fs.save(doc)
}
