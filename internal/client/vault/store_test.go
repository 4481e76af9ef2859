package vault

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	aead, err := NewAEADFromKey([]byte("device-key-material"))
	if err != nil {
		t.Fatalf("NewAEADFromKey failed: %v", err)
	}
	return NewFileStore(filepath.Join(t.TempDir(), "secure.json"), aead)
}

func TestFileStore_SetGetDelete(t *testing.T) {
	fs := newTestStore(t)

	if _, ok, err := fs.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v; want absent, no error", ok, err)
	}

	if err := fs.Set("k", "v1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok, err := fs.Get("k")
	if err != nil || !ok || got != "v1" {
		t.Fatalf("Get = (%q, %v, %v); want (v1, true, nil)", got, ok, err)
	}

	// Overwrite.
	if err := fs.Set("k", "v2"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, _, _ = fs.Get("k")
	if got != "v2" {
		t.Errorf("Get after overwrite = %q; want v2", got)
	}

	if err := fs.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := fs.Get("k"); ok {
		t.Error("Get after Delete reported value present")
	}
	// Deleting an absent key is not an error.
	if err := fs.Delete("k"); err != nil {
		t.Errorf("Delete of absent key returned %v", err)
	}
}

func TestFileStore_KeysIndependent(t *testing.T) {
	fs := newTestStore(t)
	if err := fs.Set("a", "1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := fs.Set("b", "2"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := fs.Delete("a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, ok, err := fs.Get("b")
	if err != nil || !ok || got != "2" {
		t.Errorf("Get(b) after Delete(a) = (%q, %v, %v); want (2, true, nil)", got, ok, err)
	}
}

func TestFileStore_ValuesEncryptedAtRest(t *testing.T) {
	aead, err := NewAEADFromKey([]byte("key"))
	if err != nil {
		t.Fatalf("NewAEADFromKey failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "secure.json")
	fs := NewFileStore(path, aead)
	if err := fs.Set("cred", "super-secret-password"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if bytes.Contains(raw, []byte("super-secret-password")) {
		t.Error("plaintext secret found in backing file")
	}
}

func TestFileStore_WrongKeyIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secure.json")
	aead1, _ := NewAEADFromKey([]byte("key-one"))
	if err := NewFileStore(path, aead1).Set("k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	aead2, _ := NewAEADFromKey([]byte("key-two"))
	if _, _, err := NewFileStore(path, aead2).Get("k"); err == nil {
		t.Error("Get with wrong key succeeded; want decryption error")
	}
}
