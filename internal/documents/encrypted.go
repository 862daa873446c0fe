package documents

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"cand-go/internal/cand"
)

// ErrLocked is returned when reading an encrypted document before Unlock.
var ErrLocked = errors.New("document store is locked: passphrase required")

// EncryptedStore encrypts documents before handing them to the underlying
// store. Uploads need only the public key; downloads need Unlock first.
// File names are unchanged, so List and Delete pass straight through.
type EncryptedStore struct {
	inner     cand.DocumentStore
	encryptor cand.Encryptor

	mu  sync.RWMutex
	dec cand.DecryptionContext
}

func NewEncryptedStore(inner cand.DocumentStore, encryptor cand.Encryptor) *EncryptedStore {
	return &EncryptedStore{inner: inner, encryptor: encryptor}
}

// Unlock decrypts the private key and keeps it for subsequent Open calls.
func (s *EncryptedStore) Unlock(passphrase string) error {
	dec, err := s.encryptor.Unlock(passphrase)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.dec = dec
	s.mu.Unlock()
	return nil
}

// Locked reports whether Open would fail with ErrLocked.
func (s *EncryptedStore) Locked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dec == nil
}

// ValidateSetup checks the wrapped store when it supports a setup check.
func (s *EncryptedStore) ValidateSetup() error {
	if v, ok := s.inner.(interface{ ValidateSetup() error }); ok {
		return v.ValidateSetup()
	}
	return nil
}

func (s *EncryptedStore) EnsureFolder(candidateID string) (string, error) {
	return s.inner.EnsureFolder(candidateID)
}

// Store buffers the ciphertext because the inner store verifies size.
func (s *EncryptedStore) Store(candidateID, key string, r io.Reader, size int64, ext string) (string, error) {
	counter := &countingReader{r: r}
	var sealed bytes.Buffer
	if err := s.encryptor.Encrypt(counter, &sealed); err != nil {
		return "", fmt.Errorf("encrypting %s: %w", key, err)
	}
	if counter.n != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counter.n)
	}
	return s.inner.Store(candidateID, key, &sealed, int64(sealed.Len()), ext)
}

func (s *EncryptedStore) List(candidateID string) ([]string, error) {
	return s.inner.List(candidateID)
}

func (s *EncryptedStore) Open(candidateID, fileName string, w io.Writer) error {
	s.mu.RLock()
	dec := s.dec
	s.mu.RUnlock()
	if dec == nil {
		return ErrLocked
	}

	var sealed bytes.Buffer
	if err := s.inner.Open(candidateID, fileName, &sealed); err != nil {
		return err
	}
	if err := dec.Decrypt(&sealed, w); err != nil {
		return fmt.Errorf("decrypting %s: %w", fileName, err)
	}
	return nil
}

func (s *EncryptedStore) Delete(candidateID, fileName string) error {
	return s.inner.Delete(candidateID, fileName)
}

var _ cand.DocumentStore = (*EncryptedStore)(nil)
