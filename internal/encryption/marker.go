package encryption

import (
	"bytes"
	"fmt"
	"io"

	"cand-go/internal/cand"
)

// markerHeader prefixes output from MarkerEncryptor so tests can tell stored
// bytes from plaintext.
var markerHeader = []byte("CANDENC\x00")

// MarkerEncryptor is a deterministic stand-in for tests. It prepends a fixed
// header on Encrypt and strips it on Decrypt. Unlock checks the passphrase
// given to Setup so the locked and wrong-passphrase paths can be exercised.
type MarkerEncryptor struct {
	passphrase string
	configured bool
}

var _ cand.Encryptor = (*MarkerEncryptor)(nil)

func NewMarkerEncryptor() *MarkerEncryptor {
	return &MarkerEncryptor{}
}

func (e *MarkerEncryptor) Setup(passphrase string) error {
	if e.configured {
		return ErrAlreadyConfigured
	}
	e.passphrase = passphrase
	e.configured = true
	return nil
}

func (e *MarkerEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(markerHeader); err != nil {
		return fmt.Errorf("writing marker header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying document: %w", err)
	}
	return nil
}

func (e *MarkerEncryptor) Unlock(passphrase string) (cand.DecryptionContext, error) {
	if e.configured && passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return markerDecryptor{}, nil
}

func (e *MarkerEncryptor) IsConfigured() bool {
	return e.configured
}

type markerDecryptor struct{}

func (markerDecryptor) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(markerHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading marker header: %w", err)
	}
	if !bytes.Equal(header, markerHeader) {
		return fmt.Errorf("invalid marker header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying document: %w", err)
	}
	return nil
}
