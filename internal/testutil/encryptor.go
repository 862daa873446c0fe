package testutil

import (
	"testing"

	"cand-go/internal/cand"
	"cand-go/internal/encryption"
)

// TestPassphrase unlocks encryptors returned by NewTestEncryptor.
const TestPassphrase = "test-passphrase"

// NewTestEncryptor creates a marker encryptor already set up with TestPassphrase.
func NewTestEncryptor(t *testing.T) cand.Encryptor {
	t.Helper()
	enc := encryption.NewMarkerEncryptor()
	if err := enc.Setup(TestPassphrase); err != nil {
		t.Fatalf("failed to set up encryptor: %v", err)
	}
	return enc
}
