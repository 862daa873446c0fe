package cand

import "io"

// Encryptor protects document bytes at rest.
// Encryption needs only the public key; decryption requires unlocking the private
// key with a passphrase, which yields a DecryptionContext.
type Encryptor interface {
	// Setup generates a key pair once and protects the private key with passphrase.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key. It fails if the passphrase is wrong.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured reports whether both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory only.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
