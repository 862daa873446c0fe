package encryption

import (
	"fmt"

	"cand-go/internal/cand"
	"cand-go/internal/config"
)

// NewEncryptorFromConfig returns nil for type "none": documents are stored as uploaded.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (cand.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
