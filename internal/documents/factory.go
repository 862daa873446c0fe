package documents

import (
	"context"
	"fmt"

	"cand-go/internal/cand"
	"cand-go/internal/config"
)

// NewDocumentStoreFromConfig creates a DocumentStore based on the documents
// config type. A non-nil encryptor wraps the store in an EncryptedStore.
func NewDocumentStoreFromConfig(ctx context.Context, cfg config.DocumentsConfig, enc cand.Encryptor) (cand.DocumentStore, error) {
	var (
		store cand.DocumentStore
		err   error
	)

	switch cfg.Type {
	case "memory":
		store = NewMemoryStore()
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem documents require root to be set")
		}
		store, err = NewFileSystemStore(cfg.Root)
	case "s3":
		store, err = NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown documents type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	if enc != nil {
		return NewEncryptedStore(store, enc), nil
	}
	return store, nil
}
