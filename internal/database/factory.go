package database

import (
	"fmt"
	"os"
	"path/filepath"

	"cand-go/internal/config"
)

// NewStoreFromConfig creates a store based on the database config type.
// In-memory stores are migrated immediately since they start empty every run.
func NewStoreFromConfig(cfg config.DatabaseConfig) (*SQLStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteStore(filepath.Join(cfg.DataDir, "candidatos.db"))
	case "memory":
		s, err := NewSQLiteStore(":memory:")
		if err != nil {
			return nil, err
		}
		if err := s.MigrateUp(); err != nil {
			s.Close()
			return nil, fmt.Errorf("migrating memory database: %w", err)
		}
		return s, nil
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("dsn required for postgres database")
		}
		return NewPostgresStore(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
