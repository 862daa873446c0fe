package documents

import (
	"context"
	"testing"

	"cand-go/internal/config"
	"cand-go/internal/encryption"
)

func TestNewDocumentStoreFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.DocumentsConfig
		wantErr bool
	}{
		{name: "memory", cfg: config.DocumentsConfig{Type: "memory"}},
		{name: "filesystem", cfg: config.DocumentsConfig{Type: "filesystem", Root: t.TempDir()}},
		{name: "filesystem without root", cfg: config.DocumentsConfig{Type: "filesystem"}, wantErr: true},
		{name: "s3 without bucket", cfg: config.DocumentsConfig{Type: "s3"}, wantErr: true},
		{name: "unknown", cfg: config.DocumentsConfig{Type: "ftp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDocumentStoreFromConfig(context.Background(), tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got == nil {
				t.Error("store is nil")
			}
		})
	}
}

func TestNewDocumentStoreFromConfig_WrapsWithEncryption(t *testing.T) {
	got, err := NewDocumentStoreFromConfig(context.Background(), config.DocumentsConfig{Type: "memory"}, encryption.NewMarkerEncryptor())
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if _, ok := got.(*EncryptedStore); !ok {
		t.Errorf("store = %T, want *EncryptedStore", got)
	}
}
