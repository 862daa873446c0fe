package testutil

import (
	"testing"

	"cand-go/internal/documents"
)

// NewTestDocuments creates a new in-memory document store for testing.
func NewTestDocuments() *documents.MemoryStore {
	return documents.NewMemoryStore()
}

// NewTestFileDocuments creates a filesystem document store under a temp dir.
func NewTestFileDocuments(t *testing.T) *documents.FileSystemStore {
	t.Helper()
	s, err := documents.NewFileSystemStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create document store: %v", err)
	}
	return s
}
