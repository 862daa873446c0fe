package documents

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"cand-go/internal/cand"
)

// MemoryStore is an in-memory DocumentStore for tests and throwaway runs.
// This implementation is safe for concurrent use.
type MemoryStore struct {
	folders map[string]map[string][]byte // candidateID -> file name -> content
	mu      sync.RWMutex
}

// NewMemoryStore creates an empty in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		folders: make(map[string]map[string][]byte),
	}
}

func (m *MemoryStore) EnsureFolder(candidateID string) (string, error) {
	if err := cand.ValidatePathSegment(candidateID); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.folders[candidateID]; !ok {
		m.folders[candidateID] = make(map[string][]byte)
	}
	return folderName + "/" + candidateID, nil
}

func (m *MemoryStore) Store(candidateID, key string, r io.Reader, size int64, ext string) (string, error) {
	name := key + "." + ext
	if err := cand.ValidatePathSegment(name); err != nil {
		return "", err
	}
	dir, err := m.EnsureFolder(candidateID)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.folders[candidateID][name] = data
	return dir + "/" + name, nil
}

// List returns file names sorted, since map iteration order is random.
func (m *MemoryStore) List(candidateID string) ([]string, error) {
	if err := cand.ValidatePathSegment(candidateID); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	names := []string{}
	for name := range m.folders[candidateID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryStore) Open(candidateID, fileName string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.folders[candidateID][fileName]
	if !ok {
		return &cand.NotFoundError{Resource: "document", ID: candidateID + "/" + fileName}
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

func (m *MemoryStore) Delete(candidateID, fileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.folders[candidateID][fileName]; !ok {
		return &cand.NotFoundError{Resource: "document", ID: candidateID + "/" + fileName}
	}
	delete(m.folders[candidateID], fileName)
	return nil
}

var _ cand.DocumentStore = (*MemoryStore)(nil)
