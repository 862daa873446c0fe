package documents

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cand-go/internal/cand"
)

// folderName is the directory under the root that holds one folder per candidate.
const folderName = "documentos"

// tmpPrefix marks in-progress writes; List skips them.
const tmpPrefix = ".tmp-"

// FileSystemStore keeps candidate documents in a directory tree:
//
//	<root>/
//	  documentos/
//	    <candidateID>/
//	      <documentType>.<ext>
type FileSystemStore struct {
	root    string
	baseDir string
}

// NewFileSystemStore creates a document store rooted at the given path.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	baseDir := filepath.Join(root, folderName)
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, &cand.FilesystemError{Op: "create", Path: baseDir, Err: err}
	}

	return &FileSystemStore{
		root:    root,
		baseDir: baseDir,
	}, nil
}

func (s *FileSystemStore) folder(candidateID string) (string, error) {
	if err := cand.ValidatePathSegment(candidateID); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, candidateID), nil
}

// EnsureFolder creates the candidate's folder if it does not exist and returns its path.
func (s *FileSystemStore) EnsureFolder(candidateID string) (string, error) {
	dir, err := s.folder(candidateID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &cand.FilesystemError{Op: "create", Path: dir, Err: err}
	}
	return dir, nil
}

// Store writes the document to {folder}/{key}.{ext}, replacing any previous file.
func (s *FileSystemStore) Store(candidateID, key string, r io.Reader, size int64, ext string) (string, error) {
	name := key + "." + ext
	if err := cand.ValidatePathSegment(name); err != nil {
		return "", err
	}
	dir, err := s.EnsureFolder(candidateID)
	if err != nil {
		return "", err
	}

	destPath := filepath.Join(dir, name)
	if err := writeFile(destPath, r, size); err != nil {
		return "", &cand.FilesystemError{Op: "write", Path: destPath, Err: err}
	}
	return destPath, nil
}

// List returns the file names in the candidate's folder in directory order.
// A missing folder yields an empty slice.
func (s *FileSystemStore) List(candidateID string) ([]string, error) {
	dir, err := s.folder(candidateID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, &cand.FilesystemError{Op: "list", Path: dir, Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), tmpPrefix) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// Open writes the named document's content to w.
func (s *FileSystemStore) Open(candidateID, fileName string, w io.Writer) error {
	path, err := s.filePath(candidateID, fileName)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cand.NotFoundError{Resource: "document", ID: candidateID + "/" + fileName}
		}
		return &cand.FilesystemError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return &cand.FilesystemError{Op: "read", Path: path, Err: err}
	}
	return nil
}

// Delete removes the named document.
func (s *FileSystemStore) Delete(candidateID, fileName string) error {
	path, err := s.filePath(candidateID, fileName)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cand.NotFoundError{Resource: "document", ID: candidateID + "/" + fileName}
		}
		return &cand.FilesystemError{Op: "delete", Path: path, Err: err}
	}
	return nil
}

func (s *FileSystemStore) filePath(candidateID, fileName string) (string, error) {
	dir, err := s.folder(candidateID)
	if err != nil {
		return "", err
	}
	if err := cand.ValidatePathSegment(fileName); err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// ValidateSetup verifies that the documents directory is accessible.
func (s *FileSystemStore) ValidateSetup() error {
	info, err := os.Stat(s.baseDir)
	if err != nil {
		return fmt.Errorf("documents directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("documents path is not a directory: %s", s.baseDir)
	}
	return nil
}

// writeFile writes data from r to destPath using a temp file and rename, so
// readers never observe a partially written document.
func writeFile(destPath string, r io.Reader, expectedSize int64) error {
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

var _ cand.DocumentStore = (*FileSystemStore)(nil)
