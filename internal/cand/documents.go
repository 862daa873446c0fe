package cand

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// DocumentStore maps a candidate identity to a folder and manages the files in it.
// The storage location is the only record of which documents exist.
type DocumentStore interface {
	// EnsureFolder creates the candidate's folder if needed and returns its location.
	EnsureFolder(candidateID string) (string, error)

	// Store writes size bytes from r to {folder}/{key}.{ext}, replacing any file
	// already at that path. Content and extension are not validated here.
	Store(candidateID, key string, r io.Reader, size int64, ext string) (string, error)

	// List returns the names of the files in the candidate's folder. A candidate
	// with no uploads yields an empty slice.
	List(candidateID string) ([]string, error)

	// Open writes the named file's content to w.
	Open(candidateID, fileName string, w io.Writer) error

	// Delete removes the named file, returning a *NotFoundError if it does not exist.
	Delete(candidateID, fileName string) error
}

// DocumentTypes is the fixed document vocabulary, in upload-form order.
var DocumentTypes = []string{
	"MX01 - Acta",
	"MX02 - Clabe Interbancaria",
	"MX03 - Comprobante Domicilio",
	"MX04 - CURP",
	"MX05 - RFC",
	"MX06 - IMSS",
	"Contrato",
}

// DocumentExtensions are the accepted upload formats.
var DocumentExtensions = []string{"pdf", "docx"}

// ValidDocumentType reports whether key belongs to the document vocabulary.
func ValidDocumentType(key string) bool {
	for _, k := range DocumentTypes {
		if k == key {
			return true
		}
	}
	return false
}

// DocumentExtension extracts and checks the extension of an uploaded file name.
// The result is lower-cased and has no leading dot.
func DocumentExtension(fileName string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	for _, allowed := range DocumentExtensions {
		if ext == allowed {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: %q (accepted: %s)", ErrUnsupportedExtension, fileName, strings.Join(DocumentExtensions, ", "))
}

// ValidatePathSegment rejects names that could escape a candidate folder.
func ValidatePathSegment(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
