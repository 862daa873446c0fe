package documents

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewFileSystemStore(t *testing.T) {
	root := filepath.Join(t.TempDir(), "datos")

	s, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "documentos")); err != nil {
		t.Errorf("documentos directory not created: %v", err)
	}
	if err := s.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}
}

func TestFileSystemStore_ValidateSetup(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	baseDir := filepath.Join(root, "documentos")
	if err := os.RemoveAll(baseDir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(baseDir, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.ValidateSetup(); err == nil {
		t.Error("ValidateSetup() expected error when documents path is a file")
	}
}

func TestFileSystemStore_Layout(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	path, err := s.Store("7", "MX03 - Comprobante Domicilio", strings.NewReader("luz"), 3, "pdf")
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	want := filepath.Join(root, "documentos", "7", "MX03 - Comprobante Domicilio.pdf")
	if path != want {
		t.Errorf("Store() path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "luz" {
		t.Errorf("file content = %q, want luz", data)
	}
}

func TestFileSystemStore_List_SkipsTempFilesAndDirs(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	dir, err := s.EnsureFolder("2")
	if err != nil {
		t.Fatalf("EnsureFolder() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".tmp-12345"), []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Contrato.pdf"), []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}

	names, err := s.List("2")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(names) != 1 || names[0] != "Contrato.pdf" {
		t.Errorf("List() = %v, want [Contrato.pdf]", names)
	}
}

func TestFileSystemStore_FailedWriteLeavesNoTempFile(t *testing.T) {
	root := t.TempDir()
	s, err := NewFileSystemStore(root)
	if err != nil {
		t.Fatalf("NewFileSystemStore() error = %v", err)
	}

	if _, err := s.Store("5", "MX04 - CURP", strings.NewReader("abc"), 99, "pdf"); err == nil {
		t.Fatal("Store() expected size mismatch error")
	}

	entries, err := os.ReadDir(filepath.Join(root, "documentos", "5"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("folder has %d entries after failed write, want 0", len(entries))
	}
}
