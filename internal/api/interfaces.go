// interfaces.go - Application surface the HTTP handlers depend on
package api

import (
	"io"

	"cand-go/internal/cand"
	"cand-go/internal/model"
)

// Backend is the application surface the HTTP API drives.
// *app.CandApp satisfies it.
type Backend interface {
	Table() (*model.Table, error)
	Filter(c cand.Criteria) ([]model.Row, cand.FilterOptions, error)
	StatusSummary(c cand.Criteria, grouped bool) ([]cand.StatusCount, error)
	Import(r io.Reader, filename string, headerRow int) (int, error)
	InsertRecord(fields map[string]string) (int, error)
	UpdateRecord(index int, fields map[string]string) error
	DeleteRecord(index int) error
	Reset(secret string, confirmed bool) error

	DocumentFolder(index int) (string, error)
	UploadDocument(index int, key string, r io.Reader, size int64, fileName string) (string, error)
	ListDocuments(index int) ([]string, error)
	DownloadDocument(index int, fileName string, w io.Writer) error
	DeleteDocument(index int, fileName string) error
}
