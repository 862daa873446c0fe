package cand

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"cand-go/internal/model"
)

// Service is the orchestration layer the CLI and HTTP API call into. It owns no
// state of its own: the Record Store and the Document Store are the sources of truth.
type Service struct {
	records   RecordStore
	documents DocumentStore
	gate      *ResetGate
	logger    Logger
}

// NewService creates a Service with the provided dependencies.
func NewService(records RecordStore, documents DocumentStore, gate *ResetGate, logger Logger) *Service {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Service{
		records:   records,
		documents: documents,
		gate:      gate,
		logger:    logger,
	}
}

// Import normalizes a raw sheet grid and replaces the whole stored table with it.
// An empty grid returns ErrEmptyInput and leaves the store untouched.
// Returns the number of records imported.
func (s *Service) Import(grid [][]string, opts NormalizeOptions) (int, error) {
	table, err := Normalize(grid, opts)
	if err != nil {
		if errors.Is(err, ErrEmptyInput) {
			s.logger.Warn("import skipped: sheet is empty")
		}
		return 0, err
	}

	if err := s.records.ReplaceAll(table); err != nil {
		return 0, fmt.Errorf("saving imported table: %w", err)
	}

	s.logger.Info("table imported", "records", len(table.Records), "columns", len(table.Columns))
	return len(table.Records), nil
}

// Table returns the stored table. Before the first import it has the default columns.
func (s *Service) Table() (*model.Table, error) {
	t, err := s.records.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	if len(t.Columns) == 0 {
		t.Columns = model.DefaultColumns()
	}
	return t, nil
}

// Filter reads the table and returns the rows matching c, along with the
// selectable options computed from the same snapshot.
func (s *Service) Filter(c Criteria) ([]model.Row, FilterOptions, error) {
	t, err := s.Table()
	if err != nil {
		return nil, FilterOptions{}, err
	}
	return Apply(t.Records, c), Options(t.Records, c), nil
}

// Mutate runs a read-modify-write cycle: read the whole table, let fn change it
// in memory, then replace the stored table with the result. If fn returns an
// error nothing is written.
//
// There is no isolation across the cycle. When two callers read before either
// writes, the second write silently replaces the first one's changes.
func (s *Service) Mutate(fn func(t *model.Table) error) error {
	t, err := s.Table()
	if err != nil {
		return err
	}
	if err := fn(t); err != nil {
		return err
	}
	if err := s.records.ReplaceAll(t); err != nil {
		return fmt.Errorf("saving table: %w", err)
	}
	return nil
}

// UpdateRecord sets fields on the record at index. EDAD is validated and stored
// as a plain integer. Unknown columns are rejected since the schema is fixed.
func (s *Service) UpdateRecord(index int, fields map[string]string) error {
	err := s.Mutate(func(t *model.Table) error {
		if index < 0 || index >= len(t.Records) {
			return &NotFoundError{Resource: "candidate", ID: strconv.Itoa(index)}
		}
		clean, err := cleanFields(t, fields)
		if err != nil {
			return err
		}
		rec := t.Records[index]
		if rec == nil {
			rec = make(model.Record)
			t.Records[index] = rec
		}
		for k, v := range clean {
			rec[k] = v
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("candidate updated", "index", index, "fields", len(fields))
	return nil
}

// InsertRecord appends a new record and returns its index. Columns not given are
// left empty, except EDAD, which is required whenever the table has it.
func (s *Service) InsertRecord(fields map[string]string) (int, error) {
	var index int
	err := s.Mutate(func(t *model.Table) error {
		clean, err := cleanFields(t, fields)
		if err != nil {
			return err
		}
		if _, ok := clean[model.ColAge]; !ok && t.HasColumn(model.ColAge) {
			return &InvalidAgeError{Value: ""}
		}
		rec := make(model.Record, len(t.Columns))
		for _, c := range t.Columns {
			rec[c] = clean[c]
		}
		t.Records = append(t.Records, rec)
		index = len(t.Records) - 1
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("candidate inserted", "index", index)
	return index, nil
}

// DeleteRecord removes the record at index. Every later record moves down by one,
// so indices held by callers are stale afterwards.
func (s *Service) DeleteRecord(index int) error {
	err := s.Mutate(func(t *model.Table) error {
		if index < 0 || index >= len(t.Records) {
			return &NotFoundError{Resource: "candidate", ID: strconv.Itoa(index)}
		}
		t.Records = append(t.Records[:index], t.Records[index+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("candidate deleted", "index", index)
	return nil
}

// Reset truncates the table when secret passes the reset gate and confirmed is true.
func (s *Service) Reset(secret string, confirmed bool) error {
	if err := s.gate.Check(secret); err != nil {
		s.logger.Warn("reset refused: wrong secret")
		return err
	}
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := s.records.DeleteAll(); err != nil {
		return fmt.Errorf("deleting all candidates: %w", err)
	}

	s.logger.Warn("all candidates deleted")
	return nil
}

// StatusSummary counts canonical statuses of the records matching c.
func (s *Service) StatusSummary(c Criteria, grouped bool) ([]StatusCount, error) {
	rows, _, err := s.Filter(c)
	if err != nil {
		return nil, err
	}
	return CountStatuses(rowsToRecords(rows), grouped), nil
}

// cleanFields checks field names against the table schema and normalizes EDAD.
func cleanFields(t *model.Table, fields map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if !t.HasColumn(k) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, k)
		}
		if k == model.ColAge {
			age, err := ParseAge(v)
			if err != nil {
				return nil, err
			}
			v = strconv.Itoa(age)
		}
		out[k] = v
	}
	return out, nil
}

// Document operations. These are keyed only by candidate index and never touch
// the Record Store.

func candidateID(index int) (string, error) {
	if index < 0 {
		return "", &NotFoundError{Resource: "candidate", ID: strconv.Itoa(index)}
	}
	return strconv.Itoa(index), nil
}

// DocumentFolder ensures the candidate's document folder exists and returns it.
func (s *Service) DocumentFolder(index int) (string, error) {
	id, err := candidateID(index)
	if err != nil {
		return "", err
	}
	return s.documents.EnsureFolder(id)
}

// UploadDocument stores an uploaded file as the candidate's document of type key.
// The extension is taken from fileName and must be pdf or docx.
func (s *Service) UploadDocument(index int, key string, r io.Reader, size int64, fileName string) (string, error) {
	id, err := candidateID(index)
	if err != nil {
		return "", err
	}
	if !ValidDocumentType(key) {
		return "", fmt.Errorf("%w: %q", ErrUnknownDocumentType, key)
	}
	ext, err := DocumentExtension(fileName)
	if err != nil {
		return "", err
	}

	if _, err := s.documents.EnsureFolder(id); err != nil {
		return "", err
	}
	path, err := s.documents.Store(id, key, r, size, ext)
	if err != nil {
		return "", err
	}

	s.logger.Info("document stored", "candidate", id, "type", key, "size", size)
	return path, nil
}

// ListDocuments returns the candidate's document file names, sorted.
func (s *Service) ListDocuments(index int) ([]string, error) {
	id, err := candidateID(index)
	if err != nil {
		return nil, err
	}
	names, err := s.documents.List(id)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// DownloadDocument writes the named document to w.
func (s *Service) DownloadDocument(index int, fileName string, w io.Writer) error {
	id, err := candidateID(index)
	if err != nil {
		return err
	}
	return s.documents.Open(id, fileName, w)
}

// DeleteDocument removes the named document from the candidate's folder.
func (s *Service) DeleteDocument(index int, fileName string) error {
	id, err := candidateID(index)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(id, fileName); err != nil {
		return err
	}

	s.logger.Info("document deleted", "candidate", id, "file", fileName)
	return nil
}
