package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"cand-go/internal/cand"
	"cand-go/internal/config"
	"cand-go/internal/database"
	"cand-go/internal/documents"
	"cand-go/internal/encryption"
	"cand-go/internal/model"
	"cand-go/internal/spreadsheet"
)

// setupValidator is implemented by document stores that can check their
// backing location before first use.
type setupValidator interface {
	ValidateSetup() error
}

// ErrEncryptionDisabled is returned by Unlock when documents are stored in plaintext.
var ErrEncryptionDisabled = errors.New("document encryption is not configured")

// CandApp is the application layer between the CLI/HTTP API and cand.Service.
// It constructs all dependencies from config, records every mutating call in
// the operations table, and manages the store lifecycle on Close.
type CandApp struct {
	cfg       *config.Config
	store     *database.SQLStore
	documents cand.DocumentStore
	encryptor cand.Encryptor
	service   *cand.Service
	logger    *slog.Logger
	logFile   *os.File
	opID      string
}

// NewCandApp creates a fully wired CandApp from the given config.
// command identifies the CLI command being run and is attached to every log line.
// The caller must call Close when done.
func NewCandApp(cfg *config.Config, command string) (*CandApp, error) {
	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	if err := store.CheckMigrations(); err != nil {
		store.Close()
		return nil, fmt.Errorf("database schema out of date (run `cand migrate`): %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	if enc != nil && !enc.IsConfigured() {
		store.Close()
		return nil, fmt.Errorf("encryption is enabled but no keys exist (run `cand config keys`)")
	}

	docs, err := documents.NewDocumentStoreFromConfig(context.Background(), cfg.Documents, enc)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating document store: %w", err)
	}
	if v, ok := docs.(setupValidator); ok {
		if err := v.ValidateSetup(); err != nil {
			store.Close()
			return nil, fmt.Errorf("checking document store: %w", err)
		}
	}

	opID := uuid.NewString()[:8]
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger = logger.With("command", command)

	gate := cand.NewResetGate(cfg.Reset.Secret)
	svc := cand.NewService(store, docs, gate, &slogAdapter{l: logger})

	return &CandApp{
		cfg:       cfg,
		store:     store,
		documents: docs,
		encryptor: enc,
		service:   svc,
		logger:    logger,
		logFile:   logFile,
		opID:      opID,
	}, nil
}

// Migrate applies pending schema migrations to the configured database.
func Migrate(cfg *config.Config) error {
	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("creating store: %w", err)
	}
	defer store.Close()

	if err := store.MigrateUp(); err != nil {
		return fmt.Errorf("migrating: %w", err)
	}
	return nil
}

// SetupEncryption generates the document encryption key pair.
func SetupEncryption(cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return err
	}
	if enc == nil {
		return ErrEncryptionDisabled
	}
	return enc.Setup(passphrase)
}

// track persists op, runs fn and records its outcome. A failure to finish the
// record is logged, not returned, so it never masks fn's result.
func (a *CandApp) track(op *Operation, fn func() error) error {
	dbOp, err := a.store.CreateOperation(op.Operation, op.Parameters)
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	op.ID = dbOp.ID

	fnErr := fn()
	op.Finish(fnErr)

	if op.Persisted() {
		if err := a.store.FinishOperation(op.ID, op.Status); err != nil {
			a.logger.Error("finishing operation", "id", op.ID, "error", err)
		}
	}
	return fnErr
}

// Import reads a spreadsheet and replaces the candidate table with its contents.
// headerRow is the 0-based row holding the column names.
func (a *CandApp) Import(r io.Reader, filename string, headerRow int) (int, error) {
	var n int
	err := a.track(NewOperation("Import", filename), func() error {
		grid, err := spreadsheet.ReadRows(r, filename)
		if err != nil {
			return err
		}
		n, err = a.service.Import(grid, cand.NormalizeOptions{HeaderRow: headerRow})
		return err
	})
	return n, err
}

// ImportFile opens path and imports it.
func (a *CandApp) ImportFile(path string, headerRow int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer f.Close()
	return a.Import(f, filepath.Base(path), headerRow)
}

// Table returns the stored candidate table.
func (a *CandApp) Table() (*model.Table, error) {
	return a.service.Table()
}

// Filter returns the rows matching c and the selectable filter values.
func (a *CandApp) Filter(c cand.Criteria) ([]model.Row, cand.FilterOptions, error) {
	return a.service.Filter(c)
}

// StatusSummary counts canonical statuses of the rows matching c.
func (a *CandApp) StatusSummary(c cand.Criteria, grouped bool) ([]cand.StatusCount, error) {
	return a.service.StatusSummary(c, grouped)
}

func (a *CandApp) InsertRecord(fields map[string]string) (int, error) {
	var index int
	err := a.track(NewOperation("InsertRecord"), func() error {
		var err error
		index, err = a.service.InsertRecord(fields)
		return err
	})
	return index, err
}

func (a *CandApp) UpdateRecord(index int, fields map[string]string) error {
	return a.track(NewOperation("UpdateRecord", strconv.Itoa(index)), func() error {
		return a.service.UpdateRecord(index, fields)
	})
}

func (a *CandApp) DeleteRecord(index int) error {
	return a.track(NewOperation("DeleteRecord", strconv.Itoa(index)), func() error {
		return a.service.DeleteRecord(index)
	})
}

// Reset truncates the candidate table. The secret is never recorded.
func (a *CandApp) Reset(secret string, confirmed bool) error {
	return a.track(NewOperation("Reset"), func() error {
		return a.service.Reset(secret, confirmed)
	})
}

func (a *CandApp) DocumentFolder(index int) (string, error) {
	return a.service.DocumentFolder(index)
}

func (a *CandApp) UploadDocument(index int, key string, r io.Reader, size int64, fileName string) (string, error) {
	var path string
	err := a.track(NewOperation("UploadDocument", strconv.Itoa(index), key), func() error {
		var err error
		path, err = a.service.UploadDocument(index, key, r, size, fileName)
		return err
	})
	return path, err
}

func (a *CandApp) ListDocuments(index int) ([]string, error) {
	return a.service.ListDocuments(index)
}

func (a *CandApp) DownloadDocument(index int, fileName string, w io.Writer) error {
	return a.service.DownloadDocument(index, fileName, w)
}

func (a *CandApp) DeleteDocument(index int, fileName string) error {
	return a.track(NewOperation("DeleteDocument", strconv.Itoa(index), fileName), func() error {
		return a.service.DeleteDocument(index, fileName)
	})
}

// EncryptionEnabled reports whether documents are encrypted at rest.
func (a *CandApp) EncryptionEnabled() bool {
	return a.encryptor != nil
}

// Unlock makes encrypted documents readable for the rest of the app's lifetime.
func (a *CandApp) Unlock(passphrase string) error {
	es, ok := a.documents.(*documents.EncryptedStore)
	if !ok {
		return ErrEncryptionDisabled
	}
	if err := es.Unlock(passphrase); err != nil {
		return fmt.Errorf("unlocking documents: %w", err)
	}
	a.logger.Info("documents unlocked")
	return nil
}

// History returns the most recent operations, newest first.
func (a *CandApp) History(limit int) ([]*model.Operation, error) {
	return a.store.ListOperations(limit)
}

// Backup writes a consistent snapshot of the database to dest.
func (a *CandApp) Backup(dest string) error {
	if err := a.store.BackupTo(dest); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	a.logger.Info("database backed up", "dest", dest)
	return nil
}

// Logger returns the app's structured logger.
func (a *CandApp) Logger() *slog.Logger {
	return a.logger
}

// Close closes the store and the log file.
func (a *CandApp) Close() error {
	var firstErr error
	if err := a.store.Close(); err != nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
