package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cand-go/internal/cand"
	"cand-go/internal/model"
)

// TableName is the relation holding the candidate table.
const TableName = "candidatos"

// positionColumn stores each record's index so reads return storage order on every dialect.
const positionColumn = "_fila"

// SQLStore implements cand.RecordStore and cand.OperationLog over database/sql.
// The candidate relation is recreated on every ReplaceAll with one TEXT column per
// table column, so the stored schema always mirrors the last imported sheet.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	path    string
}

// dialect holds the few statements that differ between SQL engines.
type dialect struct {
	name             string // golang-migrate database name
	placeholder      func(n int) string
	tableExistsQuery string
}

// NewSQLStoreFromDB wraps an existing connection. The caller is responsible for
// configuring the connection and applying migrations.
func NewSQLStoreFromDB(db *sql.DB, d dialect, path string) *SQLStore {
	return &SQLStore{db: db, dialect: d, path: path}
}

// quoteIdent quotes a column name so any spreadsheet header is a valid identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func validateColumns(columns []string) error {
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c == positionColumn {
			return fmt.Errorf("column name %q is reserved", c)
		}
		if seen[c] {
			return fmt.Errorf("duplicate column name %q", c)
		}
		seen[c] = true
	}
	return nil
}

// ReplaceAll drops and recreates the candidate relation and inserts every record,
// all in one transaction. Any failure rolls back and leaves the prior table intact.
func (s *SQLStore) ReplaceAll(t *model.Table) error {
	if err := validateColumns(t.Columns); err != nil {
		return &cand.PersistenceError{Op: "replace all", Err: err}
	}
	if err := s.replaceAll(t); err != nil {
		return &cand.PersistenceError{Op: "replace all", Err: err}
	}
	return nil
}

func (s *SQLStore) replaceAll(t *model.Table) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DROP TABLE IF EXISTS " + TableName); err != nil {
		return fmt.Errorf("dropping table: %w", err)
	}

	defs := []string{positionColumn + " INTEGER NOT NULL"}
	names := []string{positionColumn}
	for _, c := range t.Columns {
		defs = append(defs, quoteIdent(c)+" TEXT")
		names = append(names, quoteIdent(c))
	}

	create := fmt.Sprintf("CREATE TABLE %s (%s)", TableName, strings.Join(defs, ", "))
	if _, err := tx.Exec(create); err != nil {
		return fmt.Errorf("creating table: %w", err)
	}

	marks := make([]string, len(names))
	for i := range marks {
		marks[i] = s.dialect.placeholder(i + 1)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		TableName, strings.Join(names, ", "), strings.Join(marks, ", "))

	stmt, err := tx.Prepare(insert)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range t.Records {
		args := make([]any, 0, len(names))
		args = append(args, i)
		for _, c := range t.Columns {
			args = append(args, rec[c])
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ReadAll returns the stored table in storage order. A missing relation yields an
// empty table with no columns.
func (s *SQLStore) ReadAll() (*model.Table, error) {
	exists, err := s.tableExists()
	if err != nil {
		return nil, &cand.PersistenceError{Op: "read all", Err: err}
	}
	if !exists {
		return model.NewTable(nil), nil
	}

	t, err := s.readAll()
	if err != nil {
		return nil, &cand.PersistenceError{Op: "read all", Err: err}
	}
	return t, nil
}

func (s *SQLStore) readAll() (*model.Table, error) {
	rows, err := s.db.Query(fmt.Sprintf("SELECT * FROM %s ORDER BY %s", TableName, positionColumn))
	if err != nil {
		return nil, fmt.Errorf("querying table: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	t := model.NewTable(nil)
	for _, c := range cols {
		if c != positionColumn {
			t.Columns = append(t.Columns, c)
		}
	}

	values := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec := make(model.Record, len(t.Columns))
		for i, c := range cols {
			if c == positionColumn {
				continue
			}
			rec[c] = values[i].String
		}
		t.Records = append(t.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return t, nil
}

// DeleteAll removes every record and keeps the columns. It is a no-op when the
// relation does not exist.
func (s *SQLStore) DeleteAll() error {
	exists, err := s.tableExists()
	if err != nil {
		return &cand.PersistenceError{Op: "delete all", Err: err}
	}
	if !exists {
		return nil
	}
	if _, err := s.db.Exec("DELETE FROM " + TableName); err != nil {
		return &cand.PersistenceError{Op: "delete all", Err: err}
	}
	return nil
}

func (s *SQLStore) tableExists() (bool, error) {
	var n int
	if err := s.db.QueryRow(s.dialect.tableExistsQuery, TableName).Scan(&n); err != nil {
		return false, fmt.Errorf("checking for table: %w", err)
	}
	return n > 0, nil
}

// Operation tracking

func (s *SQLStore) CreateOperation(operation, parameters string) (*model.Operation, error) {
	op := &model.Operation{
		Operation:  operation,
		Parameters: parameters,
		StartedAt:  time.Now().UTC(),
		Status:     "running",
	}

	query := fmt.Sprintf(
		"INSERT INTO operations (operation, parameters, started_at, status) VALUES (%s, %s, %s, %s) RETURNING id",
		s.dialect.placeholder(1), s.dialect.placeholder(2), s.dialect.placeholder(3), s.dialect.placeholder(4))
	if err := s.db.QueryRow(query, op.Operation, op.Parameters, op.StartedAt, op.Status).Scan(&op.ID); err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	return op, nil
}

func (s *SQLStore) FinishOperation(id int64, status string) error {
	query := fmt.Sprintf("UPDATE operations SET finished_at = %s, status = %s WHERE id = %s",
		s.dialect.placeholder(1), s.dialect.placeholder(2), s.dialect.placeholder(3))
	res, err := s.db.Exec(query, time.Now().UTC(), status, id)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finishing operation: %w", &cand.NotFoundError{Resource: "operation", ID: fmt.Sprint(id)})
	}
	return nil
}

func (s *SQLStore) ListOperations(limit int) ([]*model.Operation, error) {
	query := fmt.Sprintf(
		"SELECT id, operation, parameters, started_at, finished_at, status FROM operations ORDER BY id DESC LIMIT %s",
		s.dialect.placeholder(1))
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	ops := []*model.Operation{}
	for rows.Next() {
		op := &model.Operation{}
		var finished sql.NullTime
		if err := rows.Scan(&op.ID, &op.Operation, &op.Parameters, &op.StartedAt, &finished, &op.Status); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			op.FinishedAt = &t
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// Path returns the database file path, ":memory:", or the DSN for postgres.
func (s *SQLStore) Path() string {
	return s.path
}

// BackupTo writes a complete copy of a sqlite database to destPath using VACUUM INTO.
func (s *SQLStore) BackupTo(destPath string) error {
	if s.dialect.name != sqliteDialect.name {
		return errors.New("backup is only supported for sqlite databases")
	}
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// DB exposes the underlying connection for migrations.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var (
	_ cand.RecordStore  = (*SQLStore)(nil)
	_ cand.OperationLog = (*SQLStore)(nil)
)
