package cand

import (
	"fmt"
	"strconv"
	"strings"

	"cand-go/internal/model"
)

const (
	MinAge = 0
	MaxAge = 100
)

// NormalizeOptions controls how a raw sheet grid becomes a table.
type NormalizeOptions struct {
	// HeaderRow is the 0-based row holding the column names. Rows above it are discarded.
	HeaderRow int
}

// Normalize turns a raw grid of cells into a table. The header row becomes the
// column names and every later row becomes a record mapped positionally.
//
// Header cells are trimmed and blank headers are named COLUMNA_<n>. Short rows are
// padded with empty values, cells past the last header are dropped, and rows with
// no non-blank cell are skipped. Values are otherwise kept as-is.
func Normalize(grid [][]string, opts NormalizeOptions) (*model.Table, error) {
	if opts.HeaderRow < 0 {
		return nil, fmt.Errorf("header row must not be negative: %d", opts.HeaderRow)
	}
	if len(grid) <= opts.HeaderRow {
		return nil, ErrEmptyInput
	}

	header := grid[opts.HeaderRow]
	if isBlankRow(header) {
		return nil, ErrEmptyInput
	}

	columns, err := headerColumns(header)
	if err != nil {
		return nil, err
	}

	table := model.NewTable(columns)
	for _, row := range grid[opts.HeaderRow+1:] {
		if isBlankRow(row) {
			continue
		}
		rec := make(model.Record, len(columns))
		for i, col := range columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		table.Records = append(table.Records, rec)
	}

	return table, nil
}

// headerColumns names the columns of a header row. Names are compared
// case-insensitively, as SQL identifiers are; a repeated name is an error and
// generated names for blank cells skip any name already taken.
func headerColumns(header []string) ([]string, error) {
	columns := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if name == "" {
			continue
		}
		key := strings.ToUpper(name)
		if taken[key] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		taken[key] = true
		columns[i] = name
	}

	for i := range columns {
		if columns[i] != "" {
			continue
		}
		name := fmt.Sprintf("COLUMNA_%d", i+1)
		for n := 2; taken[strings.ToUpper(name)]; n++ {
			name = fmt.Sprintf("COLUMNA_%d_%d", i+1, n)
		}
		taken[strings.ToUpper(name)] = true
		columns[i] = name
	}
	return columns, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ParseAge coerces an EDAD value to an integer in [MinAge, MaxAge].
// Only plain decimal digits are accepted, optionally followed by a fraction of
// zeros such as "30.0".
func ParseAge(text string) (int, error) {
	s := strings.TrimSpace(text)
	whole, frac, hasFrac := strings.Cut(s, ".")
	if !isDigits(whole) || (hasFrac && (frac == "" || strings.Trim(frac, "0") != "")) {
		return 0, &InvalidAgeError{Value: text}
	}

	n, err := strconv.Atoi(whole)
	if err != nil || n < MinAge || n > MaxAge {
		return 0, &InvalidAgeError{Value: text}
	}
	return n, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
