package model

import "time"

// Candidate table column names used when no spreadsheet has been imported yet
// and by the insert form.
const (
	ColAgency           = "AGENCIA"
	ColRole             = "PUESTO"
	ColName             = "NOMBRE"
	ColAge              = "EDAD"
	ColPhone            = "TELEFONO"
	ColPreviousJob      = "TRABAJO ANTERIOR"
	ColRecruitingSource = "FUENTE DE RECLUTAMIENTO"
	ColInterview        = "ENTREVISTA"
	ColMedicalTest      = "PRUEBA MEDICA"
	ColDrivingTest      = "PRUEBA DE MANEJO"
	ColComments         = "COMENTARIOS"
	ColStatus           = "ESTATUS"
	ColRejectionReason  = "MOTIVO DE RECHAZO"
)

// DefaultColumns returns the standard candidate column set in display order.
func DefaultColumns() []string {
	return []string{
		ColAgency, ColRole, ColName, ColAge, ColPhone, ColPreviousJob,
		ColRecruitingSource, ColInterview, ColMedicalTest, ColDrivingTest,
		ColComments, ColStatus, ColRejectionReason,
	}
}

// Record is one candidate row keyed by column name.
// A missing key and an empty string are treated the same.
type Record map[string]string

// Table is the whole candidate relation: a fixed column order plus records
// in storage order. A record's identity is its index in Records.
type Table struct {
	Columns []string
	Records []Record
}

// NewTable returns an empty table with the given columns.
func NewTable(columns []string) *Table {
	return &Table{Columns: append([]string(nil), columns...), Records: []Record{}}
}

// HasColumn reports whether name is part of the table's column set.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Row is a record together with its positional identity.
type Row struct {
	Index  int    `json:"index"`
	Record Record `json:"record"`
}

// Operation is a recorded CLI or API operation that mutated the store.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string
}
