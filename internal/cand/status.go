package cand

import (
	"sort"
	"strings"

	"cand-go/internal/model"
)

const (
	StatusNone  = "SIN ESTATUS"
	StatusOther = "OTROS"
)

// statusCorrections maps frequent misspellings and unaccented variants to their canonical form.
var statusCorrections = map[string]string{
	"RECHAZDO":          "RECHAZADO",
	"NO ASISTIO A CITA": "NO ASISTIÓ A CITA",
	"NO CONTESTA":       "NO CONTESTÓ",
}

// knownStatuses is the reporting allow-list. Anything else is bucketed as OTROS.
var knownStatuses = map[string]bool{
	"CONTRATADO":        true,
	"RECHAZADO":         true,
	"NO APTO":           true,
	"BAJA":              true,
	"EN BANCA":          true,
	"EN PROCESO":        true,
	"PENDIENTE":         true,
	"NO ASISTIÓ A CITA": true,
	"NO CONTESTÓ":       true,
	StatusNone:          true,
}

var statusColors = map[string]string{
	"CONTRATADO":        "#00FF00",
	"RECHAZADO":         "#FF0000",
	"NO APTO":           "#ff9900",
	"BAJA":              "#990000",
	"EN BANCA":          "#0000FF",
	"EN PROCESO":        "#9900FF",
	"PENDIENTE":         "#FFFF00",
	"NO ASISTIÓ A CITA": "#ff66cc",
	"NO CONTESTÓ":       "#ffcc00",
	StatusNone:          "#999999",
	StatusOther:         "#cccccc",
}

const defaultStatusColor = "#cccccc"

// rowHighlights colors table rows by their raw (trimmed, upper-cased) status.
var rowHighlights = map[string]string{
	"CONTRATADO":  "#1c7e21",
	"BAJA":        "#9e2a20",
	"NO APTO":     "#7825a1",
	"EN ESPERA":   "#e747bf",
	"EN BANCA":    "#1a5f91",
	"NO CONTESTA": "#9e8628",
}

const defaultRowHighlight = "#0e1117"

// Canonicalize maps a free-text status to its canonical spelling.
// Blank input is treated as missing and becomes SIN ESTATUS. The result is never
// bucketed; see Bucket.
func Canonicalize(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return StatusNone
	}
	if fixed, ok := statusCorrections[s]; ok {
		return fixed
	}
	return s
}

// Bucket groups a canonical status for aggregate reporting: values outside the
// allow-list become OTROS. Display only; never write the result back to the store.
func Bucket(canonical string) string {
	if knownStatuses[canonical] {
		return canonical
	}
	return StatusOther
}

// StatusColor returns the chart color for a canonical or bucketed status.
func StatusColor(status string) string {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return defaultStatusColor
}

// RowHighlight returns the table background color for a record's raw status.
func RowHighlight(raw string) string {
	if c, ok := rowHighlights[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return c
	}
	return defaultRowHighlight
}

// StatusCount is one bar or slice of a status chart.
type StatusCount struct {
	Status  string  `json:"status"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	Color   string  `json:"color"`
}

// CountStatuses tallies canonical statuses across records. When grouped is true,
// statuses outside the allow-list are merged into OTROS. Results are sorted by
// ascending count, ties broken by name.
func CountStatuses(records []model.Record, grouped bool) []StatusCount {
	counts := make(map[string]int)
	for _, r := range records {
		s := Canonicalize(r[model.ColStatus])
		if grouped {
			s = Bucket(s)
		}
		counts[s]++
	}

	out := make([]StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, StatusCount{
			Status:  status,
			Count:   n,
			Percent: float64(n) * 100 / float64(len(records)),
			Color:   StatusColor(status),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count < out[j].Count
		}
		return out[i].Status < out[j].Status
	})
	return out
}
