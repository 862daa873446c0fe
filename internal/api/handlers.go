// handlers.go - Candidate table, import, stats and reset handlers
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"cand-go/internal/cand"
	"cand-go/internal/model"
)

// Handler serves the candidate API on top of a Backend.
type Handler struct {
	backend Backend
	version string
}

func NewHandler(backend Backend, version string) *Handler {
	return &Handler{backend: backend, version: version}
}

// candidateRow is one table row as rendered to clients.
type candidateRow struct {
	Index     int          `json:"index"`
	Record    model.Record `json:"record"`
	Highlight string       `json:"highlight"`
}

type candidatesResponse struct {
	Columns []string           `json:"columns"`
	Rows    []candidateRow     `json:"rows"`
	Total   int                `json:"total"`
	Options cand.FilterOptions `json:"options"`
}

// criteriaFromQuery reads repeatable agency, role and status parameters plus name.
func criteriaFromQuery(c echo.Context) cand.Criteria {
	q := c.QueryParams()
	return cand.Criteria{
		Agencies:     q["agency"],
		Roles:        q["role"],
		Statuses:     q["status"],
		NameContains: q.Get("name"),
	}
}

func indexParam(c echo.Context) (int, error) {
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return 0, NewBadRequestError("index must be an integer", err)
	}
	return idx, nil
}

func (h *Handler) HandleListCandidates(c echo.Context) error {
	t, err := h.backend.Table()
	if err != nil {
		return err
	}
	rows, opts, err := h.backend.Filter(criteriaFromQuery(c))
	if err != nil {
		return err
	}

	out := make([]candidateRow, len(rows))
	for i, r := range rows {
		out[i] = candidateRow{Index: r.Index, Record: r.Record, Highlight: cand.RowHighlight(r.Record[model.ColStatus])}
	}
	return c.JSON(http.StatusOK, candidatesResponse{
		Columns: t.Columns,
		Rows:    out,
		Total:   len(t.Records),
		Options: opts,
	})
}

func (h *Handler) HandleImport(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("multipart field 'file' is required", err)
	}

	headerRow := 0
	if v := c.FormValue("header_row"); v != "" {
		headerRow, err = strconv.Atoi(v)
		if err != nil || headerRow < 0 {
			return NewBadRequestError("header_row must be a non-negative integer", err)
		}
	}

	f, err := fh.Open()
	if err != nil {
		return NewBadRequestError("cannot read uploaded file", err)
	}
	defer f.Close()

	n, err := h.backend.Import(f, fh.Filename, headerRow)
	if errors.Is(err, cand.ErrEmptyInput) {
		return c.JSON(http.StatusOK, map[string]any{"imported": 0, "warning": err.Error()})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"imported": n})
}

// bindFields reads a column-to-value object from the request body, ignoring path params.
func bindFields(c echo.Context) (map[string]string, error) {
	var fields map[string]string
	if err := (&echo.DefaultBinder{}).BindBody(c, &fields); err != nil {
		return nil, NewBadRequestError("body must be a JSON object of column values", err)
	}
	return fields, nil
}

func (h *Handler) HandleCreateCandidate(c echo.Context) error {
	fields, err := bindFields(c)
	if err != nil {
		return err
	}

	idx, err := h.backend.InsertRecord(fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]int{"index": idx})
}

func (h *Handler) HandleUpdateCandidate(c echo.Context) error {
	idx, err := indexParam(c)
	if err != nil {
		return err
	}
	fields, err := bindFields(c)
	if err != nil {
		return err
	}

	if err := h.backend.UpdateRecord(idx, fields); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"index": idx})
}

func (h *Handler) HandleDeleteCandidate(c echo.Context) error {
	idx, err := indexParam(c)
	if err != nil {
		return err
	}
	if err := h.backend.DeleteRecord(idx); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HandleStats(c echo.Context) error {
	grouped := true
	if v := c.QueryParam("grouped"); v != "" {
		var err error
		grouped, err = strconv.ParseBool(v)
		if err != nil {
			return NewBadRequestError("grouped must be a boolean", err)
		}
	}

	counts, err := h.backend.StatusSummary(criteriaFromQuery(c), grouped)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, counts)
}

type resetRequest struct {
	Secret  string `json:"secret"`
	Confirm bool   `json:"confirm"`
}

func (h *Handler) HandleReset(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid reset request", err)
	}
	if err := h.backend.Reset(req.Secret, req.Confirm); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
