// handlers_documents.go - Candidate document folder handlers
package api

import (
	"bytes"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"cand-go/internal/cand"
)

type documentsResponse struct {
	Index     int      `json:"index"`
	Folder    string   `json:"folder"`
	Documents []string `json:"documents"`
	Types     []string `json:"types"`
}

func nameParam(c echo.Context) (string, error) {
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		return "", NewBadRequestError("malformed document name", err)
	}
	return name, nil
}

func (h *Handler) HandleListDocuments(c echo.Context) error {
	idx, err := indexParam(c)
	if err != nil {
		return err
	}

	folder, err := h.backend.DocumentFolder(idx)
	if err != nil {
		return err
	}
	names, err := h.backend.ListDocuments(idx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, documentsResponse{
		Index:     idx,
		Folder:    folder,
		Documents: names,
		Types:     cand.DocumentTypes,
	})
}

func (h *Handler) HandleUploadDocument(c echo.Context) error {
	idx, err := indexParam(c)
	if err != nil {
		return err
	}

	docType := c.FormValue("type")
	if docType == "" {
		return NewBadRequestError("form field 'type' is required", nil)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("multipart field 'file' is required", err)
	}
	f, err := fh.Open()
	if err != nil {
		return NewBadRequestError("cannot read uploaded file", err)
	}
	defer f.Close()

	path, err := h.backend.UploadDocument(idx, docType, f, fh.Size, fh.Filename)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]string{"path": path})
}

// HandleDownloadDocument buffers the file so a failed read still gets a JSON error.
func (h *Handler) HandleDownloadDocument(c echo.Context) error {
	idx, err := indexParam(c)
	if err != nil {
		return err
	}
	name, err := nameParam(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := h.backend.DownloadDocument(idx, name, &buf); err != nil {
		return err
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

func (h *Handler) HandleDeleteDocument(c echo.Context) error {
	idx, err := indexParam(c)
	if err != nil {
		return err
	}
	name, err := nameParam(c)
	if err != nil {
		return err
	}

	if err := h.backend.DeleteDocument(idx, name); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
