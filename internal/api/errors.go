// errors.go - API error bodies and the echo error handler
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"cand-go/internal/cand"
	"cand-go/internal/documents"
	"cand-go/internal/encryption"
	"cand-go/internal/spreadsheet"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

func newValidationError(cause error) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: cause.Error(),
	}
}

// toAPIError maps domain errors to HTTP responses.
func toAPIError(err error) *APIError {
	var (
		apiErr  *APIError
		ageErr  *cand.InvalidAgeError
		persErr *cand.PersistenceError
		fsErr   *cand.FilesystemError
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case cand.IsNotFound(err):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: err.Error()}
	case errors.As(err, &ageErr),
		errors.Is(err, cand.ErrUnknownColumn),
		errors.Is(err, cand.ErrDuplicateColumn),
		errors.Is(err, cand.ErrUnknownDocumentType),
		errors.Is(err, cand.ErrUnsupportedExtension),
		errors.Is(err, cand.ErrInvalidName),
		errors.Is(err, spreadsheet.ErrUnsupportedFormat):
		return newValidationError(err)
	case errors.Is(err, cand.ErrNotConfirmed):
		return &APIError{Status: http.StatusBadRequest, Code: "NOT_CONFIRMED", Message: err.Error()}
	case errors.Is(err, cand.ErrAccessDenied), errors.Is(err, encryption.ErrWrongPassphrase):
		return &APIError{Status: http.StatusForbidden, Code: "ACCESS_DENIED", Message: err.Error()}
	case errors.Is(err, documents.ErrLocked):
		return &APIError{Status: http.StatusLocked, Code: "LOCKED", Message: err.Error()}
	case errors.As(err, &persErr):
		return &APIError{Status: http.StatusInternalServerError, Code: "PERSISTENCE_ERROR", Message: "candidate store unavailable", Details: err.Error()}
	case errors.As(err, &fsErr):
		return &APIError{Status: http.StatusInternalServerError, Code: "FILESYSTEM_ERROR", Message: "document storage failed", Details: err.Error()}
	default:
		return &APIError{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: "an unexpected error occurred", Details: err.Error()}
	}
}

// ErrorHandler renders every handler error as an APIError.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	} else {
		apiErr = toAPIError(err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(apiErr.Status)
		return
	}
	_ = c.JSON(apiErr.Status, apiErr)
}
