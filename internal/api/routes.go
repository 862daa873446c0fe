// routes.go - Route registration and server construction
package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RegisterRoutes mounts every API endpoint on e.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/health", h.HandleHealth)

	api := e.Group("/api")

	api.GET("/candidates", h.HandleListCandidates)
	api.POST("/candidates", h.HandleCreateCandidate)
	api.POST("/candidates/import", h.HandleImport)
	api.PATCH("/candidates/:index", h.HandleUpdateCandidate)
	api.DELETE("/candidates/:index", h.HandleDeleteCandidate)

	api.GET("/candidates/:index/documents", h.HandleListDocuments)
	api.POST("/candidates/:index/documents", h.HandleUploadDocument)
	api.GET("/candidates/:index/documents/:name", h.HandleDownloadDocument)
	api.DELETE("/candidates/:index/documents/:name", h.HandleDeleteDocument)

	api.GET("/stats", h.HandleStats)
	api.POST("/reset", h.HandleReset)
}

// NewServer builds an echo instance with recovery, request logging, the
// API error handler and all routes registered.
func NewServer(backend Backend, logger *slog.Logger, version string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64M"))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				logger.Warn("request failed", "method", v.Method, "uri", v.URI, "status", v.Status, "error", v.Error)
				return nil
			}
			logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	RegisterRoutes(e, NewHandler(backend, version))
	return e
}
