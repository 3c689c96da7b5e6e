package server

import (
	"bytes"
	"embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed web
var webFS embed.FS

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type dashboardData struct {
	Version string
}

// health reports liveness only; it never runs probes
func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Version: s.version})
}

// getCapabilities handles GET /api/capabilities
func (s *Server) getCapabilities(c echo.Context) error {
	report, err := s.collector.Collect(c.Request().Context())
	if err != nil {
		s.logger.Error("http.capabilities.failed", "Failed to collect capabilities", map[string]interface{}{
			"error":      err.Error(),
			"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
		})
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, report)
}

// dashboard renders the HTML page; data is fetched client-side
func (s *Server) dashboard(c echo.Context) error {
	var buf bytes.Buffer
	if err := s.index.Execute(&buf, dashboardData{Version: s.version}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render dashboard").SetInternal(err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
