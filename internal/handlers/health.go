package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness and which integrations are active
type HealthHandler struct {
	started  time.Time
	liveMode bool
	clients  func() int
}

// NewHealthHandler creates a HealthHandler; clients reports connected observers
func NewHealthHandler(liveMode bool, clients func() int) *HealthHandler {
	return &HealthHandler{started: time.Now(), liveMode: liveMode, clients: clients}
}

func (h *HealthHandler) HealthCheck(c echo.Context) error {
	mode := "demo"
	if h.liveMode {
		mode = "live"
	}
	body := map[string]interface{}{
		"status":    "healthy",
		"service":   "page-comments",
		"mode":      mode,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC(),
	}
	if h.clients != nil {
		body["observers"] = h.clients()
	}
	return c.JSON(http.StatusOK, body)
}
