package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger checks the backing store. A nil Pinger is always healthy.
type Pinger func(ctx context.Context) error

type Handler struct{ ping Pinger }

func NewHandler(ping Pinger) *Handler { return &Handler{ping: ping} }

func (h *Handler) Health(c echo.Context) error {
	status, code := "ok", http.StatusOK
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}
	return c.JSON(code, map[string]any{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}
