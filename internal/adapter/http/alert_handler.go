package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"loanledger/internal/adapter/middleware"
	alertuc "loanledger/internal/usecase/alert"
)

type AlertHandler struct{ uc *alertuc.Usecase }

func NewAlertHandler(uc *alertuc.Usecase) *AlertHandler { return &AlertHandler{uc: uc} }

func (h *AlertHandler) Generate(c echo.Context) error {
	alerts, err := h.uc.GenerateAlerts(c.Request().Context(), middleware.SessionFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

func (h *AlertHandler) List(c echo.Context) error {
	var unread bool
	if err := echo.QueryParamsBinder(c).Bool("unread", &unread).BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query", Details: []FieldError{{Field: "unread", Message: "must be a boolean"}}})
	}
	alerts, err := h.uc.ListAlerts(c.Request().Context(), middleware.SessionFrom(c), unread)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

func (h *AlertHandler) MarkRead(c echo.Context) error {
	a, err := h.uc.MarkAlertRead(c.Request().Context(), middleware.SessionFrom(c), c.Param("alert_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}
