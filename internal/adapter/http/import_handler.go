package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"loanledger/internal/adapter/middleware"
	"loanledger/internal/adapter/source"
	"loanledger/internal/usecase/importing"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ImportHandler struct{ uc *importing.Usecase }

func NewImportHandler(uc *importing.Usecase) *ImportHandler { return &ImportHandler{uc: uc} }

// Import reads the raw request body as one import batch.
// ?mode=append|reconcile (default append), ?format=csv|xlsx|json; without
// format the Content-Type decides and anything else is read as csv.
func (h *ImportHandler) Import(c echo.Context) error {
	mode := importing.Mode(strings.ToLower(c.QueryParam("mode")))
	switch mode {
	case "":
		mode = importing.ModeAppend
	case importing.ModeAppend, importing.ModeReconcile:
	default:
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: "mode", Message: "must be one of append, reconcile"}},
		})
	}
	format, err := requestFormat(c)
	if err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: "format", Message: err.Error()}},
		})
	}

	rep, err := h.uc.Import(c.Request().Context(), middleware.SessionFrom(c),
		source.Input{Format: format, R: c.Request().Body}, mode)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rep)
}

func requestFormat(c echo.Context) (source.Format, error) {
	if q := c.QueryParam("format"); q != "" {
		return source.ParseFormat(q)
	}
	ct := c.Request().Header.Get(echo.HeaderContentType)
	switch {
	case strings.HasPrefix(ct, echo.MIMEApplicationJSON):
		return source.FormatJSON, nil
	case strings.HasPrefix(ct, mimeXLSX):
		return source.FormatXLSX, nil
	}
	return source.FormatCSV, nil
}
