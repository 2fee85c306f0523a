package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"loanledger/internal/domain/alert"
	"loanledger/internal/domain/importer"
	"loanledger/internal/domain/loan"
	"loanledger/internal/domain/reconcile"
	"loanledger/internal/domain/session"
	"loanledger/internal/domain/store"
)

// respondError maps domain errors → HTTP codes.
func respondError(c echo.Context, err error) error {
	var (
		ve  *loan.ValidationError
		pe  *importer.ParseError
		de  *reconcile.DuplicateError
		per *store.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: ve.Field, Message: ve.Reason}},
		})
	case errors.As(err, &pe):
		resp := ErrorResponse{Error: pe.Error()}
		for _, m := range pe.Missing {
			resp.Details = append(resp.Details, FieldError{Field: m, Message: "no matching column"})
		}
		return c.JSON(http.StatusBadRequest, resp)
	case errors.As(err, &de):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: de.Error()})
	case errors.Is(err, session.ErrNoOwner):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, loan.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, loan.ErrNotFound), errors.Is(err, loan.ErrPaymentNotFound),
		errors.Is(err, loan.ErrObligationNotFound), errors.Is(err, alert.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.As(err, &per), errors.Is(err, context.DeadlineExceeded):
		c.Logger().Error(err)
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "storage unavailable"})
	case errors.Is(err, context.Canceled):
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "request cancelled"})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// bindAndValidate decodes the body into req and runs the validator.
// It writes the error response itself and reports false when it did.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
