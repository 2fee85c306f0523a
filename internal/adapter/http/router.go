package http

import (
	"github.com/labstack/echo/v4"

	"loanledger/internal/adapter/middleware"
)

// Routes groups the handlers mounted by Register.
type Routes struct {
	Health  *Handler
	Loans   *LoanHandler
	Imports *ImportHandler
	Alerts  *AlertHandler
}

// Register mounts /health and the owner-scoped /api/v1 group. Extra
// middleware (idempotency) runs after identity resolution.
func Register(e *echo.Echo, r Routes, mw ...echo.MiddlewareFunc) {
	e.GET("/health", r.Health.Health)

	api := e.Group("/api/v1", append([]echo.MiddlewareFunc{middleware.Identity()}, mw...)...)

	api.POST("/loans", r.Loans.CreateLoan)
	api.GET("/loans", r.Loans.ListLoans)
	api.GET("/loans/:loan_id", r.Loans.GetLoan)
	api.DELETE("/loans/:loan_id", r.Loans.DeleteLoan)
	api.PUT("/loans/:loan_id/schedule", r.Loans.UpdateSchedule)
	api.PATCH("/loans/:loan_id/payments/:payment_id", r.Loans.UpdatePayment)
	api.PUT("/loans/:loan_id/obligations", r.Loans.UpsertObligation)
	api.POST("/loans/:loan_id/notes", r.Loans.AddNote)
	api.POST("/loans/:loan_id/communications", r.Loans.AddCommunication)
	api.GET("/stats", r.Loans.Stats)
	api.GET("/export", r.Loans.Export)

	api.POST("/imports", r.Imports.Import)

	api.POST("/alerts/generate", r.Alerts.Generate)
	api.GET("/alerts", r.Alerts.List)
	api.POST("/alerts/:alert_id/read", r.Alerts.MarkRead)
}
