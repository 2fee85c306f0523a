package notify

import (
	"context"

	"go.uber.org/zap"

	"loanledger/internal/domain/alert"
)

// Notifier delivers an alert that has just crossed its notification boundary.
type Notifier interface {
	Notify(ctx context.Context, ownerID string, a alert.Alert) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{ log *zap.Logger }

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log.Named("notify")}
}

func (n *LogNotifier) Notify(_ context.Context, ownerID string, a alert.Alert) error {
	n.log.Info("alert notification",
		zap.String("owner_id", ownerID),
		zap.String("alert_id", a.ID),
		zap.String("loan_id", a.LoanID),
		zap.String("type", string(a.Type)),
		zap.String("severity", string(a.Severity)),
		zap.Int("days_until", a.DaysUntil),
		zap.String("message", a.Message),
	)
	return nil
}
