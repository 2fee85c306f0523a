package alert

import "context"

type Repository interface {
	LoadAll(ctx context.Context, ownerID string) ([]Alert, error)
	SaveAll(ctx context.Context, ownerID string, alerts []Alert) error

	// MarkNotified records that the boundary notification for alertID went
	// out. It returns false when it had already been recorded.
	MarkNotified(ctx context.Context, ownerID, alertID string) (bool, error)
}
