package appointments

import (
	"context"
	"time"

	"consult-backend/internal/apperr"
	"consult-backend/internal/schedule"
)

var (
	ErrNotFound  = apperr.NotFound("appointment not found")
	ErrSlotTaken = apperr.Conflict("consultant already has an appointment in this time range")
)

// TransitionFunc computes the next version of a record. Returning an error
// aborts the transition without writing anything.
type TransitionFunc func(current Appointment) (Appointment, error)

type Repository interface {
	// Book re-checks the consultant's active intervals and inserts a, as one
	// atomic step per consultant. Returns ErrSlotTaken on overlap.
	Book(ctx context.Context, a Appointment) error
	HasConflict(ctx context.Context, consultantID string, start, end time.Time) (bool, error)
	Get(ctx context.Context, id string) (Appointment, error)
	// Transition loads, applies fn and persists under the store's
	// concurrency control.
	Transition(ctx context.Context, id string, fn TransitionFunc) (Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]Appointment, error)
	ActiveIntervals(ctx context.Context, consultantID string, window schedule.Interval) ([]schedule.Interval, error)
	DueForCompletion(ctx context.Context, now time.Time, limit int64) ([]string, error)
	Stats(ctx context.Context, consultantID string, from, to time.Time) (Stats, error)
}

func activeStatusStrings() []string {
	out := make([]string, 0, len(ActiveStatuses))
	for _, s := range ActiveStatuses {
		out = append(out, string(s))
	}
	return out
}
