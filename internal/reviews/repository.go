package reviews

import (
	"context"

	"consult-backend/internal/apperr"
)

var (
	ErrNotFound  = apperr.NotFound("review not found")
	ErrDuplicate = apperr.Conflict("appointment already reviewed")
)

// Repository implementations enforce one review per appointment with a unique
// index, and report a violation as ErrDuplicate.
type Repository interface {
	Create(ctx context.Context, r Review) error
	Get(ctx context.Context, id string) (Review, error)
	GetByAppointment(ctx context.Context, appointmentID string) (Review, error)
	Update(ctx context.Context, r Review) error
	Delete(ctx context.Context, id string) error
	ListByConsultant(ctx context.Context, consultantID string, limit, offset int64) ([]Review, error)
	Summary(ctx context.Context, consultantID string) (Summary, error)
}
