package reviews

import (
	"context"
	"fmt"
	"strings"

	"consult-backend/internal/appointments"
	"consult-backend/internal/apperr"
	"consult-backend/internal/auth"
	"consult-backend/internal/clock"
	"consult-backend/internal/users"

	"github.com/google/uuid"
)

// AppointmentReader is the read side of the appointment store the gate
// depends on.
type AppointmentReader interface {
	Get(ctx context.Context, id string) (appointments.Appointment, error)
}

// Service gates review creation on the appointment having reached COMPLETED.
type Service struct {
	repo         Repository
	appointments AppointmentReader
	clock        clock.Clock
	newID        func() string
}

func NewService(repo Repository, reader AppointmentReader, clk clock.Clock) *Service {
	return &Service{
		repo:         repo,
		appointments: reader,
		clock:        clk,
		newID:        uuid.NewString,
	}
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, appointmentID string, rating int, comment string) (Review, error) {
	a, err := s.appointments.Get(ctx, appointmentID)
	if err != nil {
		if apperr.IsBusiness(err) {
			return Review{}, err
		}
		return Review{}, fmt.Errorf("load appointment: %w", err)
	}
	if actor.Anonymous() || a.ClientID != actor.UserID {
		return Review{}, apperr.Unauthorized("only the appointment's client can review it")
	}
	if a.Status != appointments.StatusCompleted {
		return Review{}, apperr.InvalidState("appointment is " + string(a.Status) + ", reviews require COMPLETED")
	}
	if err := validateRating(rating); err != nil {
		return Review{}, err
	}

	now := s.clock.Now()
	review := Review{
		ID:            s.newID(),
		AppointmentID: a.ID,
		ClientID:      a.ClientID,
		ConsultantID:  a.ConsultantID,
		Rating:        rating,
		Comment:       strings.TrimSpace(comment),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if apperr.IsBusiness(err) {
			return Review{}, err
		}
		return Review{}, fmt.Errorf("create review: %w", err)
	}
	return review, nil
}

func (s *Service) Update(ctx context.Context, actor auth.Actor, id string, req UpdateRequest) (Review, error) {
	review, err := s.authored(ctx, actor, id)
	if err != nil {
		return Review{}, err
	}
	if req.Rating != nil {
		if err := validateRating(*req.Rating); err != nil {
			return Review{}, err
		}
		review.Rating = *req.Rating
	}
	if req.Comment != nil {
		review.Comment = strings.TrimSpace(*req.Comment)
	}
	review.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, review); err != nil {
		if apperr.IsBusiness(err) {
			return Review{}, err
		}
		return Review{}, fmt.Errorf("update review: %w", err)
	}
	return review, nil
}

func (s *Service) Delete(ctx context.Context, actor auth.Actor, id string) error {
	if _, err := s.authored(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if apperr.IsBusiness(err) {
			return err
		}
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (Review, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByAppointment(ctx context.Context, appointmentID string) (Review, error) {
	return s.repo.GetByAppointment(ctx, appointmentID)
}

func (s *Service) ListByConsultant(ctx context.Context, consultantID string, limit, offset int64) ([]Review, error) {
	items, err := s.repo.ListByConsultant(ctx, consultantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return items, nil
}

func (s *Service) ConsultantSummary(ctx context.Context, consultantID string) (Summary, error) {
	summary, err := s.repo.Summary(ctx, consultantID)
	if err != nil {
		return Summary{}, fmt.Errorf("review summary: %w", err)
	}
	return summary, nil
}

// authored loads a review and checks the actor wrote it. Admins may act on
// any review.
func (s *Service) authored(ctx context.Context, actor auth.Actor, id string) (Review, error) {
	review, err := s.repo.Get(ctx, id)
	if err != nil {
		if apperr.IsBusiness(err) {
			return Review{}, err
		}
		return Review{}, fmt.Errorf("load review: %w", err)
	}
	if review.ClientID != actor.UserID && !actor.HasRole(users.RoleAdmin) {
		return Review{}, apperr.Unauthorized("only the author can modify this review")
	}
	return review, nil
}

func validateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return apperr.Validation("rating", "must be between 1 and 5")
	}
	return nil
}
