package reviews

import (
	"context"
	"sort"
	"sync"
)

type MemoryRepository struct {
	mu            sync.Mutex
	items         map[string]Review
	byAppointment map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		items:         make(map[string]Review),
		byAppointment: make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, review Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byAppointment[review.AppointmentID]; exists {
		return ErrDuplicate
	}
	r.items[review.ID] = review
	r.byAppointment[review.AppointmentID] = review.ID
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	review, ok := r.items[id]
	if !ok {
		return Review{}, ErrNotFound
	}
	return review, nil
}

func (r *MemoryRepository) GetByAppointment(ctx context.Context, appointmentID string) (Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byAppointment[appointmentID]
	if !ok {
		return Review{}, ErrNotFound
	}
	return r.items[id], nil
}

func (r *MemoryRepository) Update(ctx context.Context, review Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.items[review.ID]
	if !ok {
		return ErrNotFound
	}
	current.Rating = review.Rating
	current.Comment = review.Comment
	current.UpdatedAt = review.UpdatedAt
	r.items[review.ID] = current
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	review, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	delete(r.byAppointment, review.AppointmentID)
	return nil
}

func (r *MemoryRepository) ListByConsultant(ctx context.Context, consultantID string, limit, offset int64) ([]Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]Review, 0)
	for _, review := range r.items {
		if review.ConsultantID == consultantID {
			matched = append(matched, review)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= int64(len(matched)) {
		return []Review{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryRepository) Summary(ctx context.Context, consultantID string) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	summary := Summary{ConsultantID: consultantID}
	total := 0
	for _, review := range r.items {
		if review.ConsultantID == consultantID {
			summary.Count++
			total += review.Rating
		}
	}
	if summary.Count > 0 {
		summary.Average = float64(total) / float64(summary.Count)
	}
	return summary, nil
}
