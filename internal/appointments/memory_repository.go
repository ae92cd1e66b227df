package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"consult-backend/internal/schedule"
)

// MemoryRepository keeps appointments in process. A single mutex makes
// check-and-insert and load-validate-persist atomic.
type MemoryRepository struct {
	mu    sync.Mutex
	items map[string]Appointment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]Appointment)}
}

func (r *MemoryRepository) Book(ctx context.Context, a Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflictLocked(a.ConsultantID, a.Interval()) {
		return ErrSlotTaken
	}
	r.items[a.ID] = a
	return nil
}

func (r *MemoryRepository) HasConflict(ctx context.Context, consultantID string, start, end time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conflictLocked(consultantID, schedule.Interval{Start: start, End: end}), nil
}

func (r *MemoryRepository) conflictLocked(consultantID string, window schedule.Interval) bool {
	for _, a := range r.items {
		if a.ConsultantID == consultantID && a.Status.Active() && schedule.Overlaps(a.Interval(), window) {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepository) Transition(ctx context.Context, id string, fn TransitionFunc) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	next, err := fn(current)
	if err != nil {
		return current, err
	}
	next.Version = current.Version + 1
	r.items[id] = next
	return next, nil
}

func (r *MemoryRepository) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]Appointment, 0)
	for _, a := range r.items {
		if filter.ClientID != "" && a.ClientID != filter.ClientID {
			continue
		}
		if filter.ConsultantID != "" && a.ConsultantID != filter.ConsultantID {
			continue
		}
		if filter.UpcomingOnly && (!a.AppointmentDate.After(filter.Now) || !a.Status.Active()) {
			continue
		}
		items = append(items, a)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].AppointmentDate.Before(items[j].AppointmentDate)
	})
	return items, nil
}

func (r *MemoryRepository) ActiveIntervals(ctx context.Context, consultantID string, window schedule.Interval) ([]schedule.Interval, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	intervals := make([]schedule.Interval, 0)
	for _, a := range r.items {
		if a.ConsultantID == consultantID && a.Status.Active() && schedule.Overlaps(a.Interval(), window) {
			intervals = append(intervals, a.Interval())
		}
	}
	return intervals, nil
}

func (r *MemoryRepository) DueForCompletion(ctx context.Context, now time.Time, limit int64) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	due := make([]Appointment, 0)
	for _, a := range r.items {
		if a.Status == StatusConfirmed && !a.EndsAt.After(now) {
			due = append(due, a)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].EndsAt.Before(due[j].EndsAt)
	})

	ids := make([]string, 0, len(due))
	for _, a := range due {
		if limit > 0 && int64(len(ids)) >= limit {
			break
		}
		ids = append(ids, a.ID)
	}
	return ids, nil
}

func (r *MemoryRepository) Stats(ctx context.Context, consultantID string, from, to time.Time) (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{ConsultantID: consultantID, From: from, To: to}
	for _, a := range r.items {
		if a.ConsultantID != consultantID || a.Status != StatusCompleted {
			continue
		}
		if a.AppointmentDate.Before(from) || !a.AppointmentDate.Before(to) {
			continue
		}
		stats.CompletedCount++
		if a.PaymentStatus == PaymentPaid {
			stats.PaidFeesTotal += a.Fee
		}
	}
	return stats, nil
}
