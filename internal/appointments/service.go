package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"consult-backend/internal/apperr"
	"consult-backend/internal/auth"
	"consult-backend/internal/cache"
	"consult-backend/internal/clock"
	"consult-backend/internal/schedule"
	"consult-backend/internal/users"

	"github.com/google/uuid"
)

type Availability struct {
	ConsultantID string   `json:"consultant_id"`
	Date         string   `json:"date"`
	Timezone     string   `json:"timezone"`
	Duration     int      `json:"duration"`
	Slots        []string `json:"slots"`
}

type Service struct {
	repo     Repository
	users    users.Directory
	clock    clock.Clock
	cache    cache.Cache
	cacheTTL time.Duration
	location *time.Location
	newID    func() string
}

type Options struct {
	Cache    cache.Cache
	CacheTTL time.Duration
	Location *time.Location
}

func NewService(repo Repository, directory users.Directory, clk clock.Clock, opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = cache.NewNoop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		repo:     repo,
		users:    directory,
		clock:    clk,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		location: opts.Location,
		newID:    uuid.NewString,
	}
}

func (s *Service) Book(ctx context.Context, actor auth.Actor, req BookRequest) (Appointment, error) {
	if actor.Anonymous() {
		return Appointment{}, apperr.Unauthorized("authentication required")
	}
	clientID := req.ClientID
	if clientID == "" {
		clientID = actor.UserID
	}
	if clientID != actor.UserID && !actor.HasRole(users.RoleAdmin) {
		return Appointment{}, apperr.Unauthorized("cannot book on behalf of another client")
	}

	now := s.clock.Now()
	appointment, err := newAppointment(s.newID(), clientID, req, now)
	if err != nil {
		return Appointment{}, err
	}

	if _, err := s.loadUser(ctx, clientID, "client"); err != nil {
		return Appointment{}, err
	}
	if _, err := s.loadConsultant(ctx, req.ConsultantID); err != nil {
		return Appointment{}, err
	}

	if err := s.repo.Book(ctx, appointment); err != nil {
		if apperr.IsBusiness(err) {
			return Appointment{}, err
		}
		return Appointment{}, fmt.Errorf("book appointment: %w", err)
	}

	s.invalidateAvailability(ctx, appointment.ConsultantID)
	return appointment, nil
}

// HasConflict is the read-only availability check. Booking repeats it
// atomically inside the store.
func (s *Service) HasConflict(ctx context.Context, consultantID string, start time.Time, durationMinutes int) (bool, error) {
	if !schedule.ValidDuration(durationMinutes) {
		return false, apperr.Validation("duration_minutes", "must be between 15 and 480 minutes")
	}
	return s.repo.HasConflict(ctx, consultantID, start, schedule.EndOf(start, durationMinutes))
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, id string) (View, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return View{}, err
	}
	if !a.IsParticipant(actor.UserID) && !actor.HasRole(users.RoleAdmin) {
		return View{}, apperr.Unauthorized("not a participant of this appointment")
	}
	views, err := s.project(ctx, []Appointment{a})
	if err != nil {
		return View{}, err
	}
	return views[0], nil
}

func (s *Service) ListByClient(ctx context.Context, actor auth.Actor, clientID string, upcomingOnly bool) ([]View, error) {
	if actor.UserID != clientID && !actor.HasRole(users.RoleAdmin) {
		return nil, apperr.Unauthorized("cannot list another client's appointments")
	}
	items, err := s.repo.List(ctx, ListFilter{ClientID: clientID, UpcomingOnly: upcomingOnly, Now: s.clock.Now()})
	if err != nil {
		return nil, fmt.Errorf("list client appointments: %w", err)
	}
	return s.project(ctx, items)
}

func (s *Service) ListByConsultant(ctx context.Context, actor auth.Actor, consultantID string, upcomingOnly bool) ([]View, error) {
	if actor.UserID != consultantID && !actor.HasRole(users.RoleAdmin) {
		return nil, apperr.Unauthorized("cannot list another consultant's appointments")
	}
	items, err := s.repo.List(ctx, ListFilter{ConsultantID: consultantID, UpcomingOnly: upcomingOnly, Now: s.clock.Now()})
	if err != nil {
		return nil, fmt.Errorf("list consultant appointments: %w", err)
	}
	return s.project(ctx, items)
}

func (s *Service) Confirm(ctx context.Context, actor auth.Actor, id string) (Appointment, error) {
	if !actor.HasRole(users.RoleConsultant) {
		return Appointment{}, apperr.Unauthorized("consultant role required")
	}
	return s.transition(ctx, id, func(a Appointment) (Appointment, error) {
		return confirm(a, actor.UserID, s.clock.Now())
	})
}

func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id, reason string) (Appointment, error) {
	if actor.Anonymous() {
		return Appointment{}, apperr.Unauthorized("authentication required")
	}
	updated, err := s.transition(ctx, id, func(a Appointment) (Appointment, error) {
		return cancel(a, actor.UserID, reason, s.clock.Now())
	})
	if err != nil {
		return updated, err
	}
	s.invalidateAvailability(ctx, updated.ConsultantID)
	return updated, nil
}

func (s *Service) Complete(ctx context.Context, actor auth.Actor, id, notes string) (Appointment, error) {
	if !actor.HasRole(users.RoleConsultant) {
		return Appointment{}, apperr.Unauthorized("consultant role required")
	}
	return s.transition(ctx, id, func(a Appointment) (Appointment, error) {
		return complete(a, actor.UserID, notes, s.clock.Now())
	})
}

func (s *Service) AttachMeetingLink(ctx context.Context, actor auth.Actor, id, link string) (Appointment, error) {
	if !actor.HasRole(users.RoleConsultant) {
		return Appointment{}, apperr.Unauthorized("consultant role required")
	}
	return s.transition(ctx, id, func(a Appointment) (Appointment, error) {
		return attachMeetingLink(a, actor.UserID, link, s.clock.Now())
	})
}

// RecordPayment applies a payment-confirmed signal that the external payment
// integration has already verified.
func (s *Service) RecordPayment(ctx context.Context, actor auth.Actor, id string, signal PaymentSignal) (Appointment, error) {
	if !actor.HasRole(users.RoleAdmin) {
		return Appointment{}, apperr.Unauthorized("admin role required")
	}
	return s.transition(ctx, id, func(a Appointment) (Appointment, error) {
		return applyPayment(a, signal, s.clock.Now())
	})
}

func (s *Service) Stats(ctx context.Context, actor auth.Actor, consultantID string, from, to time.Time) (Stats, error) {
	if actor.UserID != consultantID && !actor.HasRole(users.RoleAdmin) {
		return Stats{}, apperr.Unauthorized("cannot read another consultant's statistics")
	}
	if !from.Before(to) {
		return Stats{}, apperr.Validation("to", "must be after from")
	}
	stats, err := s.repo.Stats(ctx, consultantID, from, to)
	if err != nil {
		return Stats{}, fmt.Errorf("consultant stats: %w", err)
	}
	return stats, nil
}

func (s *Service) FreeSlots(ctx context.Context, consultantID, date string, duration int) (Availability, error) {
	if !schedule.ValidDuration(duration) {
		return Availability{}, apperr.Validation("duration", "must be between 15 and 480 minutes")
	}
	now := s.clock.Now()
	past, err := schedule.IsDatePast(date, s.location, now)
	if err != nil {
		return Availability{}, apperr.Validation("date", "must be YYYY-MM-DD")
	}
	if past {
		return Availability{}, apperr.Validation("date", "date in the past")
	}

	key := availabilityKey(consultantID) + date + ":" + strconv.Itoa(duration)
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var out Availability
		if err := json.Unmarshal(cached, &out); err == nil {
			out.Slots = s.dropPast(out, now)
			return out, nil
		}
	}

	if _, err := s.loadConsultant(ctx, consultantID); err != nil {
		return Availability{}, err
	}

	slots, err := schedule.GenerateSlots(date, duration, s.location)
	if err != nil {
		return Availability{}, apperr.Validation("date", err.Error())
	}
	day, _ := schedule.ParseDate(date, s.location)
	reserved, err := s.repo.ActiveIntervals(ctx, consultantID, schedule.DayBounds(day, s.location))
	if err != nil {
		return Availability{}, fmt.Errorf("active intervals: %w", err)
	}
	slots = schedule.FilterOverlapping(slots, reserved)

	out := Availability{
		ConsultantID: consultantID,
		Date:         date,
		Timezone:     s.location.String(),
		Duration:     duration,
		Slots:        schedule.Clocks(slots, s.location),
	}
	if payload, err := json.Marshal(out); err == nil {
		_ = s.cache.Set(ctx, key, payload, s.cacheTTL)
	}

	out.Slots = schedule.Clocks(schedule.FilterPast(slots, now), s.location)
	return out, nil
}

// SweepCompleted moves CONFIRMED appointments whose end has passed to
// COMPLETED and returns how many were moved.
func (s *Service) SweepCompleted(ctx context.Context, limit int64) (int, error) {
	now := s.clock.Now()
	ids, err := s.repo.DueForCompletion(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("due for completion: %w", err)
	}
	done := 0
	for _, id := range ids {
		_, err := s.repo.Transition(ctx, id, func(a Appointment) (Appointment, error) {
			return autoComplete(a, now)
		})
		if err != nil {
			if errors.Is(err, apperr.ErrInvalidState) || errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return done, fmt.Errorf("auto-complete %s: %w", id, err)
		}
		done++
	}
	return done, nil
}

func (s *Service) transition(ctx context.Context, id string, fn TransitionFunc) (Appointment, error) {
	updated, err := s.repo.Transition(ctx, id, fn)
	if err != nil {
		if apperr.IsBusiness(err) {
			return Appointment{}, err
		}
		return Appointment{}, fmt.Errorf("transition %s: %w", id, err)
	}
	return updated, nil
}

func (s *Service) loadUser(ctx context.Context, id, label string) (users.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, apperr.NotFound(label + " not found")
		}
		return users.User{}, fmt.Errorf("load %s: %w", label, err)
	}
	return u, nil
}

func (s *Service) loadConsultant(ctx context.Context, id string) (users.User, error) {
	u, err := s.loadUser(ctx, id, "consultant")
	if err != nil {
		return users.User{}, err
	}
	if !u.HasRole(users.RoleConsultant) {
		return users.User{}, apperr.Validation("consultant_id", "role mismatch: user is not a consultant")
	}
	return u, nil
}

func (s *Service) project(ctx context.Context, items []Appointment) ([]View, error) {
	ids := make([]string, 0, len(items)*2)
	for _, a := range items {
		ids = append(ids, a.ClientID, a.ConsultantID)
	}
	found, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}

	views := make([]View, 0, len(items))
	for _, a := range items {
		views = append(views, View{
			Appointment: a,
			Client:      participant(found, a.ClientID),
			Consultant:  participant(found, a.ConsultantID),
		})
	}
	return views, nil
}

func participant(found map[string]users.User, id string) *Participant {
	u, ok := found[id]
	if !ok {
		return &Participant{ID: id}
	}
	return &Participant{ID: u.ID, FullName: u.FullName, Email: u.Email}
}

func (s *Service) dropPast(a Availability, now time.Time) []string {
	kept := make([]string, 0, len(a.Slots))
	for _, c := range a.Slots {
		start, err := time.ParseInLocation("2006-01-02 15:04", a.Date+" "+c, s.location)
		if err != nil || !start.After(now) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func (s *Service) invalidateAvailability(ctx context.Context, consultantID string) {
	_ = s.cache.DeletePrefix(ctx, availabilityKey(consultantID))
}

func availabilityKey(consultantID string) string {
	return "availability:" + consultantID + ":"
}
