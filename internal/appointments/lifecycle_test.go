package appointments

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"consult-backend/internal/apperr"
)

var lifecycleNow = time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)

func pendingAppointment(t *testing.T) Appointment {
	t.Helper()
	a, err := newAppointment("appt-1", "client-1", BookRequest{
		ConsultantID:    "consultant-1",
		AppointmentDate: lifecycleNow.Add(24 * time.Hour),
		DurationMinutes: 60,
		Type:            TypeOnline,
		Fee:             5000,
		ClientNotes:     " first visit ",
	}, lifecycleNow)
	if err != nil {
		t.Fatalf("newAppointment: %v", err)
	}
	return a
}

func TestNewAppointmentDefaults(t *testing.T) {
	a := pendingAppointment(t)
	if a.Status != StatusPending || a.PaymentStatus != PaymentUnpaid {
		t.Fatalf("unexpected initial state: %s/%s", a.Status, a.PaymentStatus)
	}
	if !a.EndsAt.Equal(a.AppointmentDate.Add(time.Hour)) {
		t.Fatalf("expected end one hour after start, got %v", a.EndsAt)
	}
	if a.ClientNotes != "first visit" {
		t.Fatalf("expected trimmed notes, got %q", a.ClientNotes)
	}
}

func TestNewAppointmentValidation(t *testing.T) {
	valid := BookRequest{
		ConsultantID:    "consultant-1",
		AppointmentDate: lifecycleNow.Add(time.Hour),
		DurationMinutes: 45,
		Type:            TypeInPerson,
	}

	tests := []struct {
		name     string
		clientID string
		mutate   func(*BookRequest)
		field    string
	}{
		{"missing client", "", func(*BookRequest) {}, "client_id"},
		{"missing consultant", "client-1", func(r *BookRequest) { r.ConsultantID = "" }, "consultant_id"},
		{"self booking", "consultant-1", func(*BookRequest) {}, "consultant_id"},
		{"too short", "client-1", func(r *BookRequest) { r.DurationMinutes = 10 }, "duration_minutes"},
		{"too long", "client-1", func(r *BookRequest) { r.DurationMinutes = 481 }, "duration_minutes"},
		{"bad type", "client-1", func(r *BookRequest) { r.Type = "PHONE" }, "type"},
		{"negative fee", "client-1", func(r *BookRequest) { r.Fee = -1 }, "fee"},
		{"past start", "client-1", func(r *BookRequest) { r.AppointmentDate = lifecycleNow.Add(-time.Minute) }, "appointment_date"},
		{"start equals now", "client-1", func(r *BookRequest) { r.AppointmentDate = lifecycleNow }, "appointment_date"},
	}

	for _, tc := range tests {
		req := valid
		tc.mutate(&req)
		_, err := newAppointment("x", tc.clientID, req, lifecycleNow)
		var appErr *apperr.Error
		if !errors.As(err, &appErr) || !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
		if appErr.Field != tc.field {
			t.Fatalf("%s: expected field %q, got %q", tc.name, tc.field, appErr.Field)
		}
	}
}

func TestHappyPath(t *testing.T) {
	a := pendingAppointment(t)
	later := lifecycleNow.Add(time.Minute)

	a, err := confirm(a, "consultant-1", later)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	a, err = attachMeetingLink(a, "consultant-1", "https://meet.example.com/abc", later)
	if err != nil {
		t.Fatalf("meeting link: %v", err)
	}
	a, err = complete(a, "consultant-1", "went well", later)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if a.Status != StatusCompleted || a.ConsultantNotes != "went well" || !a.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected final state: %+v", a)
	}
}

func TestTransitionGuards(t *testing.T) {
	pending := pendingAppointment(t)
	confirmed, _ := confirm(pending, "consultant-1", lifecycleNow)
	completed, _ := complete(confirmed, "consultant-1", "", lifecycleNow)
	cancelled, _ := cancel(pending, "client-1", "sick", lifecycleNow)

	tests := []struct {
		name string
		in   Appointment
		op   func(Appointment) (Appointment, error)
		want error
	}{
		{"client confirms", pending, func(a Appointment) (Appointment, error) { return confirm(a, "client-1", lifecycleNow) }, apperr.ErrUnauthorized},
		{"confirm twice", confirmed, func(a Appointment) (Appointment, error) { return confirm(a, "consultant-1", lifecycleNow) }, apperr.ErrInvalidState},
		{"complete pending", pending, func(a Appointment) (Appointment, error) { return complete(a, "consultant-1", "", lifecycleNow) }, apperr.ErrInvalidState},
		{"client completes pending", pending, func(a Appointment) (Appointment, error) { return complete(a, "client-1", "", lifecycleNow) }, apperr.ErrUnauthorized},
		{"cancel completed", completed, func(a Appointment) (Appointment, error) { return cancel(a, "client-1", "late", lifecycleNow) }, apperr.ErrInvalidState},
		{"cancel cancelled", cancelled, func(a Appointment) (Appointment, error) { return cancel(a, "consultant-1", "dup", lifecycleNow) }, apperr.ErrInvalidState},
		{"stranger cancels", pending, func(a Appointment) (Appointment, error) { return cancel(a, "other", "x", lifecycleNow) }, apperr.ErrUnauthorized},
		{"cancel without reason", pending, func(a Appointment) (Appointment, error) { return cancel(a, "client-1", "  ", lifecycleNow) }, apperr.ErrValidation},
		{"confirm cancelled", cancelled, func(a Appointment) (Appointment, error) { return confirm(a, "consultant-1", lifecycleNow) }, apperr.ErrInvalidState},
		{"link on completed", completed, func(a Appointment) (Appointment, error) {
			return attachMeetingLink(a, "consultant-1", "https://x", lifecycleNow)
		}, apperr.ErrInvalidState},
		{"client sets link", pending, func(a Appointment) (Appointment, error) {
			return attachMeetingLink(a, "client-1", "https://x", lifecycleNow)
		}, apperr.ErrUnauthorized},
	}

	for _, tc := range tests {
		before := tc.in
		got, err := tc.op(tc.in)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !reflect.DeepEqual(got, before) {
			t.Fatalf("%s: rejected transition changed the record", tc.name)
		}
	}
}

func TestCancelRecordsActor(t *testing.T) {
	a := pendingAppointment(t)
	at := lifecycleNow.Add(time.Hour)
	a, err := cancel(a, "consultant-1", " conflict ", at)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if a.CancelledBy != "consultant-1" || a.CancellationReason != "conflict" {
		t.Fatalf("unexpected cancellation fields: %+v", a)
	}
	if a.CancelledAt == nil || !a.CancelledAt.Equal(at) {
		t.Fatalf("expected cancelled_at %v, got %v", at, a.CancelledAt)
	}
}

func TestAutoComplete(t *testing.T) {
	a := pendingAppointment(t)
	if _, err := autoComplete(a, a.EndsAt.Add(time.Hour)); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected pending to be skipped, got %v", err)
	}

	a, _ = confirm(a, "consultant-1", lifecycleNow)
	if _, err := autoComplete(a, a.EndsAt.Add(-time.Second)); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected unfinished appointment to be skipped, got %v", err)
	}
	done, err := autoComplete(a, a.EndsAt)
	if err != nil {
		t.Fatalf("auto-complete at end: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", done.Status)
	}
}

func TestApplyPayment(t *testing.T) {
	a := pendingAppointment(t)

	paid, err := applyPayment(a, PaymentSignal{TransactionID: "tx-1", Status: PaymentPaid}, lifecycleNow)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if paid.PaymentStatus != PaymentPaid || paid.PaymentTransactionID != "tx-1" {
		t.Fatalf("unexpected payment state: %+v", paid)
	}
	if _, err := applyPayment(paid, PaymentSignal{TransactionID: "tx-2", Status: PaymentPaid}, lifecycleNow); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected double payment rejected, got %v", err)
	}
	if _, err := applyPayment(a, PaymentSignal{TransactionID: "tx-3", Status: PaymentRefunded}, lifecycleNow); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected refund of unpaid rejected, got %v", err)
	}
	refunded, err := applyPayment(paid, PaymentSignal{TransactionID: "tx-4", Status: PaymentRefunded}, lifecycleNow)
	if err != nil || refunded.PaymentStatus != PaymentRefunded {
		t.Fatalf("refund: %v %+v", err, refunded)
	}

	cancelled, _ := cancel(a, "client-1", "no", lifecycleNow)
	if _, err := applyPayment(cancelled, PaymentSignal{TransactionID: "tx-5", Status: PaymentPaid}, lifecycleNow); !errors.Is(err, apperr.ErrInvalidState) {
		t.Fatalf("expected payment on cancelled rejected, got %v", err)
	}
	if _, err := applyPayment(a, PaymentSignal{Status: PaymentPaid}, lifecycleNow); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected missing transaction id rejected, got %v", err)
	}
}
