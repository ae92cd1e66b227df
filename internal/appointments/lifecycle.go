package appointments

import (
	"strings"
	"time"

	"consult-backend/internal/apperr"
	"consult-backend/internal/schedule"
)

// The functions in this file are the only writers of Appointment state.
// Each takes the record by value and returns the next version, so a guard
// failure can never leave a half-applied change behind.

func newAppointment(id, clientID string, req BookRequest, now time.Time) (Appointment, error) {
	if strings.TrimSpace(clientID) == "" {
		return Appointment{}, apperr.Validation("client_id", "required")
	}
	if strings.TrimSpace(req.ConsultantID) == "" {
		return Appointment{}, apperr.Validation("consultant_id", "required")
	}
	if clientID == req.ConsultantID {
		return Appointment{}, apperr.Validation("consultant_id", "client and consultant must differ")
	}
	if !schedule.ValidDuration(req.DurationMinutes) {
		return Appointment{}, apperr.Validation("duration_minutes", "must be between 15 and 480 minutes")
	}
	if req.Type != TypeOnline && req.Type != TypeInPerson {
		return Appointment{}, apperr.Validation("type", "must be ONLINE or IN_PERSON")
	}
	if req.Fee < 0 {
		return Appointment{}, apperr.Validation("fee", "must not be negative")
	}
	if req.AppointmentDate.IsZero() || !req.AppointmentDate.After(now) {
		return Appointment{}, apperr.Validation("appointment_date", "must be in the future")
	}

	end := schedule.EndOf(req.AppointmentDate, req.DurationMinutes)
	return Appointment{
		ID:              id,
		ClientID:        clientID,
		ConsultantID:    req.ConsultantID,
		AppointmentDate: req.AppointmentDate,
		DurationMinutes: req.DurationMinutes,
		EndsAt:          end,
		Status:          StatusPending,
		Type:            req.Type,
		PaymentStatus:   PaymentUnpaid,
		ClientNotes:     strings.TrimSpace(req.ClientNotes),
		Fee:             req.Fee,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func confirm(a Appointment, actorID string, now time.Time) (Appointment, error) {
	if actorID != a.ConsultantID {
		return a, apperr.Unauthorized("only the consultant can confirm")
	}
	if a.Status != StatusPending {
		return a, apperr.InvalidState("cannot confirm a " + string(a.Status) + " appointment")
	}
	a.Status = StatusConfirmed
	a.UpdatedAt = now
	return a, nil
}

func cancel(a Appointment, actorID, reason string, now time.Time) (Appointment, error) {
	if !a.IsParticipant(actorID) {
		return a, apperr.Unauthorized("only participants can cancel")
	}
	if !a.Status.Active() {
		return a, apperr.InvalidState("cannot cancel a " + string(a.Status) + " appointment")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return a, apperr.Validation("reason", "required")
	}
	a.Status = StatusCancelled
	a.CancelledBy = actorID
	a.CancellationReason = reason
	at := now
	a.CancelledAt = &at
	a.UpdatedAt = now
	return a, nil
}

func complete(a Appointment, actorID, notes string, now time.Time) (Appointment, error) {
	if actorID != a.ConsultantID {
		return a, apperr.Unauthorized("only the consultant can complete")
	}
	if a.Status != StatusConfirmed {
		return a, apperr.InvalidState("cannot complete a " + string(a.Status) + " appointment")
	}
	a.Status = StatusCompleted
	if notes = strings.TrimSpace(notes); notes != "" {
		a.ConsultantNotes = notes
	}
	a.UpdatedAt = now
	return a, nil
}

func attachMeetingLink(a Appointment, actorID, link string, now time.Time) (Appointment, error) {
	if actorID != a.ConsultantID {
		return a, apperr.Unauthorized("only the consultant can set the meeting link")
	}
	if a.Status.Terminal() {
		return a, apperr.InvalidState("cannot change a " + string(a.Status) + " appointment")
	}
	link = strings.TrimSpace(link)
	if link == "" {
		return a, apperr.Validation("meeting_link", "required")
	}
	a.MeetingLink = link
	a.UpdatedAt = now
	return a, nil
}

// autoComplete is the sweep transition. It re-checks state so an appointment
// cancelled after it was selected is left alone.
func autoComplete(a Appointment, now time.Time) (Appointment, error) {
	if a.Status != StatusConfirmed {
		return a, apperr.InvalidState("only confirmed appointments are auto-completed")
	}
	if a.EndsAt.After(now) {
		return a, apperr.InvalidState("appointment has not ended yet")
	}
	a.Status = StatusCompleted
	a.UpdatedAt = now
	return a, nil
}

func applyPayment(a Appointment, signal PaymentSignal, now time.Time) (Appointment, error) {
	txID := strings.TrimSpace(signal.TransactionID)
	if txID == "" {
		return a, apperr.Validation("transaction_id", "required")
	}
	switch signal.Status {
	case PaymentPaid:
		if a.PaymentStatus != PaymentUnpaid {
			return a, apperr.InvalidState("payment already " + string(a.PaymentStatus))
		}
		if a.Status == StatusCancelled {
			return a, apperr.InvalidState("cannot pay a cancelled appointment")
		}
	case PaymentRefunded:
		if a.PaymentStatus != PaymentPaid {
			return a, apperr.InvalidState("only paid appointments can be refunded")
		}
	default:
		return a, apperr.Validation("status", "must be PAID or REFUNDED")
	}
	a.PaymentStatus = signal.Status
	a.PaymentTransactionID = txID
	a.UpdatedAt = now
	return a, nil
}
