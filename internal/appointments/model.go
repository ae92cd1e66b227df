package appointments

import (
	"time"

	"consult-backend/internal/schedule"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Active appointments hold their slot; only they take part in conflict checks.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

type Type string

const (
	TypeOnline   Type = "ONLINE"
	TypeInPerson Type = "IN_PERSON"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type Appointment struct {
	ID                   string        `bson:"_id" json:"id" gorm:"primaryKey;size:36"`
	ClientID             string        `bson:"client_id" json:"client_id" gorm:"size:64;not null;index"`
	ConsultantID         string        `bson:"consultant_id" json:"consultant_id" gorm:"size:64;not null;index:idx_consultant_start,priority:1"`
	AppointmentDate      time.Time     `bson:"appointment_date" json:"appointment_date" gorm:"not null;index:idx_consultant_start,priority:2"`
	DurationMinutes      int           `bson:"duration_minutes" json:"duration_minutes" gorm:"not null"`
	EndsAt               time.Time     `bson:"ends_at" json:"ends_at" gorm:"not null;index"`
	Status               Status        `bson:"status" json:"status" gorm:"size:16;not null;index"`
	Type                 Type          `bson:"type" json:"type" gorm:"size:16;not null"`
	PaymentStatus        PaymentStatus `bson:"payment_status" json:"payment_status" gorm:"size:16;not null"`
	PaymentTransactionID string        `bson:"payment_transaction_id,omitempty" json:"payment_transaction_id,omitempty" gorm:"size:255"`
	ClientNotes          string        `bson:"client_notes,omitempty" json:"client_notes,omitempty" gorm:"type:text"`
	ConsultantNotes      string        `bson:"consultant_notes,omitempty" json:"consultant_notes,omitempty" gorm:"type:text"`
	MeetingLink          string        `bson:"meeting_link,omitempty" json:"meeting_link,omitempty" gorm:"size:1024"`
	Fee                  int64         `bson:"fee" json:"fee" gorm:"not null"`
	CancelledBy          string        `bson:"cancelled_by,omitempty" json:"cancelled_by,omitempty" gorm:"size:64"`
	CancellationReason   string        `bson:"cancellation_reason,omitempty" json:"cancellation_reason,omitempty" gorm:"type:text"`
	CancelledAt          *time.Time    `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	Version              int64         `bson:"version" json:"-" gorm:"not null;default:0"`
	CreatedAt            time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time     `bson:"updated_at" json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a Appointment) Interval() schedule.Interval {
	return schedule.Interval{Start: a.AppointmentDate, End: a.EndsAt}
}

func (a Appointment) IsParticipant(userID string) bool {
	return userID != "" && (userID == a.ClientID || userID == a.ConsultantID)
}

type BookRequest struct {
	ClientID        string    `json:"client_id" validate:"omitempty,max=64"`
	ConsultantID    string    `json:"consultant_id" validate:"required,max=64"`
	AppointmentDate time.Time `json:"appointment_date" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,slotminutes"`
	Type            Type      `json:"type" validate:"required,oneof=ONLINE IN_PERSON"`
	Fee             int64     `json:"fee" validate:"gte=0"`
	ClientNotes     string    `json:"client_notes" validate:"max=2000"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type CompleteRequest struct {
	ConsultantNotes string `json:"consultant_notes" validate:"max=4000"`
}

type MeetingLinkRequest struct {
	MeetingLink string `json:"meeting_link" validate:"required,url,max=1024"`
}

type PaymentSignal struct {
	TransactionID string        `json:"transaction_id" validate:"required,max=255"`
	Status        PaymentStatus `json:"status" validate:"required,oneof=PAID REFUNDED"`
}

type ListFilter struct {
	ClientID     string
	ConsultantID string
	UpcomingOnly bool
	Now          time.Time
}

// Stats aggregates a consultant's COMPLETED appointments over [From, To).
type Stats struct {
	ConsultantID   string    `json:"consultant_id"`
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	CompletedCount int64     `json:"completed_count"`
	PaidFeesTotal  int64     `json:"paid_fees_total"`
}

// Participant is the read-side projection of an external user.
type Participant struct {
	ID       string `json:"id"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}

type View struct {
	Appointment
	Client     *Participant `json:"client,omitempty"`
	Consultant *Participant `json:"consultant,omitempty"`
}
