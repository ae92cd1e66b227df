package reviews

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is keyed one-to-one on its appointment. ConsultantID is copied from
// the appointment at creation time.
type Review struct {
	ID            string    `bson:"_id" json:"id" gorm:"primaryKey;size:64"`
	AppointmentID string    `bson:"appointment_id" json:"appointment_id" gorm:"size:64;uniqueIndex"`
	ClientID      string    `bson:"client_id" json:"client_id" gorm:"size:64;index"`
	ConsultantID  string    `bson:"consultant_id" json:"consultant_id" gorm:"size:64;index"`
	Rating        int       `bson:"rating" json:"rating"`
	Comment       string    `bson:"comment,omitempty" json:"comment,omitempty" gorm:"type:text"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

func (Review) TableName() string {
	return "reviews"
}

type CreateRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type UpdateRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Comment *string `json:"comment" validate:"omitempty,max=2000"`
}

type Summary struct {
	ConsultantID string  `json:"consultant_id" bson:"_id"`
	Average      float64 `json:"average" bson:"average"`
	Count        int64   `json:"count" bson:"count"`
}
