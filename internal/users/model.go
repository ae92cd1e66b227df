package users

import "time"

const (
	RoleClient     = "client"
	RoleConsultant = "consultant"
	RoleAdmin      = "admin"
)

// User is a read-only view of an identity owned by the external identity
// store. Scheduling only needs existence, roles and display fields.
type User struct {
	ID        string    `bson:"_id" json:"id" gorm:"primaryKey;size:64"`
	FullName  string    `bson:"full_name" json:"full_name" gorm:"size:255"`
	Email     string    `bson:"email,omitempty" json:"email,omitempty" gorm:"size:255"`
	Roles     []string  `bson:"roles" json:"roles" gorm:"serializer:json;type:text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
