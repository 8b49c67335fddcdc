package models

import "time"

// User is created on first profile sync and never deleted. Subject is the
// identity provider's subject id: unique, immutable, the only lookup key the
// auth layer knows about. Email is written once at first sync; name and
// image track the provider on every sync.
type User struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Subject   string    `bson:"subject" json:"-"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Image     string    `bson:"image" json:"image"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
