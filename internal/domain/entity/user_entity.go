package entity

import (
	"time"
)

// User is the operator who owns studies. Invitation emails are sent from
// their address.
// Passwords are stored as bcrypt hashes in Password field
type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
