package user

import (
	"time"
)

// User is the minimal identity record the auth subsystem reads and updates.
// PasswordHash is empty for accounts created through an OAuth provider; such
// accounts cannot use password flows until a password is set.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasPassword reports whether local (password) login is possible at all.
func (u *User) HasPassword() bool {
	return u != nil && u.PasswordHash != ""
}
