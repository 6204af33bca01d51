package models

import "time"

// User is an authenticated identity. The password hash never leaves the
// store/service layers.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile carries the mutable per-user state that is not part of the
// credential itself. IsOnline is owned by the presence tracker.
type Profile struct {
	UserID          int64
	IsOnline        bool
	TermsAccepted   bool
	LastLoginDevice string
}

// PublicUser is the wire representation exposed to other users.
type PublicUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Public strips credential fields for API responses.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email}
}
