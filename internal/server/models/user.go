// Package models defines server-side data models.
package models

import "time"

// User is the persisted identity record. PasswordHash is a self-describing
// encoded hash whose prefix names the algorithm. RefreshTokenHash holds the
// SHA-256 of the single live refresh token and is empty when none exists.
type User struct {
	ID                    string    `json:"id"`
	UserName              string    `json:"username"`
	PasswordHash          string    `json:"-"`
	Role                  Role      `json:"role"`
	RefreshTokenHash      string    `json:"-"`
	RefreshTokenExpiresAt time.Time `json:"-"`
	CreatedAt             time.Time `json:"created_at"`
}

// Public returns a copy of u that is safe to hand to the transport layer.
func (u *User) Public() *User {
	return &User{
		ID:        u.ID,
		UserName:  u.UserName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// HasRefreshToken reports whether a refresh token is stored, regardless of
// its expiry.
func (u *User) HasRefreshToken() bool {
	return u.RefreshTokenHash != ""
}
