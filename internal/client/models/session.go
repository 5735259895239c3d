// Package models holds the client-side view of a login session.
package models

import "time"

// Session is what credctl remembers between runs. Only the refresh token is
// needed to resume; the access token is kept to avoid an extra round trip.
type Session struct {
	UserID           string
	Username         string
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Active reports whether s carries a refresh token that has not expired at now.
func (s *Session) Active(now time.Time) bool {
	if s == nil || s.RefreshToken == "" || s.UserID == "" {
		return false
	}
	return s.RefreshExpiresAt.IsZero() || now.Before(s.RefreshExpiresAt)
}
