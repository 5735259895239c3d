package models

import "time"

// TokenPair bundles a short-lived access token and a long-lived refresh token
// issued to UserID.
type TokenPair struct {
	UserID           string
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}
