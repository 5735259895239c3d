package authapi

import "time"

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// User is the public view of an account.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterResponse struct {
	User User `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries a token pair. UserID lets the client address a
// later refresh without decoding the access token.
type TokenResponse struct {
	UserID           string    `json:"user_id"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// RefreshRequest identifies the user by UserID, by AccessToken or both. An
// expired access token is accepted for this purpose.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id,omitempty"`
	AccessToken  string `json:"access_token,omitempty"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type WhoAmIRequest struct{}

type WhoAmIResponse struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ProbeRequest struct{}

type ProbeResponse struct {
	Message string `json:"message"`
}
