package domain

import "time"

// Session is the token pair persisted for the browsing session.
type Session struct {
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// TokenStore is the origin-scoped, cookie-like persistence for session tokens.
// Implementations never fail towards the caller.
type TokenStore interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration)
	Clear(keys ...string)
}

type contextKey string

// UserIDContextKey carries the signed-in user id through gateway requests.
const UserIDContextKey contextKey = "userID"
