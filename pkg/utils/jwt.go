package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of access-token claims the storefront reads.
type Claims struct {
	UserID    string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// PeekClaims decodes an access token WITHOUT verifying its signature.
// The backend owns verification; the client only needs the user id for
// path parameters and the expiry for the cookie TTL.
func PeekClaims(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("no token found")
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, mapClaims); err != nil {
		return nil, fmt.Errorf("malformed access token: %w", err)
	}

	claims := &Claims{}
	// Backends disagree on where the user id lives
	for _, key := range []string{"userId", "id", "_id", "sub"} {
		if v, ok := mapClaims[key].(string); ok && v != "" {
			claims.UserID = v
			break
		}
	}
	claims.Email, _ = mapClaims["email"].(string)
	claims.Role, _ = mapClaims["role"].(string)

	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	if claims.UserID == "" {
		return nil, fmt.Errorf("access token carries no user id")
	}
	return claims, nil
}

// TTLUntil returns how long the token remains valid, or fallback when the
// token carries no expiry or is already past it.
func (c *Claims) TTLUntil(now time.Time, fallback time.Duration) time.Duration {
	if c == nil || c.ExpiresAt.IsZero() {
		return fallback
	}
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return fallback
}
