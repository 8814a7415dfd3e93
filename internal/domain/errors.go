package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ExpiredTokenMessage is the exact backend message that marks a recoverable 401.
const ExpiredTokenMessage = "Token is invalid or expired."

// Rejection reasons surfaced by the coupon evaluator.
const (
	ReasonBelowMinimum = "below minimum purchase"
	ReasonExpired      = "expired"
	ReasonUsageLimit   = "usage limit reached"
	ReasonOutOfStock   = "insufficient stock"
)

// ErrNoSession is returned when an operation needs a signed-in user.
var ErrNoSession = errors.New("no active session")

// ErrPaymentDismissed is returned when the user closes the payment modal.
var ErrPaymentDismissed = errors.New("payment cancelled by user")

// NetworkError is a transport failure: no response was received.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthExpiredError is a 401 carrying the expiry marker that could not be
// recovered by a refresh, because the request had already been replayed.
type AuthExpiredError struct {
	URL string
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("access token rejected after refresh: %s", e.URL)
}

// AuthFailedError means the refresh itself failed. The session is gone.
type AuthFailedError struct {
	Err error
}

func (e *AuthFailedError) Error() string {
	return fmt.Sprintf("session refresh failed: %v", e.Err)
}

func (e *AuthFailedError) Unwrap() error { return e.Err }

// FieldError is a single failing checkout field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field that blocked submission.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Has reports whether field is among the failures.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// BusinessRuleRejection is a recoverable, user-facing refusal (coupon ineligible, stock short).
type BusinessRuleRejection struct {
	Rule   string
	Reason string
}

func (e *BusinessRuleRejection) Error() string {
	return fmt.Sprintf("%s rejected: %s", e.Rule, e.Reason)
}

// PaymentProviderError is a failure reported by the payment provider's callback.
type PaymentProviderError struct {
	Reason    string
	PaymentID string
}

func (e *PaymentProviderError) Error() string {
	return "payment failed: " + e.Reason
}

// APIError is a non-2xx backend response that was not intercepted.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}
