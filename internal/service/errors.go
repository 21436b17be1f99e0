package service

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError reports an inbound payload that is missing required fields
// or cannot be decoded.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	msg := "invalid payload"
	if len(e.Fields) > 0 {
		msg += ": missing or invalid field(s): " + strings.Join(e.Fields, ", ")
	}
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

// NotFoundError reports a lookup that found nothing usable. Resource is one
// of "offer", "offer_owner" or "device_token".
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s not found for %q", e.Resource, e.ID)
}

// AuthError wraps a failed service account token exchange.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return "obtaining FCM access token: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }

// GatewayError is a JSON error response from FCM.
type GatewayError struct {
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("sending notification failed (status %d): %s", e.StatusCode, e.Message)
}

// ProtocolError is a response from FCM that is not JSON.
type ProtocolError struct {
	StatusCode int
	Body       string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected response from FCM (status %d): %s", e.StatusCode, e.Body)
}

// ErrorType names the taxonomy bucket of err, or "internal".
func ErrorType(err error) string {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		authErr       *AuthError
		gatewayErr    *GatewayError
		protocolErr   *ProtocolError
	)
	switch {
	case errors.As(err, &validationErr):
		return "validation_error"
	case errors.As(err, &notFoundErr):
		return "not_found"
	case errors.As(err, &authErr):
		return "auth_error"
	case errors.As(err, &gatewayErr):
		return "gateway_error"
	case errors.As(err, &protocolErr):
		return "protocol_error"
	default:
		return "internal"
	}
}
