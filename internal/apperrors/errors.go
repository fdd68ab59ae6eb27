// Package apperrors defines the error kinds the relay distinguishes when a
// polling cycle fails.
package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// Kind labels used in logs and metrics.
const (
	KindAuth      = "auth"
	KindTransient = "transient"
	KindRequest   = "request"
	KindDelivery  = "delivery"
	KindCanceled  = "canceled"
	KindUnknown   = "unknown"
)

// AuthError is returned when the credential exchange fails or the provider
// answers 401.
type AuthError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("auth error on %s (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("auth error on %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransientError covers network failures, 5xx and 429 answers from the provider.
type TransientError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient error on %s (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient error on %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// RequestError is any other non-2xx answer from the provider.
type RequestError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request error on %s (status %d): %s", e.Op, e.StatusCode, e.Body)
}

// DeliveryError is returned when the chat webhook rejects a notification.
type DeliveryError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery error: %v", e.Err)
	}
	return fmt.Sprintf("delivery error (status %d): %s", e.StatusCode, e.Body)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Kind classifies err into one of the Kind* labels.
func Kind(err error) string {
	var (
		authErr      *AuthError
		transientErr *TransientError
		requestErr   *RequestError
		deliveryErr  *DeliveryError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &authErr):
		return KindAuth
	case errors.As(err, &deliveryErr):
		return KindDelivery
	case errors.As(err, &transientErr):
		return KindTransient
	case errors.As(err, &requestErr):
		return KindRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}

// IsAuth reports whether err (or any error in its chain) is an AuthError.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
