// Package apperr is the error taxonomy shared by the API and the client SDK.
// Each sentinel has a stable machine code used on the wire.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNoSession       = errors.New("no table session")
	ErrSessionExpired  = errors.New("table session expired")
	ErrInvalidToken    = errors.New("invalid qr token")
	ErrItemUnavailable = errors.New("item unavailable")
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("invalid or conflicting state")
	ErrForbidden       = errors.New("forbidden")
	ErrPaymentTimeout  = errors.New("payment timed out")
	ErrPaymentFailed   = errors.New("payment failed")
	ErrNetwork         = errors.New("network error")
)

const (
	CodeNoSession       = "no-session"
	CodeExpired         = "expired"
	CodeInvalidToken    = "invalid-token"
	CodeItemUnavailable = "item-unavailable"
	CodeValidation      = "validation"
	CodeNotFound        = "not-found"
	CodeConflict        = "conflict"
	CodeForbidden       = "forbidden"
	CodePaymentTimeout  = "payment-timeout"
	CodePaymentFailed   = "payment-failed"
	CodeNetwork         = "network"
	CodeInternal        = "internal"
)

var table = []struct {
	err    error
	code   string
	status int
}{
	{ErrNoSession, CodeNoSession, http.StatusUnauthorized},
	{ErrSessionExpired, CodeExpired, http.StatusUnauthorized},
	{ErrInvalidToken, CodeInvalidToken, http.StatusUnauthorized},
	{ErrItemUnavailable, CodeItemUnavailable, http.StatusConflict},
	{ErrValidation, CodeValidation, http.StatusBadRequest},
	{ErrNotFound, CodeNotFound, http.StatusNotFound},
	{ErrConflict, CodeConflict, http.StatusConflict},
	{ErrForbidden, CodeForbidden, http.StatusForbidden},
	{ErrPaymentTimeout, CodePaymentTimeout, http.StatusGone},
	{ErrPaymentFailed, CodePaymentFailed, http.StatusPaymentRequired},
	{ErrNetwork, CodeNetwork, http.StatusBadGateway},
}

// Validation wraps ErrValidation with a human message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// UnavailableError names the cart lines whose menu item can no longer be
// ordered.
type UnavailableError struct {
	LineIDs []string
}

func (e *UnavailableError) Error() string {
	return "item unavailable: " + strings.Join(e.LineIDs, ",")
}

func (e *UnavailableError) Unwrap() error { return ErrItemUnavailable }

// Code returns the wire code of err.
func Code(err error) string {
	for _, row := range table {
		if errors.Is(err, row.err) {
			return row.code
		}
	}
	return CodeInternal
}

// HTTPStatus returns the status code the API answers err with.
func HTTPStatus(err error) int {
	for _, row := range table {
		if errors.Is(err, row.err) {
			return row.status
		}
	}
	return http.StatusInternalServerError
}

// IsSession reports errors after which no downstream call can succeed.
func IsSession(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrInvalidToken)
}

// FromCode rebuilds a sentinel-wrapped error from a wire code and message.
func FromCode(code, msg string) error {
	for _, row := range table {
		if row.code == code {
			if msg == "" {
				return row.err
			}
			return fmt.Errorf("%w: %s", row.err, msg)
		}
	}
	if msg == "" {
		msg = "request failed"
	}
	return errors.New(msg)
}
