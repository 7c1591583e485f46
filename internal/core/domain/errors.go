package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrUserNotFound       = errors.New("user not found")
	ErrAdminNotFound      = errors.New("admin not found")
	ErrUserExists         = errors.New("username or endpoint ID already exists")
	ErrAdminExists        = errors.New("admin already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotTenant          = errors.New("principal has no tenant resource")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
)

// UpstreamError is returned when the external profile API fails. Message is
// the provider's own message when it sent one, otherwise a generic summary.
type UpstreamError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream %s: %s", e.Op, e.Message)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
