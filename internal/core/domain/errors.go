package domain

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrSessionRevoked     = errors.New("session revoked")
	ErrDecodeFailure      = errors.New("malformed backend response")
	ErrNetwork            = errors.New("backend unreachable")
	ErrBackend            = errors.New("backend error")
)

// User-facing messages shared by the action boundary and the HTTP layer.
const (
	MsgUnauthorized       = "Unauthorized"
	MsgForbiddenWrite     = "Forbidden: CUSTOMER_WRITE role required"
	MsgInvalidCredentials = "Invalid username or password"
	MsgSomethingWrong     = "Something went wrong. Please try again."
	MsgInvalidRequest     = "Invalid request data."
)

// ValidationError carries field-level messages keyed by form field name.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}
