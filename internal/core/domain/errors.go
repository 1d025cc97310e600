package domain

import "errors"

// Identity and credential errors.
var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAuthenticationFailed is the only login failure callers ever see.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrTooManyAttempts      = errors.New("too many login attempts")
	ErrInvalidInput         = errors.New("invalid input")
)

// Request authorization errors.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("access forbidden")
)

// Token validation errors.
var (
	ErrTokenMalformed       = errors.New("token malformed")
	ErrTokenBadSignature    = errors.New("token signature invalid")
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenSubjectMismatch = errors.New("token subject mismatch")
)

var ErrTaskNotFound = errors.New("task not found")
