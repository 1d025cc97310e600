package ports

import "context"

// LoginThrottle counts failed logins per email and locks an email out after
// too many failures inside a window.
type LoginThrottle interface {
	Allowed(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}
