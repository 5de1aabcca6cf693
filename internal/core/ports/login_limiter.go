package ports

import "context"

// LoginLimiter throttles failed login attempts per account.
type LoginLimiter interface {
	// Blocked reports whether the account has exhausted its attempt budget.
	Blocked(ctx context.Context, email string) (bool, error)
	// RecordFailure counts one failed attempt against the account.
	RecordFailure(ctx context.Context, email string) error
	// Reset clears the counter after a successful login.
	Reset(ctx context.Context, email string) error
}
