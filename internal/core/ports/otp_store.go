package ports

import "context"

// OTPStore holds at most one pending one-time code per email address.
type OTPStore interface {
	// Save stores code for email, replacing any code already pending.
	Save(ctx context.Context, email, code string) error
	// Consume deletes the pending code for email if and only if it equals
	// code. It reports whether the code matched.
	Consume(ctx context.Context, email, code string) (bool, error)
	// Discard removes any pending code for email.
	Discard(ctx context.Context, email string) error
}
