package domain

import "errors"

var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidOTP      = errors.New("invalid one-time code")
	ErrTokenExpired    = errors.New("token expired")
	ErrForbidden       = errors.New("access forbidden")
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrDeliveryFailed  = errors.New("mail delivery failed")
)

// IsUnauthorized reports whether err belongs to the 401 family: bad
// credentials, a rejected one-time code, or an invalid or expired token.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidOTP) ||
		errors.Is(err, ErrTokenExpired)
}
