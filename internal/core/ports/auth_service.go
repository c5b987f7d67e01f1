package ports

import (
	"context"

	"github.com/inkpost/blog-platform/internal/core/domain"
)

// Credentials identifies an account by email or username plus password.
type Credentials struct {
	Email    string
	Username string
	Password string
}

// CredentialVerifier checks a password against the stored hash.
type CredentialVerifier interface {
	Verify(ctx context.Context, creds Credentials) (*domain.Account, error)
}

// OTPService issues and verifies email one-time codes.
type OTPService interface {
	Issue(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (*domain.Account, error)
}

// TokenService mints, rotates and revokes session tokens.
type TokenService interface {
	IssuePair(ctx context.Context, account *domain.Account) (domain.TokenPair, error)
	Rotate(ctx context.Context, refreshToken string) (domain.TokenPair, *domain.Account, error)
	Revoke(ctx context.Context, accountID string) error
	ParseAccess(token string) (*domain.AccessClaims, error)
}

// SessionService drives the sign-in state machine:
// Anonymous -> AwaitingOtp -> Authenticated.
type SessionService interface {
	Login(ctx context.Context, creds Credentials) (domain.LoginOutcome, error)
	VerifyOTP(ctx context.Context, email, code string) (domain.LoginOutcome, error)
	Refresh(ctx context.Context, refreshToken string) (domain.LoginOutcome, error)
	Logout(ctx context.Context, accountID string) error
}
