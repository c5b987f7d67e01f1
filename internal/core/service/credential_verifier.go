package service

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkpost/blog-platform/internal/core/domain"
	"github.com/inkpost/blog-platform/internal/core/ports"
)

// CredentialVerifier checks an email-or-username and password pair against
// the stored bcrypt hash. It never writes.
type CredentialVerifier struct {
	repo ports.AccountRepository
}

func NewCredentialVerifier(repo ports.AccountRepository) *CredentialVerifier {
	return &CredentialVerifier{repo: repo}
}

// Verify resolves the account by email when one is given, otherwise by
// username, and compares the password.
func (v *CredentialVerifier) Verify(ctx context.Context, creds ports.Credentials) (*domain.Account, error) {
	email := normalizeEmail(creds.Email)
	username := normalizeUsername(creds.Username)

	if email == "" && username == "" {
		return nil, fmt.Errorf("%w: username or email is required", domain.ErrInvalidRequest)
	}
	if creds.Password == "" {
		return nil, fmt.Errorf("%w: password is required", domain.ErrInvalidRequest)
	}

	var (
		account *domain.Account
		err     error
	)
	if email != "" {
		account, err = v.repo.FindByEmail(ctx, email)
	} else {
		account, err = v.repo.FindByUsername(ctx, username)
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(creds.Password)) != nil {
		return nil, domain.ErrUnauthorized
	}
	if !account.IsActive() {
		return nil, domain.ErrForbidden
	}

	return account, nil
}
