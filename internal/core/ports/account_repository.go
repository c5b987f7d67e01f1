package ports

import (
	"context"

	"github.com/inkpost/blog-platform/internal/core/domain"
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)

	// SetRefreshToken overwrites the stored refresh token. An empty token
	// clears the field.
	SetRefreshToken(ctx context.Context, id, token string) error
	// ReplaceRefreshToken swaps expected for next in a single atomic update.
	// It returns domain.ErrUnauthorized when the stored value is not expected.
	ReplaceRefreshToken(ctx context.Context, id, expected, next string) error

	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateDetails(ctx context.Context, id, fullName, email string) (*domain.Account, error)
	Delete(ctx context.Context, id string) error
}
