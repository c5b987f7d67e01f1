package ports

import (
	"context"

	"github.com/inkpost/blog-platform/internal/core/domain"
)

// RegisterInput carries the fields accepted on sign-up.
type RegisterInput struct {
	FullName string
	Email    string
	Username string
	Password string
	Role     string
}

// AccountService covers account lifecycle operations outside the sign-in flow.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.Account, error)
	Get(ctx context.Context, id string) (*domain.Account, error)
	ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error
	UpdateDetails(ctx context.Context, id, fullName, email string) (*domain.Account, error)
	Delete(ctx context.Context, id string) error
}
