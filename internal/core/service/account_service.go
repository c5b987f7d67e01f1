package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkpost/blog-platform/internal/core/domain"
	"github.com/inkpost/blog-platform/internal/core/ports"
)

const minPasswordLength = 8

// AccountService implements registration and self-service account changes.
type AccountService struct {
	repo ports.AccountRepository
	mail ports.MailQueue
	log  zerolog.Logger
}

func NewAccountService(repo ports.AccountRepository, mailQueue ports.MailQueue, log zerolog.Logger) *AccountService {
	return &AccountService{repo: repo, mail: mailQueue, log: log}
}

func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.Account, error) {
	email := normalizeEmail(in.Email)
	username := normalizeUsername(in.Username)

	if in.FullName == "" || email == "" || username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: all fields are required", domain.ErrInvalidRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email is malformed", domain.ErrInvalidRequest)
	}
	// Login treats any identifier containing @ as an email.
	if strings.Contains(username, "@") {
		return nil, fmt.Errorf("%w: username must not contain @", domain.ErrInvalidRequest)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidRequest, minPasswordLength)
	}

	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidRequest, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Account{
		Username:     username,
		Email:        email,
		FullName:     in.FullName,
		PasswordHash: string(hash),
		Role:         role,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.notify(created, subjectWelcome, welcomeMailTmpl)
	s.log.Info().Str("account_id", created.ID).Str("username", created.Username).Msg("account registered")
	return created, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	return s.repo.FindByID(ctx, id)
}

// ChangePassword replaces the hash after checking the current password.
// A wrong current password is a bad request, not an authentication failure:
// the caller is already signed in.
func (s *AccountService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: old and new password are required", domain.ErrInvalidRequest)
	}
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidRequest, minPasswordLength)
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(oldPassword)) != nil {
		return fmt.Errorf("%w: invalid old password", domain.ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, string(hash))
}

func (s *AccountService) UpdateDetails(ctx context.Context, id, fullName, email string) (*domain.Account, error) {
	email = normalizeEmail(email)
	if fullName == "" || email == "" {
		return nil, fmt.Errorf("%w: all fields are required", domain.ErrInvalidRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: email is malformed", domain.ErrInvalidRequest)
	}
	return s.repo.UpdateDetails(ctx, id, fullName, email)
}

// Delete removes the account and queues a farewell notice.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.notify(account, subjectAccountDeleted, accountDeletedMailTmpl)
	s.log.Info().Str("account_id", id).Msg("account deleted")
	return nil
}

func (s *AccountService) notify(account *domain.Account, subject string, tmpl mailTemplate) {
	body, err := renderMail(tmpl, account)
	if err != nil {
		s.log.Warn().Err(err).Str("subject", subject).Msg("failed to render mail")
		return
	}
	s.mail.Enqueue(ports.OutgoingMail{To: account.Email, Subject: subject, HTML: body})
}
