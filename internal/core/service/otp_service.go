package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/inkpost/blog-platform/internal/core/domain"
	"github.com/inkpost/blog-platform/internal/core/ports"
)

const (
	otpLowest = 100000
	otpSpan   = 900000
)

// OTPService issues six-digit email codes and verifies them exactly once.
type OTPService struct {
	store    ports.OTPStore
	accounts ports.AccountRepository
	mailer   ports.Mailer
	log      zerolog.Logger
	generate func() (string, error)
}

func NewOTPService(store ports.OTPStore, accounts ports.AccountRepository, mailer ports.Mailer, log zerolog.Logger) *OTPService {
	return &OTPService{
		store:    store,
		accounts: accounts,
		mailer:   mailer,
		log:      log,
		generate: GenerateOTP,
	}
}

// GenerateOTP returns a uniformly random code in the range 100000-999999.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return strconv.FormatInt(n.Int64()+otpLowest, 10), nil
}

// Issue stores a fresh code for email, replacing any pending one, and mails
// it. Delivery is on the critical path: a mail failure fails the call.
func (s *OTPService) Issue(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidRequest)
	}

	code, err := s.generate()
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, email, code); err != nil {
		return fmt.Errorf("issue otp: save: %w", err)
	}

	body, err := renderMail(otpMailTmpl, struct{ Code string }{Code: code})
	if err != nil {
		return fmt.Errorf("issue otp: render: %w", err)
	}

	if err := s.mailer.Send(ctx, email, subjectOTP, body); err != nil {
		if discardErr := s.store.Discard(ctx, email); discardErr != nil {
			s.log.Warn().Err(discardErr).Str("email", email).Msg("failed to discard undelivered otp")
		}
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}

	s.log.Debug().Str("email", email).Msg("otp issued")
	return nil
}

// Verify consumes the pending code for email when it matches and returns the
// owning account. A wrong code leaves the pending code in place.
func (s *OTPService) Verify(ctx context.Context, email, code string) (*domain.Account, error) {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return nil, fmt.Errorf("%w: email and OTP are required", domain.ErrInvalidRequest)
	}

	ok, err := s.store.Consume(ctx, email, code)
	if err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return nil, domain.ErrInvalidOTP
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, domain.ErrForbidden
	}
	return account, nil
}
