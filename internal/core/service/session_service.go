package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/inkpost/blog-platform/internal/core/domain"
	"github.com/inkpost/blog-platform/internal/core/ports"
)

// SessionService orchestrates sign-in: password, then emailed code, then
// tokens. The "awaiting code" state is not held here; it is the presence of a
// pending code in the OTP store for the account's email.
type SessionService struct {
	credentials ports.CredentialVerifier
	otp         ports.OTPService
	tokens      ports.TokenService
	mail        ports.MailQueue
	log         zerolog.Logger
}

func NewSessionService(
	credentials ports.CredentialVerifier,
	otp ports.OTPService,
	tokens ports.TokenService,
	mail ports.MailQueue,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		credentials: credentials,
		otp:         otp,
		tokens:      tokens,
		mail:        mail,
		log:         log,
	}
}

// Login checks the password and, only on success, sends a one-time code.
// It never returns tokens.
func (s *SessionService) Login(ctx context.Context, creds ports.Credentials) (domain.LoginOutcome, error) {
	account, err := s.credentials.Verify(ctx, creds)
	if err != nil {
		return nil, err
	}

	if err := s.otp.Issue(ctx, account.Email); err != nil {
		return nil, err
	}

	s.log.Info().Str("account_id", account.ID).Msg("password accepted, awaiting otp")
	return domain.NeedsOTP{Email: account.Email}, nil
}

// VerifyOTP completes sign-in and mints the session tokens.
func (s *SessionService) VerifyOTP(ctx context.Context, email, code string) (domain.LoginOutcome, error) {
	account, err := s.otp.Verify(ctx, email, code)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.IssuePair(ctx, account)
	if err != nil {
		return nil, err
	}
	account.RefreshToken = pair.RefreshToken

	if body, err := renderMail(loginNoticeMailTmpl, account); err == nil {
		s.mail.Enqueue(ports.OutgoingMail{To: account.Email, Subject: subjectLoginNotice, HTML: body})
	} else {
		s.log.Warn().Err(err).Msg("failed to render login notice")
	}

	s.log.Info().Str("account_id", account.ID).Msg("session established")
	return domain.Authenticated{Account: account, Tokens: pair}, nil
}

// Refresh rotates the session tokens.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (domain.LoginOutcome, error) {
	pair, account, err := s.tokens.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return domain.Authenticated{Account: account, Tokens: pair}, nil
}

// Logout revokes the account's refresh capability.
func (s *SessionService) Logout(ctx context.Context, accountID string) error {
	if err := s.tokens.Revoke(ctx, accountID); err != nil {
		return err
	}
	s.log.Info().Str("account_id", accountID).Msg("session revoked")
	return nil
}
