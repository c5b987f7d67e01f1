package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/inkpost/blog-platform/internal/core/domain"
	"github.com/inkpost/blog-platform/internal/core/ports"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 10 * 24 * time.Hour
)

// TokenConfig holds the signing secrets and lifetimes for both tokens.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type accessClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// TokenService signs access and refresh tokens and keeps the account's stored
// refresh token as the single source of truth for refresh validity.
type TokenService struct {
	repo          ports.AccountRepository
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenService(repo ports.AccountRepository, cfg TokenConfig) *TokenService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &TokenService{
		repo:          repo,
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

// IssuePair mints a new pair and stores the refresh token on the account,
// overwriting whatever was there.
func (s *TokenService) IssuePair(ctx context.Context, account *domain.Account) (domain.TokenPair, error) {
	pair, err := s.mint(account)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if err := s.repo.SetRefreshToken(ctx, account.ID, pair.RefreshToken); err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	return pair, nil
}

// Rotate exchanges a valid refresh token for a new pair. The presented token
// must equal the stored one; the swap is conditional on it so that only one
// of several concurrent rotations of the same token can win.
func (s *TokenService) Rotate(ctx context.Context, presented string) (domain.TokenPair, *domain.Account, error) {
	if presented == "" {
		return domain.TokenPair{}, nil, domain.ErrUnauthorized
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := s.parse(presented, claims, s.refreshSecret); err != nil {
		return domain.TokenPair{}, nil, domain.ErrUnauthorized
	}

	account, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return domain.TokenPair{}, nil, domain.ErrUnauthorized
		}
		return domain.TokenPair{}, nil, fmt.Errorf("rotate tokens: %w", err)
	}
	if account.RefreshToken == "" || account.RefreshToken != presented {
		return domain.TokenPair{}, nil, domain.ErrUnauthorized
	}
	if !account.IsActive() {
		return domain.TokenPair{}, nil, domain.ErrUnauthorized
	}

	pair, err := s.mint(account)
	if err != nil {
		return domain.TokenPair{}, nil, err
	}
	if err := s.repo.ReplaceRefreshToken(ctx, account.ID, presented, pair.RefreshToken); err != nil {
		return domain.TokenPair{}, nil, err
	}
	account.RefreshToken = pair.RefreshToken

	return pair, account, nil
}

// Revoke clears the stored refresh token so no outstanding refresh token can
// be rotated again.
func (s *TokenService) Revoke(ctx context.Context, accountID string) error {
	if err := s.repo.SetRefreshToken(ctx, accountID, ""); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}

// ParseAccess verifies an access token and returns its claims.
func (s *TokenService) ParseAccess(token string) (*domain.AccessClaims, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	claims := &accessClaims{}
	if _, err := s.parse(token, claims, s.accessSecret); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrUnauthorized
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return &domain.AccessClaims{
		AccountID: claims.Subject,
		Username:  claims.Username,
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresAt: exp,
	}, nil
}

func (s *TokenService) parse(token string, claims jwt.Claims, secret []byte) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
}

func (s *TokenService) mint(account *domain.Account) (domain.TokenPair, error) {
	now := s.now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		Username: account.Username,
		Email:    account.Email,
		Role:     account.Role,
	})
	accessToken, err := access.SignedString(s.accessSecret)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   account.ID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
	})
	refreshToken, err := refresh.SignedString(s.refreshSecret)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return domain.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
