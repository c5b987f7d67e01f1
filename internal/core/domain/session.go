package domain

import "time"

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AccessClaims is the verified payload of an access token.
type AccessClaims struct {
	AccountID string
	Username  string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// LoginOutcome is the result of a step in the sign-in flow. It is either
// NeedsOTP (password accepted, code mailed) or Authenticated (tokens minted).
type LoginOutcome interface {
	loginOutcome()
}

// NeedsOTP means a one-time code was sent to Email and must be verified
// before any token is issued.
type NeedsOTP struct {
	Email string
}

// Authenticated carries the signed-in account and its freshly minted tokens.
type Authenticated struct {
	Account *Account
	Tokens  TokenPair
}

func (NeedsOTP) loginOutcome()      {}
func (Authenticated) loginOutcome() {}
