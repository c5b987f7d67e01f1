package service

import (
	"context"
	"errors"
	"testing"

	"github.com/inkpost/blog-platform/internal/core/domain"
	"github.com/inkpost/blog-platform/internal/core/ports"
)

func TestCredentialVerifier_ByEmail(t *testing.T) {
	repo := newStubAccountRepo()
	seeded := repo.seed(t, "alice", "alice@x.com", "pw123456", domain.RoleUser)
	v := NewCredentialVerifier(repo)

	account, err := v.Verify(context.Background(), ports.Credentials{Email: "alice@x.com", Password: "pw123456"})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if account.ID != seeded.ID {
		t.Fatalf("expected account %s, got %s", seeded.ID, account.ID)
	}
}

func TestCredentialVerifier_ByUsername(t *testing.T) {
	repo := newStubAccountRepo()
	seeded := repo.seed(t, "alice", "alice@x.com", "pw123456", domain.RoleUser)
	v := NewCredentialVerifier(repo)

	account, err := v.Verify(context.Background(), ports.Credentials{Username: "Alice", Password: "pw123456"})
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if account.ID != seeded.ID {
		t.Fatalf("expected account %s, got %s", seeded.ID, account.ID)
	}
}

func TestCredentialVerifier_WrongPassword(t *testing.T) {
	repo := newStubAccountRepo()
	repo.seed(t, "alice", "alice@x.com", "pw123456", domain.RoleUser)
	v := NewCredentialVerifier(repo)

	_, err := v.Verify(context.Background(), ports.Credentials{Email: "alice@x.com", Password: "nope"})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestCredentialVerifier_MissingFields(t *testing.T) {
	v := NewCredentialVerifier(newStubAccountRepo())

	cases := []ports.Credentials{
		{Password: "pw123456"},
		{Email: "  ", Username: "", Password: "pw123456"},
		{Email: "alice@x.com"},
	}
	for _, creds := range cases {
		if _, err := v.Verify(context.Background(), creds); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("expected ErrInvalidRequest for %+v, got %v", creds, err)
		}
	}
}

func TestCredentialVerifier_UnknownAccount(t *testing.T) {
	v := NewCredentialVerifier(newStubAccountRepo())

	_, err := v.Verify(context.Background(), ports.Credentials{Email: "ghost@x.com", Password: "pw123456"})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestCredentialVerifier_SuspendedAccount(t *testing.T) {
	repo := newStubAccountRepo()
	seeded := repo.seed(t, "mallory", "mallory@x.com", "pw123456", domain.RoleUser)
	repo.byID[seeded.ID].Status = domain.StatusSuspended
	v := NewCredentialVerifier(repo)

	_, err := v.Verify(context.Background(), ports.Credentials{Email: "mallory@x.com", Password: "pw123456"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
