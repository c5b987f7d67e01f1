package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/inkpost/blog-platform/internal/core/domain"
	"github.com/inkpost/blog-platform/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Account repository stub
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Account
	nextID int
	setErr error
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{byID: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.byID {
		if a.Email == account.Email || a.Username == account.Username {
			return nil, domain.ErrAccountExists
		}
	}
	r.nextID++
	stored := cloneAccount(account)
	stored.ID = "acc_" + strconv.Itoa(r.nextID)
	r.byID[stored.ID] = stored
	return cloneAccount(stored), nil
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.byID {
		if a.Email == email {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.byID {
		if a.Username == username {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) SetRefreshToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.setErr != nil {
		return r.setErr
	}
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.RefreshToken = token
	return nil
}

func (r *stubAccountRepo) ReplaceRefreshToken(_ context.Context, id, expected, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok || a.RefreshToken != expected {
		return domain.ErrUnauthorized
	}
	a.RefreshToken = next
	return nil
}

func (r *stubAccountRepo) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (r *stubAccountRepo) UpdateDetails(_ context.Context, id, fullName, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	a.FullName = fullName
	a.Email = email
	return cloneAccount(a), nil
}

func (r *stubAccountRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubAccountRepo) storedRefresh(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].RefreshToken
}

// seed stores an active account with a cheaply hashed password.
func (r *stubAccountRepo) seed(t *testing.T, username, email, password, role string) *domain.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	created, err := r.Create(context.Background(), &domain.Account{
		Username:     username,
		Email:        email,
		FullName:     username,
		PasswordHash: string(hash),
		Role:         role,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return created
}

// ---------------------------------------------------------------------------
// OTP store stub
// ---------------------------------------------------------------------------

type stubOTPStore struct {
	mu    sync.Mutex
	codes map[string]string
}

func newStubOTPStore() *stubOTPStore {
	return &stubOTPStore{codes: make(map[string]string)}
}

func (s *stubOTPStore) Save(_ context.Context, email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[email] = code
	return nil
}

func (s *stubOTPStore) Consume(_ context.Context, email, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.codes[email]
	if !ok || stored != code {
		return false, nil
	}
	delete(s.codes, email)
	return true, nil
}

func (s *stubOTPStore) Discard(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, email)
	return nil
}

func (s *stubOTPStore) pending(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[email]
	return code, ok
}

// ---------------------------------------------------------------------------
// Mail stubs
// ---------------------------------------------------------------------------

type sentMail struct {
	to, subject, body string
}

type stubMailer struct {
	err  error
	sent []sentMail
}

func (m *stubMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// lastCode extracts the six-digit code from the most recent message.
func (m *stubMailer) lastCode(t *testing.T) string {
	t.Helper()
	if len(m.sent) == 0 {
		t.Fatalf("no mail sent")
	}
	code := codePattern.FindString(m.sent[len(m.sent)-1].body)
	if code == "" {
		t.Fatalf("no code in mail body: %q", m.sent[len(m.sent)-1].body)
	}
	return code
}

type stubMailQueue struct {
	mu     sync.Mutex
	queued []ports.OutgoingMail
}

func (q *stubMailQueue) Enqueue(mail ports.OutgoingMail) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queued = append(q.queued, mail)
}

var errSMTPDown = errors.New("smtp: connection refused")
