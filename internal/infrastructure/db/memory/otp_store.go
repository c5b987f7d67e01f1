// Package memory holds process-local adapters used when no external store is
// configured. State does not survive a restart and is not shared between
// replicas.
package memory

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

type pendingCode struct {
	code      string
	expiresAt time.Time
}

// OTPStore keeps pending one-time codes in a mutex-guarded map.
type OTPStore struct {
	mu    sync.Mutex
	codes map[string]pendingCode
	ttl   time.Duration
	now   func() time.Time
}

// NewOTPStore creates an OTPStore. A zero ttl keeps codes until consumed.
func NewOTPStore(ttl time.Duration) *OTPStore {
	if ttl < 0 {
		ttl = 0
	}
	return &OTPStore{
		codes: make(map[string]pendingCode),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *OTPStore) Save(_ context.Context, email, code string) error {
	entry := pendingCode{code: code}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.codes[email] = entry
	s.mu.Unlock()
	return nil
}

func (s *OTPStore) Consume(_ context.Context, email, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.codes[email]
	if !ok {
		return false, nil
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.codes, email)
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(entry.code), []byte(code)) != 1 {
		return false, nil
	}

	delete(s.codes, email)
	return true, nil
}

func (s *OTPStore) Discard(_ context.Context, email string) error {
	s.mu.Lock()
	delete(s.codes, email)
	s.mu.Unlock()
	return nil
}
