package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// consumeScript deletes the key only when it holds the presented code, so a
// wrong guess never burns the pending code.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// OTPStore keeps pending one-time codes in Redis.
// Key format: otp:<email>
type OTPStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewOTPStore creates an OTPStore. A zero ttl stores codes without expiry.
func NewOTPStore(client *redis.Client, ttl time.Duration) *OTPStore {
	if ttl < 0 {
		ttl = 0
	}
	return &OTPStore{client: client, ttl: ttl}
}

func (s *OTPStore) Save(ctx context.Context, email, code string) error {
	if err := s.client.Set(ctx, s.key(email), code, s.ttl).Err(); err != nil {
		return fmt.Errorf("otp save: %w", err)
	}
	return nil
}

func (s *OTPStore) Consume(ctx context.Context, email, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.client, []string{s.key(email)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("otp consume: %w", err)
	}
	return n == 1, nil
}

func (s *OTPStore) Discard(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("otp discard: %w", err)
	}
	return nil
}

func (s *OTPStore) key(email string) string {
	return "otp:" + email
}
