package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// MentorLockKey builds redis keys for per-mentor booking critical sections.
func MentorLockKey(mentorID string) string {
	return fmt.Sprintf("booking:mentor:%s:lock", mentorID)
}

// ErrLockHeld indicates the critical section is owned by another request.
var ErrLockHeld = errors.New("lock already held")

// Locker serialises booking writes per mentor using redis SET NX.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLocker constructs a Locker. TTL bounds how long a crashed holder can
// block other bookings for the same mentor.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Locker{client: client, ttl: ttl}
}

// releaseScript deletes the key only when the token still matches, so an
// expired lock re-acquired by another request is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Acquire takes the lock or returns ErrLockHeld. The returned token must be
// passed to Release.
func (l *Locker) Acquire(ctx context.Context, key string) (string, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("locks: acquire %s: %w", key, err)
	}
	if !ok {
		return "", ErrLockHeld
	}
	return token, nil
}

// Release frees the lock when still owned by token.
func (l *Locker) Release(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
}
