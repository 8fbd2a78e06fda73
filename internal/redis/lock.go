package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still carries the caller's
// token, so an expired lock re-acquired by another gate survives.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore holds short-lived per-ticket locks shared by every gate.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func ticketLockKey(ticketID string) string {
	return "lock:ticket:" + ticketID
}

// AcquireTicketLock takes the scan lock for ticketID. It returns the owner
// token, or "" when another scan holds the lock.
func (s *LockStore) AcquireTicketLock(ctx context.Context, ticketID string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, ticketLockKey(ticketID), token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// ReleaseTicketLock drops the lock if token still owns it.
func (s *LockStore) ReleaseTicketLock(ctx context.Context, ticketID, token string) error {
	err := releaseScript.Run(ctx, s.client, []string{ticketLockKey(ticketID)}, token).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
