package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease short-lived named lock in redis so only one bot instance runs a sweep at a time
type Lease struct {
	client redis.UniversalClient
	ttl    time.Duration
	token  string
	prefix string
}

// NewRedisClient connects and pings redis
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logrus.WithField("addr", addr).Info("✅ redis connected")
	return client, nil
}

// NewLease creates a lease holder with a random instance token
func NewLease(client redis.UniversalClient, ttl time.Duration) *Lease {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Lease{
		client: client,
		ttl:    ttl,
		token:  uuid.NewString(),
		prefix: "wellnessbot:lease:",
	}
}

// Acquire takes the named lease; false when another holder has it
func (l *Lease) Acquire(ctx context.Context, name string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.prefix+name, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lease %s: %w", name, err)
	}
	return ok, nil
}

// Release gives the lease back if we still hold it
func (l *Lease) Release(ctx context.Context, name string) error {
	err := releaseScript.Run(ctx, l.client, []string{l.prefix + name}, l.token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release lease %s: %w", name, err)
	}
	return nil
}
