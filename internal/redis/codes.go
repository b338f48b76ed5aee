package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCodeNotFound means the code expired or was never issued.
var ErrCodeNotFound = errors.New("code expired or not found")

// CodeStore keeps short-lived verification codes keyed by purpose and email.
type CodeStore struct {
	rdb    redis.Cmdable
	prefix string
}

func NewCodeStore(rdb redis.Cmdable, prefix string) *CodeStore {
	if prefix == "" {
		prefix = "verify"
	}
	return &CodeStore{rdb: rdb, prefix: prefix}
}

func (s *CodeStore) key(email string) string {
	return fmt.Sprintf("%s:%s", s.prefix, email)
}

func (s *CodeStore) attemptsKey(email string) string {
	return fmt.Sprintf("%s:attempts:%s", s.prefix, email)
}

// Put stores a fresh code and clears the failed-attempt counter.
func (s *CodeStore) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.key(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	if err := s.rdb.Del(ctx, s.attemptsKey(email)).Err(); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}

// Fail records a wrong guess for email and returns the failures so far.
// The counter expires after ttl.
func (s *CodeStore) Fail(ctx context.Context, email string, ttl time.Duration) (int64, error) {
	key := s.attemptsKey(email)
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("count attempt: %w", err)
	}
	if n == 1 {
		if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("expire attempts: %w", err)
		}
	}
	return n, nil
}

func (s *CodeStore) Get(ctx context.Context, email string) (string, error) {
	code, err := s.rdb.Get(ctx, s.key(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCodeNotFound
		}
		return "", fmt.Errorf("load code: %w", err)
	}
	return code, nil
}

func (s *CodeStore) Delete(ctx context.Context, email string) error {
	if err := s.rdb.Del(ctx, s.key(email), s.attemptsKey(email)).Err(); err != nil {
		return fmt.Errorf("delete code: %w", err)
	}
	return nil
}
