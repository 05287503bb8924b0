package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/ethauth/core"
	"github.com/layer-3/ethauth/ports"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore is a Redis implementation of the SessionStore interface.
// Nonce and address live under separate keys so their TTLs are independent.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

var _ ports.SessionStore = (*RedisStore)(nil)

// NewRedisStore creates a new Redis session store
func NewRedisStore(client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		client: client,
		prefix: "ethauth:session:",
		ttl:    ttl,
		logger: logger,
	}
}

func (s *RedisStore) nonceKey(handle string) string {
	return s.prefix + handle + ":nonce"
}

func (s *RedisStore) addressKey(handle string) string {
	return s.prefix + handle + ":address"
}

// Get reads both session fields in one round trip
func (s *RedisStore) Get(ctx context.Context, handle string) (core.Session, error) {
	values, err := s.client.MGet(ctx, s.nonceKey(handle), s.addressKey(handle)).Result()
	if err != nil {
		return core.Session{}, s.fail("read session", handle, err)
	}

	session := core.Session{Handle: handle}
	if v, ok := values[0].(string); ok {
		session.Nonce = v
	}
	if v, ok := values[1].(string); ok {
		session.Address = v
	}
	return session, nil
}

// SetNonce binds a nonce, replacing any pending one
func (s *RedisStore) SetNonce(ctx context.Context, handle, nonce string) error {
	if err := s.client.Set(ctx, s.nonceKey(handle), nonce, s.ttl).Err(); err != nil {
		return s.fail("store nonce", handle, err)
	}
	return nil
}

// TakeNonce returns and deletes the pending nonce with GETDEL, so only one
// of several concurrent callers sees it.
func (s *RedisStore) TakeNonce(ctx context.Context, handle string) (string, error) {
	nonce, err := s.client.GetDel(ctx, s.nonceKey(handle)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", s.fail("take nonce", handle, err)
	}
	return nonce, nil
}

// SetAddress records the verified address of a session
func (s *RedisStore) SetAddress(ctx context.Context, handle, address string) error {
	if err := s.client.Set(ctx, s.addressKey(handle), address, s.ttl).Err(); err != nil {
		return s.fail("store address", handle, err)
	}
	return nil
}

// ClearAddress deletes the verified address, leaving any pending nonce
func (s *RedisStore) ClearAddress(ctx context.Context, handle string) error {
	if err := s.client.Del(ctx, s.addressKey(handle)).Err(); err != nil {
		return s.fail("clear address", handle, err)
	}
	return nil
}

func (s *RedisStore) fail(op, handle string, err error) error {
	s.logger.Error("session store operation failed",
		zap.String("op", op),
		zap.String("session", core.HashHandle(handle)),
		zap.Error(err),
	)
	return fmt.Errorf("failed to %s: %w: %w", op, core.ErrPersistence, err)
}
