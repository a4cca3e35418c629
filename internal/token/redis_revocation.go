package token

import (
	"context"
	"time"

	"log/slog"

	redis "github.com/redis/go-redis/v9"
)

type redisRegistry struct {
	client  *redis.Client
	logger  *slog.Logger
	prefix  string
	timeout time.Duration
}

// NewRedisRegistry constructs a Redis backed revocation registry so revoked
// tokens are shared across instances. Redis expires entries on its own.
func NewRedisRegistry(addr, password string, db int, logger *slog.Logger) (Registry, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &redisRegistry{
		client:  client,
		logger:  logger,
		prefix:  "accounts:revoked:",
		timeout: 250 * time.Millisecond,
	}, nil
}

func (r *redisRegistry) Revoke(jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.client.Set(ctx, r.prefix+jti, 1, ttl).Err(); err != nil {
		r.logRedisError("set", err)
	}
}

func (r *redisRegistry) IsRevoked(jti string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	count, err := r.client.Exists(ctx, r.prefix+jti).Result()
	if err != nil {
		r.logRedisError("exists", err)
		return false
	}
	return count > 0
}

func (r *redisRegistry) Close() {
	if r.client != nil {
		_ = r.client.Close()
	}
}

func (r *redisRegistry) logRedisError(op string, err error) {
	if r.logger == nil {
		return
	}
	r.logger.Error("redis revocation registry error", "op", op, "error", err)
}
