// Package cache adaptadores sobre Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/pos-ledger-api/internal/application/sales"
	"github.com/jhoicas/pos-ledger-api/internal/domain"
)

const (
	keyPrefix    = "pos:idem:"
	pendingValue = "pending"
)

var _ sales.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// RedisIdempotencyStore claves Idempotency-Key de ventas en Redis, compartidas entre réplicas.
// Una clave reservada vale "pending" hasta que la venta confirma; después guarda el id de la venta.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyStore crea el cliente. ttl <= 0 usa 24h.
func NewRedisIdempotencyStore(addr, password string, db int, ttl time.Duration) *RedisIdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func (s *RedisIdempotencyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// Reserve SETNX con TTL; si la clave existe devuelve la venta asociada o ErrConflict si sigue en curso.
func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string) (string, bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, pendingValue, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if ok {
		return "", true, nil
	}
	val, err := s.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// expiró entre SETNX y GET
		return s.Reserve(ctx, key)
	}
	if err != nil {
		return "", false, fmt.Errorf("get idempotency key: %w", err)
	}
	if val == pendingValue {
		return "", false, domain.ErrConflict
	}
	return val, false, nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key, transactionID string) error {
	if err := s.client.Set(ctx, keyPrefix+key, transactionID, s.ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
