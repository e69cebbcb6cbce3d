package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/pos-ledger-api/internal/domain"
)

const pendingKey = "pending"

// IdempotencyStore claves de idempotencia en memoria (modo desarrollo y tests).
type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]string
}

// NewIdempotencyStore crea un almacén vacío.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{keys: make(map[string]string)}
}

func (s *IdempotencyStore) Reserve(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.keys[key]
	switch {
	case !ok:
		s.keys[key] = pendingKey
		return "", true, nil
	case v == pendingKey:
		return "", false, domain.ErrConflict
	default:
		return v, false, nil
	}
}

func (s *IdempotencyStore) Complete(_ context.Context, key, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = transactionID
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}
