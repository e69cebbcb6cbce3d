package sales

import "context"

// IdempotencyStore reserva claves Idempotency-Key para que un reintento del POS
// no registre la misma venta dos veces.
type IdempotencyStore interface {
	// Reserve marca la clave como en curso. Si la clave ya tiene una venta asociada devuelve
	// su id y reserved=false; si otra petición la tiene en curso devuelve domain.ErrConflict.
	Reserve(ctx context.Context, key string) (transactionID string, reserved bool, err error)
	// Complete asocia la venta confirmada a la clave.
	Complete(ctx context.Context, key, transactionID string) error
	// Release libera la clave cuando la venta falló.
	Release(ctx context.Context, key string) error
}

// NoopIdempotency acepta todas las claves (sin almacén configurado).
type NoopIdempotency struct{}

func (NoopIdempotency) Reserve(context.Context, string) (string, bool, error) { return "", true, nil }
func (NoopIdempotency) Complete(context.Context, string, string) error { return nil }
func (NoopIdempotency) Release(context.Context, string) error { return nil }
