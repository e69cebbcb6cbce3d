package ledger

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
)

// EventPublisher publica movimientos ya confirmados (después del Commit).
type EventPublisher interface {
	PublishMovements(ctx context.Context, movements []*entity.StockMovement) error
}

// NoopPublisher no publica nada (sin broker configurado).
type NoopPublisher struct{}

func (NoopPublisher) PublishMovements(context.Context, []*entity.StockMovement) error { return nil }

// Journal acumula los movimientos escritos dentro de una transacción para publicarlos tras el Commit.
type Journal struct {
	movements []*entity.StockMovement
}

// Add agrega un movimiento; ignora nil (SetAbsolute sin cambio).
func (j *Journal) Add(mov *entity.StockMovement) {
	if mov != nil {
		j.movements = append(j.movements, mov)
	}
}

// Movements devuelve los movimientos acumulados.
func (j *Journal) Movements() []*entity.StockMovement { return j.movements }

// Reset vacía el journal (la transacción se reintentó o falló).
func (j *Journal) Reset() { j.movements = nil }

// Publish envía los movimientos al publisher. Best effort: el error se registra y no se propaga,
// el stock ya está confirmado.
func (j *Journal) Publish(ctx context.Context, pub EventPublisher) {
	if pub == nil || len(j.movements) == 0 {
		return
	}
	if err := pub.PublishMovements(ctx, j.movements); err != nil {
		log.Warn().Err(err).Int("movements", len(j.movements)).Msg("no se pudieron publicar los movimientos de stock")
	}
}
