package repository

import (
	"context"
	"time"

	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
)

// MovementFilter filtros para listar movimientos de un par producto+sucursal.
type MovementFilter struct {
	ProductID string
	OutletID  string
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// StockMovementRepository puerto del historial de movimientos (solo inserción).
type StockMovementRepository interface {
	Append(ctx context.Context, movement *entity.StockMovement) error
	List(ctx context.Context, filter MovementFilter) ([]*entity.StockMovement, error)
	ListByReference(ctx context.Context, ref entity.Reference) ([]*entity.StockMovement, error)
	// SumDelta suma los Delta de todos los movimientos del par (reconstrucción de la cantidad).
	SumDelta(ctx context.Context, productID, outletID string) (int64, error)
}
