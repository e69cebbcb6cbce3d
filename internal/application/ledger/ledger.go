package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/pos-ledger-api/internal/domain"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

// Resultados reportados a las métricas.
const (
	ResultOK                = "ok"
	ResultSkipped           = "skipped"
	ResultInsufficientStock = "insufficient_stock"
	ResultLockTimeout       = "lock_timeout"
	ResultInvalid           = "invalid"
	ResultError             = "error"
)

// Metrics recibe una observación por cada mutación del ledger.
type Metrics interface {
	ObserveMutation(op string, movementType entity.MovementType, result string, elapsed time.Duration)
}

// NoopMetrics descarta las observaciones.
type NoopMetrics struct{}

func (NoopMetrics) ObserveMutation(string, entity.MovementType, string, time.Duration) {}

// Mutation entrada de Increment/Decrement.
type Mutation struct {
	ProductID string
	OutletID  string
	Quantity  int64 // siempre positivo; el signo lo define la operación
	Type      entity.MovementType
	Reference entity.Reference
	ActorID   string
	Notes     string
}

// Absolute entrada de SetAbsolute (conteo físico / ajuste a cantidad exacta).
type Absolute struct {
	ProductID   string
	OutletID    string
	NewQuantity int64
	Reference   entity.Reference
	ActorID     string
	Notes       string
}

// StockLedger es el único punto de escritura de StockRecord y StockMovement.
// Toda mutación bloquea la fila (producto, sucursal) antes de leer la cantidad y escribe
// el registro y su movimiento en la transacción del caller (uow).
type StockLedger struct {
	metrics Metrics
	now     func() time.Time
}

// NewStockLedger construye el ledger. metrics puede ser nil.
func NewStockLedger(metrics Metrics) *StockLedger {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &StockLedger{metrics: metrics, now: time.Now}
}

// Increment suma Quantity al stock del par y registra un movimiento con delta positivo.
func (l *StockLedger) Increment(ctx context.Context, uow repository.UnitOfWork, m Mutation) (*entity.StockRecord, *entity.StockMovement, error) {
	start := time.Now()
	rec, mov, err := l.increment(ctx, uow, m)
	l.observe("increment", m.Type, mov, err, start)
	return rec, mov, err
}

func (l *StockLedger) increment(ctx context.Context, uow repository.UnitOfWork, m Mutation) (*entity.StockRecord, *entity.StockMovement, error) {
	if err := m.validate(); err != nil {
		return nil, nil, err
	}
	return l.apply(ctx, uow, m.ProductID, m.OutletID, m.Type, m.Reference, m.ActorID, m.Notes,
		func(int64) (int64, error) { return m.Quantity, nil })
}

// Decrement resta Quantity del stock del par. Falla con *domain.InsufficientStockError si
// la cantidad actual es menor; la verificación ocurre con la fila ya bloqueada.
func (l *StockLedger) Decrement(ctx context.Context, uow repository.UnitOfWork, m Mutation) (*entity.StockRecord, *entity.StockMovement, error) {
	start := time.Now()
	rec, mov, err := l.decrement(ctx, uow, m)
	l.observe("decrement", m.Type, mov, err, start)
	return rec, mov, err
}

func (l *StockLedger) decrement(ctx context.Context, uow repository.UnitOfWork, m Mutation) (*entity.StockRecord, *entity.StockMovement, error) {
	if err := m.validate(); err != nil {
		return nil, nil, err
	}
	return l.apply(ctx, uow, m.ProductID, m.OutletID, m.Type, m.Reference, m.ActorID, m.Notes,
		func(before int64) (int64, error) {
			if before < m.Quantity {
				return 0, &domain.InsufficientStockError{
					ProductID: m.ProductID,
					OutletID:  m.OutletID,
					Available: before,
					Requested: m.Quantity,
				}
			}
			return -m.Quantity, nil
		})
}

// SetAbsolute lleva el stock del par a NewQuantity con un único movimiento de tipo adjustment
// (delta = NewQuantity - cantidad actual). Si el delta es 0 no escribe nada y el movimiento devuelto es nil.
func (l *StockLedger) SetAbsolute(ctx context.Context, uow repository.UnitOfWork, a Absolute) (*entity.StockRecord, *entity.StockMovement, error) {
	start := time.Now()
	rec, mov, err := l.setAbsolute(ctx, uow, a)
	l.observe("set_absolute", entity.MovementTypeAdjustment, mov, err, start)
	return rec, mov, err
}

func (l *StockLedger) setAbsolute(ctx context.Context, uow repository.UnitOfWork, a Absolute) (*entity.StockRecord, *entity.StockMovement, error) {
	if a.ProductID == "" || a.OutletID == "" || a.NewQuantity < 0 || !a.Reference.Valid() {
		return nil, nil, domain.ErrInvalidInput
	}
	return l.apply(ctx, uow, a.ProductID, a.OutletID, entity.MovementTypeAdjustment, a.Reference, a.ActorID, a.Notes,
		func(before int64) (int64, error) { return a.NewQuantity - before, nil })
}

// apply bloquea la fila, calcula el delta con la cantidad bloqueada y persiste registro y movimiento.
func (l *StockLedger) apply(
	ctx context.Context,
	uow repository.UnitOfWork,
	productID, outletID string,
	movementType entity.MovementType,
	ref entity.Reference,
	actorID, notes string,
	deltaFn func(before int64) (int64, error),
) (*entity.StockRecord, *entity.StockMovement, error) {
	stock, err := uow.Stock().GetForUpdate(ctx, productID, outletID)
	if err != nil {
		return nil, nil, err
	}
	delta, err := deltaFn(stock.Quantity)
	if err != nil {
		return nil, nil, err
	}
	if delta == 0 {
		return stock, nil, nil
	}

	now := l.now()
	mov := &entity.StockMovement{
		ID:             uuid.New().String(),
		ProductID:      productID,
		OutletID:       outletID,
		Type:           movementType,
		Delta:          delta,
		QuantityBefore: stock.Quantity,
		QuantityAfter:  stock.Quantity + delta,
		Reference:      ref,
		ActorID:        actorID,
		Notes:          notes,
		CreatedAt:      now,
	}
	if mov.QuantityAfter < 0 {
		return nil, nil, &domain.InsufficientStockError{
			ProductID: productID, OutletID: outletID, Available: stock.Quantity, Requested: -delta,
		}
	}

	stock.Quantity = mov.QuantityAfter
	stock.UpdatedAt = now
	if err := uow.Stock().Save(ctx, stock); err != nil {
		return nil, nil, err
	}
	if err := uow.Movements().Append(ctx, mov); err != nil {
		return nil, nil, err
	}
	return stock, mov, nil
}

func (m Mutation) validate() error {
	if m.ProductID == "" || m.OutletID == "" || m.Quantity <= 0 {
		return domain.ErrInvalidInput
	}
	if !m.Type.Valid() || !m.Reference.Valid() {
		return domain.ErrInvalidInput
	}
	return nil
}

func (l *StockLedger) observe(op string, movementType entity.MovementType, mov *entity.StockMovement, err error, start time.Time) {
	result := ResultOK
	switch {
	case err == nil && mov == nil:
		result = ResultSkipped
	case err == nil:
	case errors.Is(err, domain.ErrInsufficientStock):
		result = ResultInsufficientStock
	case errors.Is(err, domain.ErrLockTimeout):
		result = ResultLockTimeout
	case errors.Is(err, domain.ErrInvalidInput):
		result = ResultInvalid
	default:
		result = ResultError
	}
	l.metrics.ObserveMutation(op, movementType, result, time.Since(start))
}
