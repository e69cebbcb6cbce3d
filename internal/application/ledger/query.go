package ledger

import (
	"context"

	"github.com/jhoicas/pos-ledger-api/internal/domain"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

const (
	defaultMovementLimit = 50
	maxMovementLimit     = 500
)

// Balance resultado de VerifyBalance.
type Balance struct {
	ProductID   string `json:"product_id"`
	OutletID    string `json:"outlet_id"`
	Quantity    int64  `json:"quantity"`
	MovementSum int64  `json:"movement_sum"`
	Consistent  bool   `json:"consistent"`
}

// QueryService lecturas del ledger fuera de transacción (sin bloqueos).
type QueryService struct {
	stockRepo    repository.StockRepository
	movementRepo repository.StockMovementRepository
}

// NewQueryService construye el servicio de consulta.
func NewQueryService(stockRepo repository.StockRepository, movementRepo repository.StockMovementRepository) *QueryService {
	return &QueryService{stockRepo: stockRepo, movementRepo: movementRepo}
}

// GetStock devuelve la cantidad actual del par; 0 si nunca tuvo movimientos.
func (s *QueryService) GetStock(ctx context.Context, productID, outletID string) (*entity.StockRecord, error) {
	if productID == "" || outletID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.stockRepo.Get(ctx, productID, outletID)
}

// ListMovements historial del par, más reciente primero.
func (s *QueryService) ListMovements(ctx context.Context, filter repository.MovementFilter) ([]*entity.StockMovement, error) {
	if filter.ProductID == "" || filter.OutletID == "" {
		return nil, domain.ErrInvalidInput
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, domain.ErrInvalidInput
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultMovementLimit
	}
	if filter.Limit > maxMovementLimit {
		filter.Limit = maxMovementLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.movementRepo.List(ctx, filter)
}

// VerifyBalance compara la cantidad guardada contra la suma de deltas del historial.
func (s *QueryService) VerifyBalance(ctx context.Context, productID, outletID string) (*Balance, error) {
	stock, err := s.GetStock(ctx, productID, outletID)
	if err != nil {
		return nil, err
	}
	sum, err := s.movementRepo.SumDelta(ctx, productID, outletID)
	if err != nil {
		return nil, err
	}
	return &Balance{
		ProductID:   productID,
		OutletID:    outletID,
		Quantity:    stock.Quantity,
		MovementSum: sum,
		Consistent:  stock.Quantity == sum,
	}, nil
}
