package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/pos-ledger-api/internal/application/dto"
	"github.com/jhoicas/pos-ledger-api/internal/application/ledger"
	"github.com/jhoicas/pos-ledger-api/internal/domain"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

// StockOpnameUseCase conteo físico de una sucursal: lleva cada producto contado a la cantidad
// real en una sola transacción. Las líneas sin diferencia no generan movimiento.
type StockOpnameUseCase struct {
	txRunner   repository.TxRunner
	ledger     *ledger.StockLedger
	outletRepo repository.OutletRepository
	publisher  ledger.EventPublisher
}

// NewStockOpnameUseCase construye el caso de uso.
func NewStockOpnameUseCase(
	txRunner repository.TxRunner,
	stockLedger *ledger.StockLedger,
	outletRepo repository.OutletRepository,
	publisher ledger.EventPublisher,
) *StockOpnameUseCase {
	if publisher == nil {
		publisher = ledger.NoopPublisher{}
	}
	return &StockOpnameUseCase{txRunner: txRunner, ledger: stockLedger, outletRepo: outletRepo, publisher: publisher}
}

// Execute aplica el conteo. Un producto repetido en el conteo es entrada inválida.
func (uc *StockOpnameUseCase) Execute(ctx context.Context, actorID string, in dto.StockOpnameRequest) (*dto.StockOpnameResponse, error) {
	if in.OutletID == "" || len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	seen := make(map[string]struct{}, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID == "" || it.CountedQuantity < 0 {
			return nil, domain.ErrInvalidInput
		}
		if _, dup := seen[it.ProductID]; dup {
			return nil, fmt.Errorf("producto %s repetido en el conteo: %w", it.ProductID, domain.ErrInvalidInput)
		}
		seen[it.ProductID] = struct{}{}
	}
	outlet, err := uc.outletRepo.GetByID(ctx, in.OutletID)
	if err != nil {
		return nil, err
	}
	if outlet == nil {
		return nil, fmt.Errorf("sucursal %s: %w", in.OutletID, domain.ErrNotFound)
	}

	opnameID := uuid.New().String()
	order := make([]int, len(in.Items))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return in.Items[order[a]].ProductID < in.Items[order[b]].ProductID })

	var journal ledger.Journal
	results := make([]dto.OpnameItemResult, len(in.Items))
	err = uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		journal.Reset()
		for _, idx := range order {
			it := in.Items[idx]
			rec, mov, err := uc.ledger.SetAbsolute(ctx, uow, ledger.Absolute{
				ProductID:   it.ProductID,
				OutletID:    in.OutletID,
				NewQuantity: it.CountedQuantity,
				Reference:   entity.OpnameRef(opnameID),
				ActorID:     actorID,
				Notes:       in.Notes,
			})
			if err != nil {
				return err
			}
			journal.Add(mov)
			res := dto.OpnameItemResult{
				ProductID:       it.ProductID,
				SystemQuantity:  rec.Quantity,
				CountedQuantity: it.CountedQuantity,
			}
			if mov != nil {
				res.SystemQuantity = mov.QuantityBefore
				res.Delta = mov.Delta
			}
			results[idx] = res
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	journal.Publish(ctx, uc.publisher)
	log.Info().
		Str("opname_id", opnameID).
		Str("outlet_id", in.OutletID).
		Int("lines", len(in.Items)).
		Int("adjusted", len(journal.Movements())).
		Msg("conteo físico aplicado")
	return &dto.StockOpnameResponse{OpnameID: opnameID, OutletID: in.OutletID, Items: results}, nil
}
