package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger-api/internal/application/dto"
	"github.com/jhoicas/pos-ledger-api/internal/application/ledger"
	"github.com/jhoicas/pos-ledger-api/internal/domain"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

// RegisterMovementUseCase registra movimientos sueltos de inventario (IN, OUT, ADJUSTMENT)
// a través del ledger, dentro de una transacción.
type RegisterMovementUseCase struct {
	txRunner    repository.TxRunner
	ledger      *ledger.StockLedger
	productRepo repository.ProductRepository
	outletRepo  repository.OutletRepository
	publisher   ledger.EventPublisher
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(
	txRunner repository.TxRunner,
	stockLedger *ledger.StockLedger,
	productRepo repository.ProductRepository,
	outletRepo repository.OutletRepository,
	publisher ledger.EventPublisher,
) *RegisterMovementUseCase {
	if publisher == nil {
		publisher = ledger.NoopPublisher{}
	}
	return &RegisterMovementUseCase{
		txRunner:    txRunner,
		ledger:      stockLedger,
		productRepo: productRepo,
		outletRepo:  outletRepo,
		publisher:   publisher,
	}
}

// MovementInputDTO entrada para registrar un movimiento.
// IN: Quantity > 0 y UnitCost obligatorio (recepción de proveedor, referencia purchase).
// OUT: Quantity > 0 (salida manual). ADJUSTMENT: Quantity con signo, distinto de cero.
type MovementInputDTO struct {
	UserID      string
	ProductID   string
	OutletID    string
	Type        string
	Quantity    int64
	UnitCost    *decimal.Decimal
	ReferenceID string
	Notes       string
}

// RegisterMovement valida, abre la transacción y aplica el movimiento según el tipo.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, input MovementInputDTO) (*dto.MovementResponse, error) {
	if input.ProductID == "" || input.OutletID == "" {
		return nil, domain.ErrInvalidInput
	}
	switch entity.MovementType(input.Type) {
	case entity.MovementTypeIn:
		if input.Quantity <= 0 || input.UnitCost == nil || input.UnitCost.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
	case entity.MovementTypeOut:
		if input.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
	case entity.MovementTypeAdjustment:
		if input.Quantity == 0 {
			return nil, domain.ErrInvalidInput
		}
	default:
		// transfer solo a través del flujo de traslados
		return nil, domain.ErrInvalidInput
	}

	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto %s: %w", input.ProductID, domain.ErrNotFound)
	}
	outlet, err := uc.outletRepo.GetByID(ctx, input.OutletID)
	if err != nil {
		return nil, err
	}
	if outlet == nil {
		return nil, fmt.Errorf("sucursal %s: %w", input.OutletID, domain.ErrNotFound)
	}

	refID := input.ReferenceID
	if refID == "" {
		refID = uuid.New().String()
	}

	var mov *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		var err error
		switch entity.MovementType(input.Type) {
		case entity.MovementTypeIn:
			mov, err = uc.doIN(ctx, uow, input, refID)
		case entity.MovementTypeOut:
			mov, err = uc.doOUT(ctx, uow, input, refID)
		case entity.MovementTypeAdjustment:
			mov, err = uc.doADJUSTMENT(ctx, uow, input, refID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	var journal ledger.Journal
	journal.Add(mov)
	journal.Publish(ctx, uc.publisher)
	log.Info().
		Str("product_id", mov.ProductID).
		Str("outlet_id", mov.OutletID).
		Str("type", string(mov.Type)).
		Int64("delta", mov.Delta).
		Msg("movimiento de inventario registrado")
	return ToMovementResponse(mov), nil
}

// doIN suma la cantidad y recalcula el costo promedio ponderado. Orden de bloqueo: stock_records
// y después el producto, así el costo se lee ya bloqueado y dos entradas no se pisan.
func (uc *RegisterMovementUseCase) doIN(ctx context.Context, uow repository.UnitOfWork, input MovementInputDTO, refID string) (*entity.StockMovement, error) {
	_, mov, err := uc.ledger.Increment(ctx, uow, ledger.Mutation{
		ProductID: input.ProductID,
		OutletID:  input.OutletID,
		Quantity:  input.Quantity,
		Type:      entity.MovementTypeIn,
		Reference: entity.PurchaseRef(refID),
		ActorID:   input.UserID,
		Notes:     input.Notes,
	})
	if err != nil {
		return nil, err
	}
	product, err := uow.Products().GetForUpdate(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	newCost := inventory.CostCalculator(mov.QuantityBefore, product.Cost, input.Quantity, *input.UnitCost)
	if err := uow.Products().UpdateCost(ctx, input.ProductID, newCost); err != nil {
		return nil, err
	}
	return mov, nil
}

// doOUT salida manual; falla con stock insuficiente.
func (uc *RegisterMovementUseCase) doOUT(ctx context.Context, uow repository.UnitOfWork, input MovementInputDTO, refID string) (*entity.StockMovement, error) {
	_, mov, err := uc.ledger.Decrement(ctx, uow, ledger.Mutation{
		ProductID: input.ProductID,
		OutletID:  input.OutletID,
		Quantity:  input.Quantity,
		Type:      entity.MovementTypeOut,
		Reference: entity.ManualRef(refID),
		ActorID:   input.UserID,
		Notes:     input.Notes,
	})
	return mov, err
}

// doADJUSTMENT positivo suma, negativo resta; ambos con tipo adjustment.
func (uc *RegisterMovementUseCase) doADJUSTMENT(ctx context.Context, uow repository.UnitOfWork, input MovementInputDTO, refID string) (*entity.StockMovement, error) {
	m := ledger.Mutation{
		ProductID: input.ProductID,
		OutletID:  input.OutletID,
		Quantity:  input.Quantity,
		Type:      entity.MovementTypeAdjustment,
		Reference: entity.ManualRef(refID),
		ActorID:   input.UserID,
		Notes:     input.Notes,
	}
	if input.Quantity > 0 {
		_, mov, err := uc.ledger.Increment(ctx, uow, m)
		return mov, err
	}
	m.Quantity = -input.Quantity
	_, mov, err := uc.ledger.Decrement(ctx, uow, m)
	return mov, err
}

// ToMovementResponse convierte un movimiento del ledger a su DTO.
func ToMovementResponse(m *entity.StockMovement) *dto.MovementResponse {
	return &dto.MovementResponse{
		ID:             m.ID,
		ProductID:      m.ProductID,
		OutletID:       m.OutletID,
		Type:           string(m.Type),
		Delta:          m.Delta,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		ReferenceType:  string(m.Reference.Kind),
		ReferenceID:    m.Reference.ID,
		ActorID:        m.ActorID,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt,
	}
}
