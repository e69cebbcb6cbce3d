package transfer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/pos-ledger-api/internal/application/dto"
	"github.com/jhoicas/pos-ledger-api/internal/application/ledger"
	"github.com/jhoicas/pos-ledger-api/internal/domain"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

// UseCase flujo de traslados entre sucursales: pending -> completed | cancelled.
// El stock solo se mueve al aprobar; crear y cancelar no escriben movimientos.
type UseCase struct {
	txRunner     repository.TxRunner
	ledger       *ledger.StockLedger
	transferRepo repository.StockTransferRepository
	outletRepo   repository.OutletRepository
	productRepo  repository.ProductRepository
	stockRepo    repository.StockRepository
	publisher    ledger.EventPublisher
	now          func() time.Time
}

// NewUseCase construye el caso de uso. Los repositorios son de lectura (fuera de transacción).
func NewUseCase(
	txRunner repository.TxRunner,
	stockLedger *ledger.StockLedger,
	transferRepo repository.StockTransferRepository,
	outletRepo repository.OutletRepository,
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	publisher ledger.EventPublisher,
) *UseCase {
	if publisher == nil {
		publisher = ledger.NoopPublisher{}
	}
	return &UseCase{
		txRunner:     txRunner,
		ledger:       stockLedger,
		transferRepo: transferRepo,
		outletRepo:   outletRepo,
		productRepo:  productRepo,
		stockRepo:    stockRepo,
		publisher:    publisher,
		now:          time.Now,
	}
}

// Create valida y registra un traslado en pending. La verificación de stock es orientativa
// (lecturas sin bloqueo); la definitiva ocurre en Approve.
func (uc *UseCase) Create(ctx context.Context, actorID string, in dto.CreateTransferRequest) (*dto.TransferResponse, error) {
	if in.FromOutletID == "" || in.ToOutletID == "" || in.FromOutletID == in.ToOutletID {
		return nil, domain.ErrInvalidInput
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
	}

	for _, outletID := range []string{in.FromOutletID, in.ToOutletID} {
		outlet, err := uc.outletRepo.GetByID(ctx, outletID)
		if err != nil {
			return nil, err
		}
		if outlet == nil {
			return nil, fmt.Errorf("sucursal %s: %w", outletID, domain.ErrNotFound)
		}
	}

	// Cantidad total solicitada por producto (un producto puede repetirse en varias líneas)
	requested := make(map[string]int64, len(in.Items))
	order := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		if _, seen := requested[it.ProductID]; !seen {
			order = append(order, it.ProductID)
		}
		requested[it.ProductID] += it.Quantity
	}
	for _, productID := range order {
		product, err := uc.productRepo.GetByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
		}
		stock, err := uc.stockRepo.Get(ctx, productID, in.FromOutletID)
		if err != nil {
			return nil, err
		}
		if stock.Quantity < requested[productID] {
			return nil, &domain.InsufficientStockError{
				ProductID: productID,
				OutletID:  in.FromOutletID,
				Available: stock.Quantity,
				Requested: requested[productID],
			}
		}
	}

	now := uc.now()
	id := uuid.New().String()
	transfer := &entity.StockTransfer{
		ID:             id,
		TransferNumber: transferNumber(now, id),
		FromOutletID:   in.FromOutletID,
		ToOutletID:     in.ToOutletID,
		Status:         entity.TransferStatusPending,
		TransferDate:   now,
		Notes:          strings.TrimSpace(in.Notes),
		ActorID:        actorID,
		CreatedAt:      now,
		UpdatedAt:      now,
		Items:          make([]entity.StockTransferItem, 0, len(in.Items)),
	}
	if in.TransferDate != nil && !in.TransferDate.IsZero() {
		transfer.TransferDate = *in.TransferDate
	}
	for i, it := range in.Items {
		transfer.Items = append(transfer.Items, entity.StockTransferItem{
			TransferID: id,
			LineNo:     i + 1,
			ProductID:  it.ProductID,
			Quantity:   it.Quantity,
		})
	}

	if err := uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		return uow.Transfers().Create(ctx, transfer)
	}); err != nil {
		return nil, err
	}

	log.Info().
		Str("transfer_id", transfer.ID).
		Str("transfer_number", transfer.TransferNumber).
		Str("from_outlet_id", transfer.FromOutletID).
		Str("to_outlet_id", transfer.ToOutletID).
		Int("items", len(transfer.Items)).
		Msg("traslado creado")
	return toTransferResponse(transfer), nil
}

// Approve mueve el stock de cada línea (débito en origen, crédito en destino) y completa el traslado.
// Cualquier falla revierte la aprobación completa y el traslado sigue en pending.
func (uc *UseCase) Approve(ctx context.Context, id, actorID string) (*dto.TransferResponse, error) {
	var journal ledger.Journal
	var approved *entity.StockTransfer

	err := uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		journal.Reset()
		transfer, err := uow.Transfers().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if transfer == nil {
			return domain.ErrNotFound
		}
		if err := transfer.Approve(actorID, uc.now()); err != nil {
			return err
		}

		ref := entity.TransferRef(transfer.ID)
		notes := "traslado " + transfer.TransferNumber
		for _, l := range transferLegs(transfer) {
			var mov *entity.StockMovement
			var err error
			m := ledger.Mutation{
				ProductID: l.productID,
				OutletID:  l.outletID,
				Quantity:  l.quantity,
				Type:      entity.MovementTypeTransfer,
				Reference: ref,
				ActorID:   actorID,
				Notes:     notes,
			}
			if l.debit {
				_, mov, err = uc.ledger.Decrement(ctx, uow, m)
			} else {
				_, mov, err = uc.ledger.Increment(ctx, uow, m)
			}
			if err != nil {
				return err
			}
			journal.Add(mov)
		}

		if err := uow.Transfers().UpdateStatus(ctx, transfer); err != nil {
			return err
		}
		approved = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}

	journal.Publish(ctx, uc.publisher)
	log.Info().
		Str("transfer_id", approved.ID).
		Str("actor_id", actorID).
		Int("movements", len(journal.Movements())).
		Msg("traslado aprobado")
	return toTransferResponse(approved), nil
}

// leg débito en origen o crédito en destino de una línea del traslado.
type leg struct {
	productID string
	outletID  string
	quantity  int64
	debit     bool
}

// transferLegs ordena los movimientos por (product_id, outlet_id), el mismo orden de bloqueo
// que siguen las ventas. Dos traslados en sentidos opuestos toman las filas en el mismo orden.
func transferLegs(t *entity.StockTransfer) []leg {
	legs := make([]leg, 0, 2*len(t.Items))
	for _, it := range t.Items {
		legs = append(legs,
			leg{productID: it.ProductID, outletID: t.FromOutletID, quantity: it.Quantity, debit: true},
			leg{productID: it.ProductID, outletID: t.ToOutletID, quantity: it.Quantity},
		)
	}
	sort.SliceStable(legs, func(a, b int) bool {
		if legs[a].productID != legs[b].productID {
			return legs[a].productID < legs[b].productID
		}
		return legs[a].outletID < legs[b].outletID
	})
	return legs
}

// Cancel cancela un traslado pending. No toca el stock.
func (uc *UseCase) Cancel(ctx context.Context, id, actorID string) (*dto.TransferResponse, error) {
	var cancelled *entity.StockTransfer
	err := uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		transfer, err := uow.Transfers().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if transfer == nil {
			return domain.ErrNotFound
		}
		if err := transfer.Cancel(actorID, uc.now()); err != nil {
			return err
		}
		if err := uow.Transfers().UpdateStatus(ctx, transfer); err != nil {
			return err
		}
		cancelled = transfer
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("transfer_id", cancelled.ID).Str("actor_id", actorID).Msg("traslado cancelado")
	return toTransferResponse(cancelled), nil
}

// Get obtiene un traslado con sus líneas. nil si no existe.
func (uc *UseCase) Get(ctx context.Context, id string) (*dto.TransferResponse, error) {
	transfer, err := uc.transferRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, nil
	}
	return toTransferResponse(transfer), nil
}

// List lista traslados filtrando por estado y sucursal (origen o destino).
func (uc *UseCase) List(ctx context.Context, status, outletID string, page dto.PageRequest) (*dto.TransferListResponse, error) {
	filter := repository.TransferFilter{
		Status:   entity.TransferStatus(status),
		OutletID: outletID,
	}
	switch filter.Status {
	case "", entity.TransferStatusPending, entity.TransferStatusCompleted, entity.TransferStatusCancelled:
	default:
		return nil, domain.ErrInvalidInput
	}
	page.DefaultPage()
	filter.Limit, filter.Offset = page.Limit, page.Offset

	list, err := uc.transferRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransferResponse, 0, len(list))
	for _, t := range list {
		items = append(items, *toTransferResponse(t))
	}
	return &dto.TransferListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// transferNumber TRF-AAAAMMDD-XXXXXXXX (8 primeros caracteres del id).
func transferNumber(now time.Time, id string) string {
	return "TRF-" + now.Format("20060102") + "-" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8])
}

func toTransferResponse(t *entity.StockTransfer) *dto.TransferResponse {
	items := make([]dto.TransferItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, dto.TransferItemResponse{LineNo: it.LineNo, ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return &dto.TransferResponse{
		ID:             t.ID,
		TransferNumber: t.TransferNumber,
		FromOutletID:   t.FromOutletID,
		ToOutletID:     t.ToOutletID,
		Status:         string(t.Status),
		TransferDate:   t.TransferDate,
		Notes:          t.Notes,
		ActorID:        t.ActorID,
		ApprovedBy:     t.ApprovedBy,
		ApprovedAt:     t.ApprovedAt,
		CancelledBy:    t.CancelledBy,
		CancelledAt:    t.CancelledAt,
		CreatedAt:      t.CreatedAt,
		Items:          items,
	}
}
