package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger-api/internal/application/dto"
	"github.com/jhoicas/pos-ledger-api/internal/application/ledger"
	"github.com/jhoicas/pos-ledger-api/internal/domain"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

// DefaultPaymentMethod se usa cuando la venta no indica medio de pago.
const DefaultPaymentMethod = "cash"

// RefundNote nota de los movimientos de reversión.
const RefundNote = "refund"

// UseCase registra ventas (descuento de stock, totales, puntos) y sus reembolsos.
type UseCase struct {
	txRunner        repository.TxRunner
	ledger          *ledger.StockLedger
	transactionRepo repository.TransactionRepository
	outletRepo      repository.OutletRepository
	customerRepo    repository.CustomerRepository
	idempotency     IdempotencyStore
	publisher       ledger.EventPublisher
	amountPerPoint  decimal.Decimal
	now             func() time.Time
}

// NewUseCase construye el caso de uso. amountPerPoint es el monto de venta por cada punto
// de fidelidad; cero desactiva los puntos.
func NewUseCase(
	txRunner repository.TxRunner,
	stockLedger *ledger.StockLedger,
	transactionRepo repository.TransactionRepository,
	outletRepo repository.OutletRepository,
	customerRepo repository.CustomerRepository,
	idempotency IdempotencyStore,
	publisher ledger.EventPublisher,
	amountPerPoint decimal.Decimal,
) *UseCase {
	if idempotency == nil {
		idempotency = NoopIdempotency{}
	}
	if publisher == nil {
		publisher = ledger.NoopPublisher{}
	}
	return &UseCase{
		txRunner:        txRunner,
		ledger:          stockLedger,
		transactionRepo: transactionRepo,
		outletRepo:      outletRepo,
		customerRepo:    customerRepo,
		idempotency:     idempotency,
		publisher:       publisher,
		amountPerPoint:  amountPerPoint,
		now:             time.Now,
	}
}

// CreateSale registra la venta en una sola transacción: descuenta stock por línea, congela el costo
// del producto en la línea, calcula totales y otorga puntos. Si una línea falla no queda nada escrito.
// Con idempotencyKey, un reintento con la misma clave devuelve la venta original.
func (uc *UseCase) CreateSale(ctx context.Context, actorID, idempotencyKey string, in dto.CreateSaleRequest) (resp *dto.SaleResponse, err error) {
	if err := validateSale(in); err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		// La fila de la venta es la fuente de verdad: cubre un Complete perdido y un Redis vacío.
		if prev, found, lookErr := uc.committedSale(ctx, idempotencyKey, in); found || lookErr != nil {
			return prev, lookErr
		}
		var (
			existingID string
			reserved   bool
		)
		// err es el retorno nombrado: el defer de abajo libera la clave si la venta falla.
		existingID, reserved, err = uc.idempotency.Reserve(ctx, idempotencyKey)
		if errors.Is(err, domain.ErrConflict) {
			// otra petición la tiene reservada; pudo haber confirmado entre la búsqueda y la reserva
			if prev, found, lookErr := uc.committedSale(ctx, idempotencyKey, in); found || lookErr != nil {
				return prev, lookErr
			}
		}
		if err != nil {
			return nil, err
		}
		if !reserved {
			existing, getErr := uc.transactionRepo.GetByID(ctx, existingID)
			if getErr != nil {
				return nil, getErr
			}
			if existing == nil {
				return nil, domain.ErrConflict
			}
			return replay(existing, in)
		}
		defer func() {
			if err != nil {
				if relErr := uc.idempotency.Release(context.WithoutCancel(ctx), idempotencyKey); relErr != nil {
					log.Warn().Err(relErr).Str("idempotency_key", idempotencyKey).Msg("no se pudo liberar la clave de idempotencia")
				}
			}
		}()
	}

	outlet, err := uc.outletRepo.GetByID(ctx, in.OutletID)
	if err != nil {
		return nil, err
	}
	if outlet == nil {
		return nil, fmt.Errorf("sucursal %s: %w", in.OutletID, domain.ErrNotFound)
	}
	if in.CustomerID != "" {
		customer, err := uc.customerRepo.GetByID(ctx, in.CustomerID)
		if err != nil {
			return nil, err
		}
		if customer == nil {
			return nil, fmt.Errorf("cliente %s: %w", in.CustomerID, domain.ErrNotFound)
		}
	}

	now := uc.now()
	txID := uuid.New().String()
	paymentMethod := strings.TrimSpace(in.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = DefaultPaymentMethod
	}

	var journal ledger.Journal
	var sale *entity.Transaction

	err = uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		journal.Reset()
		ref := entity.SaleRef(txID)

		// Bloqueo en orden ascendente de product_id; las líneas conservan el orden de la petición.
		items := make([]entity.TransactionItem, len(in.Items))
		for _, idx := range lockOrder(len(in.Items), func(i int) string { return in.Items[i].ProductID }) {
			line := in.Items[idx]
			product, err := uow.Products().GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return fmt.Errorf("producto %s: %w", line.ProductID, domain.ErrNotFound)
			}

			_, mov, err := uc.ledger.Decrement(ctx, uow, ledger.Mutation{
				ProductID: line.ProductID,
				OutletID:  in.OutletID,
				Quantity:  line.Quantity,
				Type:      entity.MovementTypeOut,
				Reference: ref,
				ActorID:   actorID,
			})
			if err != nil {
				return err
			}
			journal.Add(mov)

			unitPrice := product.Price
			if line.UnitPrice != nil && line.UnitPrice.GreaterThan(decimal.Zero) {
				unitPrice = *line.UnitPrice
			}
			items[idx] = entity.TransactionItem{
				TransactionID: txID,
				LineNo:        idx + 1,
				ProductID:     line.ProductID,
				Quantity:      line.Quantity,
				UnitPrice:     unitPrice,
				PurchasePrice: product.Cost,
				TotalPrice:    unitPrice.Mul(decimal.NewFromInt(line.Quantity)),
			}
		}

		subtotal := decimal.Zero
		for _, it := range items {
			subtotal = subtotal.Add(it.TotalPrice)
		}
		total := subtotal.Add(in.Tax).Sub(in.Discount)
		if total.IsNegative() {
			return fmt.Errorf("el descuento supera el subtotal: %w", domain.ErrInvalidInput)
		}
		if in.Paid.LessThan(total) {
			return fmt.Errorf("pago %s menor que el total %s: %w", in.Paid.String(), total.String(), domain.ErrInvalidInput)
		}

		sale = &entity.Transaction{
			ID:                txID,
			TransactionNumber: transactionNumber(now, txID),
			OutletID:          in.OutletID,
			CustomerID:        in.CustomerID,
			Status:            entity.TransactionStatusCompleted,
			Subtotal:          subtotal,
			Tax:               in.Tax,
			Discount:          in.Discount,
			Total:             total,
			Paid:              in.Paid,
			Change:            in.Paid.Sub(total),
			PaymentMethod:     paymentMethod,
			PointsAwarded:     uc.pointsFor(in.CustomerID, total),
			Notes:             strings.TrimSpace(in.Notes),
			ActorID:           actorID,
			CreatedAt:         now,
			IdempotencyKey:    idempotencyKey,
			Items:             items,
		}
		if err := uow.Transactions().Create(ctx, sale); err != nil {
			return err
		}

		if sale.PointsAwarded > 0 {
			if _, err := uow.Customers().AddLoyaltyPoints(ctx, sale.CustomerID, sale.PointsAwarded); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if idempotencyKey != "" && errors.Is(err, domain.ErrDuplicate) {
			// otra réplica confirmó la misma clave sin pasar por la reserva
			existing, lookErr := uc.transactionRepo.GetByIdempotencyKey(ctx, idempotencyKey)
			if lookErr == nil && existing != nil {
				if compErr := uc.idempotency.Complete(ctx, idempotencyKey, existing.ID); compErr != nil {
					log.Warn().Err(compErr).Str("idempotency_key", idempotencyKey).Msg("no se pudo registrar la clave de idempotencia")
				}
				return replay(existing, in)
			}
		}
		return nil, err
	}

	if idempotencyKey != "" {
		if err := uc.idempotency.Complete(ctx, idempotencyKey, sale.ID); err != nil {
			log.Warn().Err(err).Str("idempotency_key", idempotencyKey).Str("transaction_id", sale.ID).Msg("no se pudo registrar la clave de idempotencia")
		}
	}
	journal.Publish(ctx, uc.publisher)
	log.Info().
		Str("transaction_id", sale.ID).
		Str("transaction_number", sale.TransactionNumber).
		Str("outlet_id", sale.OutletID).
		Str("total", sale.Total.String()).
		Int64("points_awarded", sale.PointsAwarded).
		Int("lines", len(sale.Items)).
		Msg("venta registrada")
	return toSaleResponse(sale), nil
}

// committedSale busca la venta confirmada con la clave. found=false si no hay ninguna.
func (uc *UseCase) committedSale(ctx context.Context, key string, in dto.CreateSaleRequest) (resp *dto.SaleResponse, found bool, err error) {
	existing, err := uc.transactionRepo.GetByIdempotencyKey(ctx, key)
	if err != nil || existing == nil {
		return nil, false, err
	}
	resp, err = replay(existing, in)
	return resp, true, err
}

// replay devuelve la venta original. La clave queda ligada a su sucursal, cliente y líneas:
// reutilizarla para otra venta es un conflicto.
func replay(existing *entity.Transaction, in dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	if !sameSale(existing, in) {
		return nil, fmt.Errorf("idempotency key usada para otra venta (%s): %w", existing.ID, domain.ErrConflict)
	}
	return toSaleResponse(existing), nil
}

func sameSale(t *entity.Transaction, in dto.CreateSaleRequest) bool {
	if t.OutletID != in.OutletID || t.CustomerID != in.CustomerID || len(t.Items) != len(in.Items) {
		return false
	}
	for i, it := range t.Items {
		if it.ProductID != in.Items[i].ProductID || it.Quantity != in.Items[i].Quantity {
			return false
		}
	}
	return true
}

// Refund revierte una venta completed: devuelve al stock la cantidad total de cada línea,
// descuenta exactamente los puntos otorgados y deja la venta en refunded.
// Un segundo reembolso falla con domain.ErrInvalidTransition sin tocar el stock.
func (uc *UseCase) Refund(ctx context.Context, id, actorID, reason string) (*dto.SaleResponse, error) {
	var journal ledger.Journal
	var refunded *entity.Transaction

	err := uc.txRunner.Run(ctx, func(uow repository.UnitOfWork) error {
		journal.Reset()
		sale, err := uow.Transactions().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sale == nil {
			return domain.ErrNotFound
		}
		if err := sale.MarkRefunded(actorID, reason, uc.now()); err != nil {
			return err
		}

		ref := entity.SaleRef(sale.ID)
		for _, idx := range lockOrder(len(sale.Items), func(i int) string { return sale.Items[i].ProductID }) {
			it := sale.Items[idx]
			_, mov, err := uc.ledger.Increment(ctx, uow, ledger.Mutation{
				ProductID: it.ProductID,
				OutletID:  sale.OutletID,
				Quantity:  it.Quantity,
				Type:      entity.MovementTypeIn,
				Reference: ref,
				ActorID:   actorID,
				Notes:     RefundNote,
			})
			if err != nil {
				return err
			}
			journal.Add(mov)
		}

		if sale.CustomerID != "" && sale.PointsAwarded > 0 {
			if _, err := uow.Customers().AddLoyaltyPoints(ctx, sale.CustomerID, -sale.PointsAwarded); err != nil {
				return err
			}
		}
		if err := uow.Transactions().UpdateStatus(ctx, sale); err != nil {
			return err
		}
		refunded = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	journal.Publish(ctx, uc.publisher)
	log.Info().
		Str("transaction_id", refunded.ID).
		Str("actor_id", actorID).
		Int64("points_reversed", refunded.PointsAwarded).
		Msg("venta reembolsada")
	return toSaleResponse(refunded), nil
}

// Get obtiene una venta con sus líneas. nil si no existe.
func (uc *UseCase) Get(ctx context.Context, id string) (*dto.SaleResponse, error) {
	sale, err := uc.transactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, nil
	}
	return toSaleResponse(sale), nil
}

// pointsFor puntos = piso(total / monto por punto). Sin cliente no hay puntos.
func (uc *UseCase) pointsFor(customerID string, total decimal.Decimal) int64 {
	if customerID == "" || !uc.amountPerPoint.IsPositive() {
		return 0
	}
	return total.Div(uc.amountPerPoint).Floor().IntPart()
}

func validateSale(in dto.CreateSaleRequest) error {
	if in.OutletID == "" || len(in.Items) == 0 {
		return domain.ErrInvalidInput
	}
	for _, it := range in.Items {
		if it.ProductID == "" || it.Quantity <= 0 {
			return domain.ErrInvalidInput
		}
		if it.UnitPrice != nil && it.UnitPrice.IsNegative() {
			return domain.ErrInvalidInput
		}
	}
	if in.Tax.IsNegative() || in.Discount.IsNegative() || in.Paid.IsNegative() {
		return domain.ErrInvalidInput
	}
	return nil
}

// lockOrder índices de las líneas ordenados por product_id (estable).
func lockOrder(n int, productID func(i int) string) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return productID(idx[a]) < productID(idx[b]) })
	return idx
}

// transactionNumber TRX-AAAAMMDD-XXXXXXXX.
func transactionNumber(now time.Time, id string) string {
	return "TRX-" + now.Format("20060102") + "-" + strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8])
}

func toSaleResponse(t *entity.Transaction) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, dto.SaleItemResponse{
			LineNo:        it.LineNo,
			ProductID:     it.ProductID,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			PurchasePrice: it.PurchasePrice,
			TotalPrice:    it.TotalPrice,
		})
	}
	return &dto.SaleResponse{
		ID:                t.ID,
		TransactionNumber: t.TransactionNumber,
		OutletID:          t.OutletID,
		CustomerID:        t.CustomerID,
		Status:            string(t.Status),
		Subtotal:          t.Subtotal,
		Tax:               t.Tax,
		Discount:          t.Discount,
		Total:             t.Total,
		Paid:              t.Paid,
		Change:            t.Change,
		PaymentMethod:     t.PaymentMethod,
		PointsAwarded:     t.PointsAwarded,
		Notes:             t.Notes,
		ActorID:           t.ActorID,
		CreatedAt:         t.CreatedAt,
		RefundedAt:        t.RefundedAt,
		RefundedBy:        t.RefundedBy,
		Items:             items,
	}
}
