package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-ledger-api/internal/domain"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo ventas y sus líneas (usable con pool o tx).
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

const idempotencyKeyConstraint = "transactions_idempotency_key_uq"

const transactionColumns = `id, transaction_number, outlet_id, customer_id, status,
		subtotal, tax, discount, total, paid, change, payment_method, points_awarded,
		notes, actor_id, created_at, refunded_at, refunded_by, idempotency_key`

// Create persiste la cabecera de la venta y sus líneas.
func (r *TransactionRepo) Create(ctx context.Context, t *entity.Transaction) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		t.ID, t.TransactionNumber, t.OutletID, nullIfEmpty(t.CustomerID), string(t.Status),
		t.Subtotal, t.Tax, t.Discount, t.Total, t.Paid, t.Change, t.PaymentMethod, t.PointsAwarded,
		nullIfEmpty(t.Notes), t.ActorID, t.CreatedAt, t.RefundedAt, nullIfEmpty(t.RefundedBy),
		nullIfEmpty(t.IdempotencyKey),
	)
	if err != nil {
		if isUniqueViolation(err) {
			if constraintName(err) == idempotencyKeyConstraint {
				return fmt.Errorf("idempotency key %s: %w", t.IdempotencyKey, domain.ErrDuplicate)
			}
			return fmt.Errorf("transaction number %s: %w", t.TransactionNumber, domain.ErrDuplicate)
		}
		return mapError("insert transaction", err)
	}
	for _, it := range t.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO transaction_items (transaction_id, line_no, product_id, quantity, unit_price, purchase_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			t.ID, it.LineNo, it.ProductID, it.Quantity, it.UnitPrice, it.PurchasePrice, it.TotalPrice,
		)
		if err != nil {
			return mapError("insert transaction item", err)
		}
	}
	return nil
}

// GetByID obtiene una venta completa por ID.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*entity.Transaction, error) {
	return r.get(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
}

// GetByIdempotencyKey busca la venta confirmada con esa Idempotency-Key.
func (r *TransactionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Transaction, error) {
	if key == "" {
		return nil, nil
	}
	return r.get(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE idempotency_key = $1`, key)
}

// GetForUpdate bloquea la cabecera de la venta (SELECT FOR UPDATE) y carga las líneas.
func (r *TransactionRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transaction, error) {
	return r.get(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransactionRepo) get(ctx context.Context, query, arg string) (*entity.Transaction, error) {
	var t entity.Transaction
	var status string
	var customerID, notes, refundedBy, idempotencyKey *string
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&t.ID, &t.TransactionNumber, &t.OutletID, &customerID, &status,
		&t.Subtotal, &t.Tax, &t.Discount, &t.Total, &t.Paid, &t.Change, &t.PaymentMethod, &t.PointsAwarded,
		&notes, &t.ActorID, &t.CreatedAt, &t.RefundedAt, &refundedBy, &idempotencyKey,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get transaction", err)
	}
	t.Status = entity.TransactionStatus(status)
	t.CustomerID = derefStr(customerID)
	t.Notes = derefStr(notes)
	t.RefundedBy = derefStr(refundedBy)
	t.IdempotencyKey = derefStr(idempotencyKey)

	rows, err := r.q.Query(ctx, `
		SELECT transaction_id, line_no, product_id, quantity, unit_price, purchase_price, total_price
		FROM transaction_items WHERE transaction_id = $1 ORDER BY line_no`, t.ID)
	if err != nil {
		return nil, mapError("list transaction items", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it entity.TransactionItem
		if err := rows.Scan(&it.TransactionID, &it.LineNo, &it.ProductID, &it.Quantity,
			&it.UnitPrice, &it.PurchasePrice, &it.TotalPrice); err != nil {
			return nil, mapError("scan transaction item", err)
		}
		t.Items = append(t.Items, it)
	}
	return &t, rows.Err()
}

// UpdateStatus persiste estado, notas y datos de reembolso. Las líneas no se tocan.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, t *entity.Transaction) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE transactions SET status = $2, notes = $3, refunded_at = $4, refunded_by = $5
		WHERE id = $1`,
		t.ID, string(t.Status), nullIfEmpty(t.Notes), t.RefundedAt, nullIfEmpty(t.RefundedBy),
	)
	if err != nil {
		return mapError("update transaction", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
