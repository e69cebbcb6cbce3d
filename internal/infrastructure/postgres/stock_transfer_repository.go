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

var _ repository.StockTransferRepository = (*StockTransferRepo)(nil)

// StockTransferRepo traslados y sus líneas sobre PostgreSQL (usable con pool o tx).
type StockTransferRepo struct {
	q Querier
}

// NewStockTransferRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockTransferRepository(q Querier) *StockTransferRepo {
	return &StockTransferRepo{q: q}
}

const transferColumns = `id, transfer_number, from_outlet_id, to_outlet_id, status, transfer_date, notes,
		actor_id, approved_by, approved_at, cancelled_by, cancelled_at, created_at, updated_at`

// Create persiste la cabecera y sus líneas.
func (r *StockTransferRepo) Create(ctx context.Context, t *entity.StockTransfer) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_transfers (`+transferColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		t.ID, t.TransferNumber, t.FromOutletID, t.ToOutletID, string(t.Status), t.TransferDate, nullIfEmpty(t.Notes),
		t.ActorID, nullIfEmpty(t.ApprovedBy), t.ApprovedAt, nullIfEmpty(t.CancelledBy), t.CancelledAt,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("transfer number %s: %w", t.TransferNumber, domain.ErrDuplicate)
		}
		return mapError("insert stock transfer", err)
	}
	for _, it := range t.Items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO stock_transfer_items (transfer_id, line_no, product_id, quantity)
			VALUES ($1, $2, $3, $4)`,
			t.ID, it.LineNo, it.ProductID, it.Quantity,
		)
		if err != nil {
			return mapError("insert stock transfer item", err)
		}
	}
	return nil
}

// GetByID obtiene un traslado con sus líneas.
func (r *StockTransferRepo) GetByID(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM stock_transfers WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera (SELECT FOR UPDATE) y carga las líneas.
func (r *StockTransferRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return r.get(ctx, `SELECT `+transferColumns+` FROM stock_transfers WHERE id = $1 FOR UPDATE`, id)
}

func (r *StockTransferRepo) get(ctx context.Context, query, id string) (*entity.StockTransfer, error) {
	t, err := scanTransfer(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get stock transfer", err)
	}
	items, err := r.items(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Items = items
	return t, nil
}

func (r *StockTransferRepo) items(ctx context.Context, transferID string) ([]entity.StockTransferItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT transfer_id, line_no, product_id, quantity
		FROM stock_transfer_items WHERE transfer_id = $1 ORDER BY line_no`, transferID)
	if err != nil {
		return nil, mapError("list stock transfer items", err)
	}
	defer rows.Close()
	var list []entity.StockTransferItem
	for rows.Next() {
		var it entity.StockTransferItem
		if err := rows.Scan(&it.TransferID, &it.LineNo, &it.ProductID, &it.Quantity); err != nil {
			return nil, mapError("scan stock transfer item", err)
		}
		list = append(list, it)
	}
	return list, rows.Err()
}

// UpdateStatus persiste estado y campos de aprobación/cancelación.
func (r *StockTransferRepo) UpdateStatus(ctx context.Context, t *entity.StockTransfer) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE stock_transfers
		SET status = $2, approved_by = $3, approved_at = $4, cancelled_by = $5, cancelled_at = $6, updated_at = $7
		WHERE id = $1`,
		t.ID, string(t.Status), nullIfEmpty(t.ApprovedBy), t.ApprovedAt, nullIfEmpty(t.CancelledBy), t.CancelledAt, t.UpdatedAt,
	)
	if err != nil {
		return mapError("update stock transfer", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista traslados por estado y sucursal (origen o destino), más reciente primero.
func (r *StockTransferRepo) List(ctx context.Context, f repository.TransferFilter) ([]*entity.StockTransfer, error) {
	query := `SELECT ` + transferColumns + ` FROM stock_transfers WHERE true`
	var args []any
	pos := 1
	if f.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", pos)
		args = append(args, string(f.Status))
		pos++
	}
	if f.OutletID != "" {
		query += fmt.Sprintf(" AND (from_outlet_id = $%d OR to_outlet_id = $%d)", pos, pos)
		args = append(args, f.OutletID)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list stock transfers", err)
	}
	var list []*entity.StockTransfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			rows.Close()
			return nil, mapError("scan stock transfer", err)
		}
		list = append(list, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// las líneas se cargan después de cerrar el cursor: una conexión no admite dos consultas abiertas
	for _, t := range list {
		if t.Items, err = r.items(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func scanTransfer(row pgx.Row) (*entity.StockTransfer, error) {
	var t entity.StockTransfer
	var status string
	var notes, approvedBy, cancelledBy *string
	err := row.Scan(&t.ID, &t.TransferNumber, &t.FromOutletID, &t.ToOutletID, &status, &t.TransferDate, &notes,
		&t.ActorID, &approvedBy, &t.ApprovedAt, &cancelledBy, &t.CancelledAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Status = entity.TransferStatus(status)
	t.Notes = derefStr(notes)
	t.ApprovedBy = derefStr(approvedBy)
	t.CancelledBy = derefStr(cancelledBy)
	return &t, nil
}
