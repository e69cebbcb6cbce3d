package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo historial de movimientos sobre PostgreSQL (solo inserción).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, product_id, outlet_id, type, delta, quantity_before, quantity_after,
		reference_kind, reference_id, actor_id, notes, created_at`

// Append persiste un movimiento. La tabla valida quantity_after = quantity_before + delta.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.OutletID, string(m.Type), m.Delta, m.QuantityBefore, m.QuantityAfter,
		string(m.Reference.Kind), m.Reference.ID, nullIfEmpty(m.ActorID), nullIfEmpty(m.Notes), m.CreatedAt,
	)
	if err != nil {
		return mapError("insert stock movement", err)
	}
	return nil
}

// List movimientos del par en un rango de fechas, más reciente primero.
func (r *StockMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + `
		FROM stock_movements WHERE product_id = $1 AND outlet_id = $2`
	args := []any{f.ProductID, f.OutletID}
	pos := 3
	if f.From != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *f.From)
		pos++
	}
	if f.To != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *f.To)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, seq DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list stock movements", err)
	}
	return scanMovements(rows)
}

// ListByReference movimientos generados por un documento, en orden de escritura.
func (r *StockMovementRepo) ListByReference(ctx context.Context, ref entity.Reference) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, `SELECT `+movementColumns+`
		FROM stock_movements WHERE reference_kind = $1 AND reference_id = $2
		ORDER BY seq`, string(ref.Kind), ref.ID)
	if err != nil {
		return nil, mapError("list movements by reference", err)
	}
	return scanMovements(rows)
}

// SumDelta suma de deltas del par; debe coincidir con stock_records.quantity.
func (r *StockMovementRepo) SumDelta(ctx context.Context, productID, outletID string) (int64, error) {
	var sum int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(delta), 0)::bigint FROM stock_movements
		WHERE product_id = $1 AND outlet_id = $2`, productID, outletID).Scan(&sum)
	if err != nil {
		return 0, mapError("sum movement deltas", err)
	}
	return sum, nil
}

func scanMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	defer rows.Close()
	list := make([]*entity.StockMovement, 0)
	for rows.Next() {
		var m entity.StockMovement
		var typ, kind string
		var actorID, notes *string
		if err := rows.Scan(&m.ID, &m.ProductID, &m.OutletID, &typ, &m.Delta, &m.QuantityBefore, &m.QuantityAfter,
			&kind, &m.Reference.ID, &actorID, &notes, &m.CreatedAt); err != nil {
			return nil, mapError("scan stock movement", err)
		}
		m.Type = entity.MovementType(typ)
		m.Reference.Kind = entity.ReferenceKind(kind)
		m.ActorID = derefStr(actorID)
		m.Notes = derefStr(notes)
		list = append(list, &m)
	}
	return list, rows.Err()
}
