package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// Get obtiene el stock actual de un producto en una sucursal sin bloquear. Sin fila = cantidad 0.
func (r *StockRepo) Get(ctx context.Context, productID, outletID string) (*entity.StockRecord, error) {
	query := `
		SELECT product_id, outlet_id, quantity, updated_at
		FROM stock_records WHERE product_id = $1 AND outlet_id = $2`
	var s entity.StockRecord
	err := r.q.QueryRow(ctx, query, productID, outletID).Scan(
		&s.ProductID, &s.OutletID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &entity.StockRecord{ProductID: productID, OutletID: outletID}, nil
		}
		return nil, mapError("get stock", err)
	}
	return &s, nil
}

// GetForUpdate obtiene el stock y bloquea la fila (SELECT FOR UPDATE). Si la fila no existe
// la crea en cero; producto o sucursal inexistente violan la FK y devuelven ErrNotFound.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, outletID string) (*entity.StockRecord, error) {
	s, err := r.selectForUpdate(ctx, productID, outletID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapError("get stock for update", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO stock_records (product_id, outlet_id, quantity, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id, outlet_id) DO NOTHING`,
		productID, outletID,
	)
	if err != nil {
		return nil, mapError("create stock record", err)
	}
	s, err = r.selectForUpdate(ctx, productID, outletID)
	if err != nil {
		return nil, mapError("get stock for update", err)
	}
	return s, nil
}

func (r *StockRepo) selectForUpdate(ctx context.Context, productID, outletID string) (*entity.StockRecord, error) {
	query := `
		SELECT product_id, outlet_id, quantity, updated_at
		FROM stock_records WHERE product_id = $1 AND outlet_id = $2
		FOR UPDATE`
	var s entity.StockRecord
	err := r.q.QueryRow(ctx, query, productID, outletID).Scan(
		&s.ProductID, &s.OutletID, &s.Quantity, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Save guarda la cantidad de una fila ya bloqueada.
func (r *StockRepo) Save(ctx context.Context, stock *entity.StockRecord) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE stock_records SET quantity = $3, updated_at = $4
		WHERE product_id = $1 AND outlet_id = $2`,
		stock.ProductID, stock.OutletID, stock.Quantity, stock.UpdatedAt,
	)
	if err != nil {
		return mapError("save stock", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("save stock %s/%s: fila sin bloquear previamente", stock.ProductID, stock.OutletID)
	}
	return nil
}

// EnsureForOutlet crea en cero las filas que falten para los productos dados.
func (r *StockRepo) EnsureForOutlet(ctx context.Context, outletID string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_records (product_id, outlet_id, quantity, updated_at)
		SELECT p::uuid, $1, 0, now() FROM unnest($2::text[]) AS p
		ON CONFLICT (product_id, outlet_id) DO NOTHING`,
		outletID, productIDs,
	)
	if err != nil {
		return mapError("ensure stock for outlet", err)
	}
	return nil
}
