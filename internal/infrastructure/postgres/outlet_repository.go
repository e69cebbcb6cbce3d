package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-ledger-api/internal/domain"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

var _ repository.OutletRepository = (*OutletRepo)(nil)

// OutletRepo implementación del puerto OutletRepository sobre PostgreSQL (usable con pool o tx).
type OutletRepo struct {
	q Querier
}

// NewOutletRepository construye el adaptador de persistencia para sucursales.
func NewOutletRepository(q Querier) *OutletRepo {
	return &OutletRepo{q: q}
}

// Create persiste una nueva sucursal. (company_id, code) es único.
func (r *OutletRepo) Create(ctx context.Context, outlet *entity.Outlet) error {
	query := `
		INSERT INTO outlets (id, company_id, code, name, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		outlet.ID, outlet.CompanyID, outlet.Code, outlet.Name, outlet.Address,
		outlet.CreatedAt, outlet.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return mapError("insert outlet", err)
	}
	return nil
}

// GetByID obtiene una sucursal por ID.
func (r *OutletRepo) GetByID(ctx context.Context, id string) (*entity.Outlet, error) {
	query := `
		SELECT id, company_id, code, name, address, created_at, updated_at
		FROM outlets WHERE id = $1`
	var o entity.Outlet
	err := r.q.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.CompanyID, &o.Code, &o.Name, &o.Address, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get outlet", err)
	}
	return &o, nil
}

// List lista sucursales por código con paginación.
func (r *OutletRepo) List(ctx context.Context, limit, offset int) ([]*entity.Outlet, error) {
	query := `
		SELECT id, company_id, code, name, address, created_at, updated_at
		FROM outlets ORDER BY code LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, mapError("list outlets", err)
	}
	defer rows.Close()
	list := make([]*entity.Outlet, 0)
	for rows.Next() {
		var o entity.Outlet
		if err := rows.Scan(&o.ID, &o.CompanyID, &o.Code, &o.Name, &o.Address, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, mapError("scan outlet", err)
		}
		list = append(list, &o)
	}
	return list, rows.Err()
}
