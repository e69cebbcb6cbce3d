package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/pos-ledger-api/internal/domain"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo saldo de puntos de clientes (usable con pool o tx).
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

// GetByID obtiene un cliente por ID.
func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	query := `
		SELECT id, company_id, name, phone, loyalty_points, created_at, updated_at
		FROM customers WHERE id = $1`
	var c entity.Customer
	var phone *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.CompanyID, &c.Name, &phone, &c.LoyaltyPoints, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get customer", err)
	}
	c.Phone = derefStr(phone)
	return &c, nil
}

// AddLoyaltyPoints suma delta al saldo en una sola sentencia (la fila queda bloqueada hasta el fin
// de la tx). El saldo nunca baja de 0.
func (r *CustomerRepo) AddLoyaltyPoints(ctx context.Context, customerID string, delta int64) (int64, error) {
	var balance int64
	err := r.q.QueryRow(ctx, `
		UPDATE customers SET loyalty_points = GREATEST(loyalty_points + $2, 0), updated_at = now()
		WHERE id = $1
		RETURNING loyalty_points`, customerID, delta).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, mapError("add loyalty points", err)
	}
	return balance, nil
}
