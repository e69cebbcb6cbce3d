package repository

import (
	"context"

	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
)

// CustomerRepository puerto del saldo de puntos de fidelidad.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	// AddLoyaltyPoints suma delta (puede ser negativo) y devuelve el nuevo saldo, nunca menor que 0.
	AddLoyaltyPoints(ctx context.Context, customerID string, delta int64) (int64, error)
}
