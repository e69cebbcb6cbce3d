package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
)

// ProductRepository puerto de lectura del catálogo (precio y costo).
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción (costo promedio).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	ListIDs(ctx context.Context) ([]string, error)
	// UpdateCost actualiza solo el costo promedio (usado al recibir mercancía).
	UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error
}
