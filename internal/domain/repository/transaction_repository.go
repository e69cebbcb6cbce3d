package repository

import (
	"context"

	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
)

// TransactionRepository puerto de persistencia para ventas y sus líneas.
type TransactionRepository interface {
	// Create persiste cabecera y líneas.
	Create(ctx context.Context, tx *entity.Transaction) error
	GetByID(ctx context.Context, id string) (*entity.Transaction, error)
	// GetByIdempotencyKey devuelve la venta confirmada con esa clave, o nil si no existe.
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.Transaction, error)
	// GetForUpdate bloquea la cabecera de la venta hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Transaction, error)
	// UpdateStatus persiste estado, notas y datos de reembolso. Las líneas no cambian.
	UpdateStatus(ctx context.Context, tx *entity.Transaction) error
}
