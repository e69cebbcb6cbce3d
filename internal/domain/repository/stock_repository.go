package repository

import (
	"context"

	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por producto+sucursal.
// Las escrituras solo las hace el ledger, dentro de una transacción.
type StockRepository interface {
	// Get lectura sin bloqueo. Si no existe el registro devuelve cantidad 0.
	Get(ctx context.Context, productID, outletID string) (*entity.StockRecord, error)
	// GetForUpdate crea el registro si no existe y bloquea la fila (SELECT FOR UPDATE)
	// hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, productID, outletID string) (*entity.StockRecord, error)
	Save(ctx context.Context, stock *entity.StockRecord) error
	// EnsureForOutlet crea registros en cero para los productos dados (alta de sucursal).
	EnsureForOutlet(ctx context.Context, outletID string, productIDs []string) error
}
