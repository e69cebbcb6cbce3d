package repository

import (
	"context"

	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
)

// TransferFilter filtros para listar traslados.
type TransferFilter struct {
	Status   entity.TransferStatus
	OutletID string // origen o destino
	Limit    int
	Offset   int
}

// StockTransferRepository puerto de persistencia para traslados y sus líneas.
type StockTransferRepository interface {
	// Create persiste cabecera y líneas.
	Create(ctx context.Context, transfer *entity.StockTransfer) error
	GetByID(ctx context.Context, id string) (*entity.StockTransfer, error)
	// GetForUpdate bloquea la cabecera del traslado hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error)
	// UpdateStatus persiste estado y campos de aprobación/cancelación.
	UpdateStatus(ctx context.Context, transfer *entity.StockTransfer) error
	List(ctx context.Context, filter TransferFilter) ([]*entity.StockTransfer, error)
}
