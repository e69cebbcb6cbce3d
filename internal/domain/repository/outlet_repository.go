package repository

import (
	"context"

	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
)

// OutletRepository define el puerto de persistencia para sucursales (registro de sucursales).
type OutletRepository interface {
	Create(ctx context.Context, outlet *entity.Outlet) error
	GetByID(ctx context.Context, id string) (*entity.Outlet, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Outlet, error)
}
