package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

// Vistas sin transacción: leen el estado confirmado y escriben vía Store.write.

type outletView struct{ s *Store }

func (v outletView) Create(ctx context.Context, o *entity.Outlet) error {
	return v.s.write(ctx, func(r *repos) error { return r.Create(ctx, o) })
}

func (v outletView) GetByID(ctx context.Context, id string) (out *entity.Outlet, err error) {
	err = v.s.read(func(r *repos) error { out, err = r.GetByID(ctx, id); return err })
	return out, err
}

func (v outletView) List(ctx context.Context, limit, offset int) (out []*entity.Outlet, err error) {
	err = v.s.read(func(r *repos) error { out, err = r.List(ctx, limit, offset); return err })
	return out, err
}

type stockView struct{ s *Store }

func (v stockView) Get(ctx context.Context, productID, outletID string) (out *entity.StockRecord, err error) {
	err = v.s.read(func(r *repos) error { out, err = r.Stock().Get(ctx, productID, outletID); return err })
	return out, err
}

// GetForUpdate fuera de transacción solo garantiza la existencia del registro.
func (v stockView) GetForUpdate(ctx context.Context, productID, outletID string) (out *entity.StockRecord, err error) {
	err = v.s.write(ctx, func(r *repos) error { out, err = r.Stock().GetForUpdate(ctx, productID, outletID); return err })
	return out, err
}

func (v stockView) Save(ctx context.Context, stock *entity.StockRecord) error {
	return v.s.write(ctx, func(r *repos) error { return r.Stock().Save(ctx, stock) })
}

func (v stockView) EnsureForOutlet(ctx context.Context, outletID string, productIDs []string) error {
	return v.s.write(ctx, func(r *repos) error { return r.Stock().EnsureForOutlet(ctx, outletID, productIDs) })
}

type movementView struct{ s *Store }

func (v movementView) Append(ctx context.Context, mov *entity.StockMovement) error {
	return v.s.write(ctx, func(r *repos) error { return r.Movements().Append(ctx, mov) })
}

func (v movementView) List(ctx context.Context, f repository.MovementFilter) (out []*entity.StockMovement, err error) {
	err = v.s.read(func(r *repos) error { out, err = r.Movements().List(ctx, f); return err })
	return out, err
}

func (v movementView) ListByReference(ctx context.Context, ref entity.Reference) (out []*entity.StockMovement, err error) {
	err = v.s.read(func(r *repos) error { out, err = r.Movements().ListByReference(ctx, ref); return err })
	return out, err
}

func (v movementView) SumDelta(ctx context.Context, productID, outletID string) (sum int64, err error) {
	err = v.s.read(func(r *repos) error { sum, err = r.Movements().SumDelta(ctx, productID, outletID); return err })
	return sum, err
}

type productView struct{ s *Store }

func (v productView) GetByID(ctx context.Context, id string) (out *entity.Product, err error) {
	err = v.s.read(func(r *repos) error { out, err = r.Products().GetByID(ctx, id); return err })
	return out, err
}

func (v productView) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return v.GetByID(ctx, id)
}

func (v productView) ListIDs(ctx context.Context) (out []string, err error) {
	err = v.s.read(func(r *repos) error { out, err = r.Products().ListIDs(ctx); return err })
	return out, err
}

func (v productView) UpdateCost(ctx context.Context, productID string, cost decimal.Decimal) error {
	return v.s.write(ctx, func(r *repos) error { return r.Products().UpdateCost(ctx, productID, cost) })
}

type customerView struct{ s *Store }

func (v customerView) GetByID(ctx context.Context, id string) (out *entity.Customer, err error) {
	err = v.s.read(func(r *repos) error { out, err = r.Customers().GetByID(ctx, id); return err })
	return out, err
}

func (v customerView) AddLoyaltyPoints(ctx context.Context, customerID string, delta int64) (bal int64, err error) {
	err = v.s.write(ctx, func(r *repos) error { bal, err = r.Customers().AddLoyaltyPoints(ctx, customerID, delta); return err })
	return bal, err
}

type transferView struct{ s *Store }

func (v transferView) Create(ctx context.Context, t *entity.StockTransfer) error {
	return v.s.write(ctx, func(r *repos) error { return r.Transfers().Create(ctx, t) })
}

func (v transferView) GetByID(ctx context.Context, id string) (out *entity.StockTransfer, err error) {
	err = v.s.read(func(r *repos) error { out, err = r.Transfers().GetByID(ctx, id); return err })
	return out, err
}

func (v transferView) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return v.GetByID(ctx, id)
}

func (v transferView) UpdateStatus(ctx context.Context, t *entity.StockTransfer) error {
	return v.s.write(ctx, func(r *repos) error { return r.Transfers().UpdateStatus(ctx, t) })
}

func (v transferView) List(ctx context.Context, f repository.TransferFilter) (out []*entity.StockTransfer, err error) {
	err = v.s.read(func(r *repos) error { out, err = r.Transfers().List(ctx, f); return err })
	return out, err
}

type transactionView struct{ s *Store }

func (v transactionView) Create(ctx context.Context, t *entity.Transaction) error {
	return v.s.write(ctx, func(r *repos) error { return r.Transactions().Create(ctx, t) })
}

func (v transactionView) GetByID(ctx context.Context, id string) (out *entity.Transaction, err error) {
	err = v.s.read(func(r *repos) error { out, err = r.Transactions().GetByID(ctx, id); return err })
	return out, err
}

func (v transactionView) GetByIdempotencyKey(ctx context.Context, key string) (out *entity.Transaction, err error) {
	err = v.s.read(func(r *repos) error { out, err = r.Transactions().GetByIdempotencyKey(ctx, key); return err })
	return out, err
}

func (v transactionView) GetForUpdate(ctx context.Context, id string) (*entity.Transaction, error) {
	return v.GetByID(ctx, id)
}

func (v transactionView) UpdateStatus(ctx context.Context, t *entity.Transaction) error {
	return v.s.write(ctx, func(r *repos) error { return r.Transactions().UpdateStatus(ctx, t) })
}
