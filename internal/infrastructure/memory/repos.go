package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger-api/internal/domain"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

// repos implementa todos los repositorios sobre un estado de trabajo (dentro de Run).
type repos struct {
	st *state
}

var _ repository.UnitOfWork = (*repos)(nil)

func (r *repos) Outlets() repository.OutletRepository { return r }
func (r *repos) Stock() repository.StockRepository { return stockRepo{r} }
func (r *repos) Movements() repository.StockMovementRepository { return movementRepo{r} }
func (r *repos) Products() repository.ProductRepository { return productRepo{r} }
func (r *repos) Customers() repository.CustomerRepository { return customerRepo{r} }
func (r *repos) Transfers() repository.StockTransferRepository { return transferRepo{r} }
func (r *repos) Transactions() repository.TransactionRepository { return transactionRepo{r} }

// ── Sucursales ───────────────────────────────────────────────────────────────

func (r *repos) Create(_ context.Context, o *entity.Outlet) error {
	if _, ok := r.st.outlets[o.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, existing := range r.st.outlets {
		if existing.CompanyID == o.CompanyID && existing.Code == o.Code {
			return domain.ErrDuplicate
		}
	}
	r.st.outlets[o.ID] = *o
	return nil
}

func (r *repos) GetByID(_ context.Context, id string) (*entity.Outlet, error) {
	o, ok := r.st.outlets[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *repos) List(_ context.Context, limit, offset int) ([]*entity.Outlet, error) {
	list := make([]*entity.Outlet, 0, len(r.st.outlets))
	for _, o := range r.st.outlets {
		list = append(list, &o)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return page(list, limit, offset), nil
}

// ── Stock ────────────────────────────────────────────────────────────────────

type stockRepo struct{ r *repos }

func (s stockRepo) Get(_ context.Context, productID, outletID string) (*entity.StockRecord, error) {
	rec, ok := s.r.st.stock[stockKey{productID, outletID}]
	if !ok {
		return &entity.StockRecord{ProductID: productID, OutletID: outletID}, nil
	}
	return &rec, nil
}

func (s stockRepo) GetForUpdate(_ context.Context, productID, outletID string) (*entity.StockRecord, error) {
	key := stockKey{productID, outletID}
	rec, ok := s.r.st.stock[key]
	if ok {
		return &rec, nil
	}
	if _, ok := s.r.st.products[productID]; !ok {
		return nil, domain.ErrNotFound
	}
	if _, ok := s.r.st.outlets[outletID]; !ok {
		return nil, domain.ErrNotFound
	}
	rec = entity.StockRecord{ProductID: productID, OutletID: outletID, UpdatedAt: time.Now()}
	s.r.st.stock[key] = rec
	return &rec, nil
}

func (s stockRepo) Save(_ context.Context, stock *entity.StockRecord) error {
	if stock.Quantity < 0 {
		return domain.ErrInvalidInput
	}
	s.r.st.stock[stockKey{stock.ProductID, stock.OutletID}] = *stock
	return nil
}

func (s stockRepo) EnsureForOutlet(_ context.Context, outletID string, productIDs []string) error {
	now := time.Now()
	for _, pid := range productIDs {
		key := stockKey{pid, outletID}
		if _, ok := s.r.st.stock[key]; ok {
			continue
		}
		s.r.st.stock[key] = entity.StockRecord{ProductID: pid, OutletID: outletID, UpdatedAt: now}
	}
	return nil
}

// ── Movimientos ──────────────────────────────────────────────────────────────

type movementRepo struct{ r *repos }

func (m movementRepo) Append(_ context.Context, mov *entity.StockMovement) error {
	if mov.QuantityAfter != mov.QuantityBefore+mov.Delta {
		return domain.ErrInvalidInput
	}
	m.r.st.movements = append(m.r.st.movements, *mov)
	return nil
}

func (m movementRepo) List(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	list := make([]*entity.StockMovement, 0)
	for i := len(m.r.st.movements) - 1; i >= 0; i-- {
		mov := m.r.st.movements[i]
		if mov.ProductID != f.ProductID || mov.OutletID != f.OutletID {
			continue
		}
		if f.From != nil && mov.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && mov.CreatedAt.After(*f.To) {
			continue
		}
		list = append(list, &mov)
	}
	return page(list, f.Limit, f.Offset), nil
}

func (m movementRepo) ListByReference(_ context.Context, ref entity.Reference) ([]*entity.StockMovement, error) {
	list := make([]*entity.StockMovement, 0)
	for _, mov := range m.r.st.movements {
		if mov.Reference == ref {
			list = append(list, &mov)
		}
	}
	return list, nil
}

func (m movementRepo) SumDelta(_ context.Context, productID, outletID string) (int64, error) {
	var sum int64
	for _, mov := range m.r.st.movements {
		if mov.ProductID == productID && mov.OutletID == outletID {
			sum += mov.Delta
		}
	}
	return sum, nil
}

// ── Productos ────────────────────────────────────────────────────────────────

type productRepo struct{ r *repos }

func (p productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	prod, ok := p.r.st.products[id]
	if !ok {
		return nil, nil
	}
	return &prod, nil
}

func (p productRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return p.GetByID(ctx, id)
}

func (p productRepo) ListIDs(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(p.r.st.products))
	for id := range p.r.st.products {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (p productRepo) UpdateCost(_ context.Context, productID string, cost decimal.Decimal) error {
	prod, ok := p.r.st.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	prod.Cost = cost
	prod.UpdatedAt = time.Now()
	p.r.st.products[productID] = prod
	return nil
}

// ── Clientes ─────────────────────────────────────────────────────────────────

type customerRepo struct{ r *repos }

func (c customerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	cust, ok := c.r.st.customers[id]
	if !ok {
		return nil, nil
	}
	return &cust, nil
}

func (c customerRepo) AddLoyaltyPoints(_ context.Context, customerID string, delta int64) (int64, error) {
	cust, ok := c.r.st.customers[customerID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	cust.LoyaltyPoints += delta
	if cust.LoyaltyPoints < 0 {
		cust.LoyaltyPoints = 0
	}
	cust.UpdatedAt = time.Now()
	c.r.st.customers[customerID] = cust
	return cust.LoyaltyPoints, nil
}

// ── Traslados ────────────────────────────────────────────────────────────────

type transferRepo struct{ r *repos }

func (t transferRepo) Create(_ context.Context, tr *entity.StockTransfer) error {
	if _, ok := t.r.st.transfers[tr.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, existing := range t.r.st.transfers {
		if existing.TransferNumber == tr.TransferNumber {
			return domain.ErrDuplicate
		}
	}
	t.r.st.transfers[tr.ID] = copyTransfer(*tr)
	return nil
}

func (t transferRepo) GetByID(_ context.Context, id string) (*entity.StockTransfer, error) {
	tr, ok := t.r.st.transfers[id]
	if !ok {
		return nil, nil
	}
	tr = copyTransfer(tr)
	return &tr, nil
}

func (t transferRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockTransfer, error) {
	return t.GetByID(ctx, id)
}

func (t transferRepo) UpdateStatus(_ context.Context, tr *entity.StockTransfer) error {
	existing, ok := t.r.st.transfers[tr.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Status = tr.Status
	existing.ApprovedBy = tr.ApprovedBy
	existing.ApprovedAt = tr.ApprovedAt
	existing.CancelledBy = tr.CancelledBy
	existing.CancelledAt = tr.CancelledAt
	existing.UpdatedAt = tr.UpdatedAt
	t.r.st.transfers[tr.ID] = existing
	return nil
}

func (t transferRepo) List(_ context.Context, f repository.TransferFilter) ([]*entity.StockTransfer, error) {
	list := make([]*entity.StockTransfer, 0)
	for _, tr := range t.r.st.transfers {
		if f.Status != "" && tr.Status != f.Status {
			continue
		}
		if f.OutletID != "" && tr.FromOutletID != f.OutletID && tr.ToOutletID != f.OutletID {
			continue
		}
		tr = copyTransfer(tr)
		list = append(list, &tr)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return page(list, f.Limit, f.Offset), nil
}

// ── Ventas ───────────────────────────────────────────────────────────────────

type transactionRepo struct{ r *repos }

func (t transactionRepo) Create(_ context.Context, tx *entity.Transaction) error {
	if _, ok := t.r.st.transactions[tx.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, existing := range t.r.st.transactions {
		if existing.TransactionNumber == tx.TransactionNumber {
			return domain.ErrDuplicate
		}
		if tx.IdempotencyKey != "" && existing.IdempotencyKey == tx.IdempotencyKey {
			return domain.ErrDuplicate
		}
	}
	t.r.st.transactions[tx.ID] = copyTransaction(*tx)
	return nil
}

func (t transactionRepo) GetByID(_ context.Context, id string) (*entity.Transaction, error) {
	tx, ok := t.r.st.transactions[id]
	if !ok {
		return nil, nil
	}
	tx = copyTransaction(tx)
	return &tx, nil
}

func (t transactionRepo) GetByIdempotencyKey(_ context.Context, key string) (*entity.Transaction, error) {
	if key == "" {
		return nil, nil
	}
	for _, tx := range t.r.st.transactions {
		if tx.IdempotencyKey == key {
			tx = copyTransaction(tx)
			return &tx, nil
		}
	}
	return nil, nil
}

func (t transactionRepo) GetForUpdate(ctx context.Context, id string) (*entity.Transaction, error) {
	return t.GetByID(ctx, id)
}

func (t transactionRepo) UpdateStatus(_ context.Context, tx *entity.Transaction) error {
	existing, ok := t.r.st.transactions[tx.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Status = tx.Status
	existing.Notes = tx.Notes
	existing.RefundedAt = tx.RefundedAt
	existing.RefundedBy = tx.RefundedBy
	t.r.st.transactions[tx.ID] = existing
	return nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return list[:0]
		}
		list = list[offset:]
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}
