// Package memory implementa los puertos de repositorio en memoria para desarrollo y tests.
// Las transacciones se serializan con un único bloqueo y trabajan sobre una copia del estado:
// Commit reemplaza el estado, Rollback descarta la copia.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/pos-ledger-api/internal/domain"
	"github.com/jhoicas/pos-ledger-api/internal/domain/entity"
	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

// DefaultLockTimeout espera máxima por el bloqueo de transacción.
const DefaultLockTimeout = 5 * time.Second

type stockKey struct {
	productID string
	outletID  string
}

type state struct {
	outlets      map[string]entity.Outlet
	products     map[string]entity.Product
	customers    map[string]entity.Customer
	stock        map[stockKey]entity.StockRecord
	movements    []entity.StockMovement
	transfers    map[string]entity.StockTransfer
	transactions map[string]entity.Transaction
}

func newState() *state {
	return &state{
		outlets:      make(map[string]entity.Outlet),
		products:     make(map[string]entity.Product),
		customers:    make(map[string]entity.Customer),
		stock:        make(map[stockKey]entity.StockRecord),
		transfers:    make(map[string]entity.StockTransfer),
		transactions: make(map[string]entity.Transaction),
	}
}

func (s *state) clone() *state {
	c := &state{
		outlets:      make(map[string]entity.Outlet, len(s.outlets)),
		products:     make(map[string]entity.Product, len(s.products)),
		customers:    make(map[string]entity.Customer, len(s.customers)),
		stock:        make(map[stockKey]entity.StockRecord, len(s.stock)),
		movements:    make([]entity.StockMovement, len(s.movements)),
		transfers:    make(map[string]entity.StockTransfer, len(s.transfers)),
		transactions: make(map[string]entity.Transaction, len(s.transactions)),
	}
	for k, v := range s.outlets {
		c.outlets[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.stock {
		c.stock[k] = v
	}
	copy(c.movements, s.movements)
	for k, v := range s.transfers {
		c.transfers[k] = copyTransfer(v)
	}
	for k, v := range s.transactions {
		c.transactions[k] = copyTransaction(v)
	}
	return c
}

// Store estado en memoria. Implementa repository.TxRunner y expone repositorios sin transacción.
type Store struct {
	mu          sync.RWMutex
	st          *state
	txLock      chan struct{}
	lockTimeout time.Duration
}

// New crea un store vacío. lockTimeout <= 0 usa DefaultLockTimeout.
func New(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		st:          newState(),
		txLock:      make(chan struct{}, 1),
		lockTimeout: lockTimeout,
	}
}

// Run ejecuta fn sobre una copia del estado. Si fn devuelve nil y ctx sigue vigente la copia
// pasa a ser el estado confirmado; en otro caso se descarta.
func (s *Store) Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer func() { <-s.txLock }()

	s.mu.RLock()
	work := s.st.clone()
	s.mu.RUnlock()

	if err := fn(&repos{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.st = work
	s.mu.Unlock()
	return nil
}

func (s *Store) acquire(ctx context.Context) error {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case s.txLock <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) read(fn func(r *repos) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&repos{st: s.st})
}

func (s *Store) write(ctx context.Context, fn func(r *repos) error) error {
	return s.Run(ctx, func(uow repository.UnitOfWork) error {
		return fn(uow.(*repos))
	})
}

// AddOutlet, AddProduct y AddCustomer cargan datos maestros (seed de desarrollo y tests).
func (s *Store) AddOutlet(o entity.Outlet) {
	_ = s.write(context.Background(), func(r *repos) error {
		r.st.outlets[o.ID] = o
		return nil
	})
}

func (s *Store) AddProduct(p entity.Product) {
	_ = s.write(context.Background(), func(r *repos) error {
		r.st.products[p.ID] = p
		return nil
	})
}

func (s *Store) AddCustomer(c entity.Customer) {
	_ = s.write(context.Background(), func(r *repos) error {
		r.st.customers[c.ID] = c
		return nil
	})
}

// Outlets, Stock, Movements, Products, Customers, Transfers y Transactions devuelven
// repositorios fuera de transacción: lecturas sobre el estado confirmado y escrituras
// en una transacción propia.
func (s *Store) Outlets() repository.OutletRepository { return outletView{s} }
func (s *Store) Stock() repository.StockRepository { return stockView{s} }
func (s *Store) Movements() repository.StockMovementRepository { return movementView{s} }
func (s *Store) Products() repository.ProductRepository { return productView{s} }
func (s *Store) Customers() repository.CustomerRepository { return customerView{s} }
func (s *Store) Transfers() repository.StockTransferRepository { return transferView{s} }
func (s *Store) Transactions() repository.TransactionRepository { return transactionView{s} }

var _ repository.TxRunner = (*Store)(nil)

func copyTransfer(t entity.StockTransfer) entity.StockTransfer {
	t.Items = append([]entity.StockTransferItem(nil), t.Items...)
	return t
}

func copyTransaction(t entity.Transaction) entity.Transaction {
	t.Items = append([]entity.TransactionItem(nil), t.Items...)
	return t
}
