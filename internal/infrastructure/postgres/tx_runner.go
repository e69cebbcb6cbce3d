package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/pos-ledger-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool. lockTimeout > 0 se aplica con SET LOCAL en cada tx.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Un ctx cancelado antes del commit descarta todo.
func (r *TxRunner) Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if r.lockTimeout > 0 {
		// SET no admite parámetros; el valor es un entero controlado por configuración.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	if err := fn(NewUnitOfWork(tx)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}

// UnitOfWork repositorios atados a un mismo Querier (tx o pool).
type UnitOfWork struct {
	q Querier
}

// NewUnitOfWork construye la unidad de trabajo. Con el pool sirve como acceso sin transacción.
func NewUnitOfWork(q Querier) *UnitOfWork {
	return &UnitOfWork{q: q}
}

var _ repository.UnitOfWork = (*UnitOfWork)(nil)

func (u *UnitOfWork) Outlets() repository.OutletRepository { return NewOutletRepository(u.q) }
func (u *UnitOfWork) Stock() repository.StockRepository { return NewStockRepository(u.q) }
func (u *UnitOfWork) Movements() repository.StockMovementRepository { return NewStockMovementRepository(u.q) }
func (u *UnitOfWork) Products() repository.ProductRepository { return NewProductRepository(u.q) }
func (u *UnitOfWork) Customers() repository.CustomerRepository { return NewCustomerRepository(u.q) }
func (u *UnitOfWork) Transfers() repository.StockTransferRepository { return NewStockTransferRepository(u.q) }
func (u *UnitOfWork) Transactions() repository.TransactionRepository { return NewTransactionRepository(u.q) }
