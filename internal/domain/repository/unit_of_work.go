package repository

import "context"

// UnitOfWork agrupa los repositorios atados a una misma transacción de BD.
type UnitOfWork interface {
	Outlets() OutletRepository
	Stock() StockRepository
	Movements() StockMovementRepository
	Products() ProductRepository
	Customers() CustomerRepository
	Transfers() StockTransferRepository
	Transactions() TransactionRepository
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback en otro caso
// (incluido ctx cancelado). Ningún movimiento sobrevive a un rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(uow UnitOfWork) error) error
}
