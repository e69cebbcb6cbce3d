package entity

import "time"

// StockRecord es la cantidad actual de un producto en una sucursal.
// Solo el ledger la modifica; Quantity siempre es igual a la suma de los Delta de sus movimientos.
type StockRecord struct {
	ProductID string
	OutletID  string
	Quantity  int64
	UpdatedAt time.Time
}
