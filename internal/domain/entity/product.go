package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo.
// Cost es el costo promedio ponderado vigente; se copia a cada línea de venta como PurchasePrice.
type Product struct {
	ID        string
	CompanyID string
	SKU       string
	Name      string
	Price     decimal.Decimal // precio de lista
	Cost      decimal.Decimal // costo promedio ponderado
	CreatedAt time.Time
	UpdatedAt time.Time
}
