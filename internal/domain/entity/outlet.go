package entity

import "time"

// Outlet representa una sucursal (punto de venta) con inventario propio.
type Outlet struct {
	ID        string
	CompanyID string
	Code      string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
