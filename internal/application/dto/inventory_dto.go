package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// Type: in (recepción de proveedor, requiere unit_cost), out (salida manual) o adjustment (delta con signo).
type RegisterMovementRequest struct {
	ProductID   string           `json:"product_id"`
	OutletID    string           `json:"outlet_id"`
	Type        string           `json:"type"`
	Quantity    int64            `json:"quantity"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceID string           `json:"reference_id,omitempty"` // id de la compra; vacío = se genera
	Notes       string           `json:"notes,omitempty"`
}

// StockOpnameRequest body para POST /api/inventory/opname (conteo físico).
type StockOpnameRequest struct {
	OutletID string            `json:"outlet_id"`
	Notes    string            `json:"notes,omitempty"`
	Items    []OpnameItemInput `json:"items"`
}

// OpnameItemInput cantidad contada de un producto.
type OpnameItemInput struct {
	ProductID       string `json:"product_id"`
	CountedQuantity int64  `json:"counted_quantity"`
}

// StockOpnameResponse resultado del conteo por línea.
type StockOpnameResponse struct {
	OpnameID string             `json:"opname_id"`
	OutletID string             `json:"outlet_id"`
	Items    []OpnameItemResult `json:"items"`
}

// OpnameItemResult cantidad del sistema vs. contada; Delta 0 = sin movimiento.
type OpnameItemResult struct {
	ProductID       string `json:"product_id"`
	SystemQuantity  int64  `json:"system_quantity"`
	CountedQuantity int64  `json:"counted_quantity"`
	Delta           int64  `json:"delta"`
}

// StockResponse cantidad actual de un producto en una sucursal.
type StockResponse struct {
	ProductID string    `json:"product_id"`
	OutletID  string    `json:"outlet_id"`
	Quantity  int64     `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MovementResponse movimiento del ledger.
type MovementResponse struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"product_id"`
	OutletID       string    `json:"outlet_id"`
	Type           string    `json:"type"`
	Delta          int64     `json:"delta"`
	QuantityBefore int64     `json:"quantity_before"`
	QuantityAfter  int64     `json:"quantity_after"`
	ReferenceType  string    `json:"reference_type"`
	ReferenceID    string    `json:"reference_id"`
	ActorID        string    `json:"actor_id,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// MovementListResponse historial paginado.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
