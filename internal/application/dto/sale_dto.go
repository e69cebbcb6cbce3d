package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSaleRequest body para POST /api/sales.
// UnitPrice ausente o <= 0 toma el precio de lista del producto.
type CreateSaleRequest struct {
	OutletID      string          `json:"outlet_id"`
	CustomerID    string          `json:"customer_id,omitempty"`
	Items         []SaleItemInput `json:"items"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	Paid          decimal.Decimal `json:"paid"`
	PaymentMethod string          `json:"payment_method"`
	Notes         string          `json:"notes,omitempty"`
}

// SaleItemInput línea de venta solicitada.
type SaleItemInput struct {
	ProductID string           `json:"product_id"`
	Quantity  int64            `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// RefundRequest body para POST /api/sales/:id/refund.
type RefundRequest struct {
	Reason string `json:"reason"`
}

// SaleResponse venta con sus líneas.
type SaleResponse struct {
	ID                string             `json:"id"`
	TransactionNumber string             `json:"transaction_number"`
	OutletID          string             `json:"outlet_id"`
	CustomerID        string             `json:"customer_id,omitempty"`
	Status            string             `json:"status"`
	Subtotal          decimal.Decimal    `json:"subtotal"`
	Tax               decimal.Decimal    `json:"tax"`
	Discount          decimal.Decimal    `json:"discount"`
	Total             decimal.Decimal    `json:"total"`
	Paid              decimal.Decimal    `json:"paid"`
	Change            decimal.Decimal    `json:"change"`
	PaymentMethod     string             `json:"payment_method"`
	PointsAwarded     int64              `json:"points_awarded"`
	Notes             string             `json:"notes,omitempty"`
	ActorID           string             `json:"actor_id"`
	CreatedAt         time.Time          `json:"created_at"`
	RefundedAt        *time.Time         `json:"refunded_at,omitempty"`
	RefundedBy        string             `json:"refunded_by,omitempty"`
	Items             []SaleItemResponse `json:"items"`
}

// SaleItemResponse línea de venta.
type SaleItemResponse struct {
	LineNo        int             `json:"line_no"`
	ProductID     string          `json:"product_id"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}
