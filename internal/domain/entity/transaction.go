package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/pos-ledger-api/internal/domain"
)

// TransactionStatus estado de una venta.
type TransactionStatus string

// Estados de una venta.
const (
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// Transaction cabecera de una venta en una sucursal.
type Transaction struct {
	ID                string
	TransactionNumber string
	OutletID          string
	CustomerID        string // vacío = venta sin cliente
	Status            TransactionStatus
	Subtotal          decimal.Decimal
	Tax               decimal.Decimal
	Discount          decimal.Decimal
	Total             decimal.Decimal
	Paid              decimal.Decimal
	Change            decimal.Decimal
	PaymentMethod     string
	PointsAwarded     int64 // puntos otorgados al cliente; el reembolso descuenta exactamente esta cantidad
	Notes             string
	ActorID           string
	CreatedAt         time.Time
	RefundedAt        *time.Time
	RefundedBy        string
	IdempotencyKey    string // Idempotency-Key del POS; única entre ventas, vacía si el cliente no la envió
	Items             []TransactionItem
}

// TransactionItem línea de venta. Inmutable una vez creada la venta.
type TransactionItem struct {
	TransactionID string
	LineNo        int
	ProductID     string
	Quantity      int64
	UnitPrice     decimal.Decimal
	PurchasePrice decimal.Decimal // costo del producto al momento de la venta
	TotalPrice    decimal.Decimal
}

// MarkRefunded pasa la venta a refunded y agrega el motivo a las notas (sin sobrescribir).
func (t *Transaction) MarkRefunded(actorID, reason string, now time.Time) error {
	if t.Status != TransactionStatusCompleted {
		return &domain.TransitionError{Entity: "venta", ID: t.ID, From: string(t.Status), Action: "refund"}
	}
	t.Status = TransactionStatusRefunded
	t.RefundedAt = &now
	t.RefundedBy = actorID
	line := "[REFUND " + now.Format(time.RFC3339) + "] " + strings.TrimSpace(reason)
	if t.Notes == "" {
		t.Notes = line
	} else {
		t.Notes = t.Notes + "\n" + line
	}
	return nil
}
