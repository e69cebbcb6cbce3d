package entity

import (
	"time"

	"github.com/jhoicas/pos-ledger-api/internal/domain"
)

// TransferStatus estado de un traslado.
type TransferStatus string

// Estados de un traslado. completed y cancelled son terminales.
const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusCompleted TransferStatus = "completed"
	TransferStatusCancelled TransferStatus = "cancelled"
)

// StockTransfer traslado de stock entre dos sucursales (raíz de agregado).
type StockTransfer struct {
	ID             string
	TransferNumber string
	FromOutletID   string
	ToOutletID     string
	Status         TransferStatus
	TransferDate   time.Time
	Notes          string
	ActorID        string
	ApprovedBy     string
	ApprovedAt     *time.Time
	CancelledBy    string
	CancelledAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Items          []StockTransferItem
}

// StockTransferItem línea de un traslado; pertenece exclusivamente a su traslado.
type StockTransferItem struct {
	TransferID string
	LineNo     int
	ProductID  string
	Quantity   int64
}

// Approve marca el traslado como completado. Solo desde pending.
func (t *StockTransfer) Approve(actorID string, now time.Time) error {
	if t.Status != TransferStatusPending {
		return &domain.TransitionError{Entity: "traslado", ID: t.ID, From: string(t.Status), Action: "approve"}
	}
	t.Status = TransferStatusCompleted
	t.ApprovedBy = actorID
	t.ApprovedAt = &now
	t.UpdatedAt = now
	return nil
}

// Cancel marca el traslado como cancelado. Solo desde pending.
func (t *StockTransfer) Cancel(actorID string, now time.Time) error {
	if t.Status != TransferStatusPending {
		return &domain.TransitionError{Entity: "traslado", ID: t.ID, From: string(t.Status), Action: "cancel"}
	}
	t.Status = TransferStatusCancelled
	t.CancelledBy = actorID
	t.CancelledAt = &now
	t.UpdatedAt = now
	return nil
}
