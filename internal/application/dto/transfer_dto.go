package dto

import "time"

// CreateTransferRequest body para POST /api/transfers.
type CreateTransferRequest struct {
	FromOutletID string              `json:"from_outlet_id"`
	ToOutletID   string              `json:"to_outlet_id"`
	TransferDate *time.Time          `json:"transfer_date,omitempty"`
	Notes        string              `json:"notes,omitempty"`
	Items        []TransferItemInput `json:"items"`
}

// TransferItemInput línea solicitada.
type TransferItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// TransferResponse traslado con sus líneas.
type TransferResponse struct {
	ID             string                 `json:"id"`
	TransferNumber string                 `json:"transfer_number"`
	FromOutletID   string                 `json:"from_outlet_id"`
	ToOutletID     string                 `json:"to_outlet_id"`
	Status         string                 `json:"status"`
	TransferDate   time.Time              `json:"transfer_date"`
	Notes          string                 `json:"notes,omitempty"`
	ActorID        string                 `json:"actor_id"`
	ApprovedBy     string                 `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time             `json:"approved_at,omitempty"`
	CancelledBy    string                 `json:"cancelled_by,omitempty"`
	CancelledAt    *time.Time             `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	Items          []TransferItemResponse `json:"items"`
}

// TransferItemResponse línea de traslado.
type TransferItemResponse struct {
	LineNo    int    `json:"line_no"`
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// TransferListResponse lista paginada de traslados.
type TransferListResponse struct {
	Items []TransferResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
