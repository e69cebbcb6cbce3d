package kafka

import "time"

// MovementEvent movimiento de stock confirmado, tal como se publica en Kafka.
type MovementEvent struct {
	EventID        string    `json:"event_id"`
	EventType      string    `json:"event_type"`
	MovementID     string    `json:"movement_id"`
	ProductID      string    `json:"product_id"`
	OutletID       string    `json:"outlet_id"`
	Type           string    `json:"type"`
	Delta          int64     `json:"delta"`
	QuantityBefore int64     `json:"quantity_before"`
	QuantityAfter  int64     `json:"quantity_after"`
	ReferenceType  string    `json:"reference_type"`
	ReferenceID    string    `json:"reference_id"`
	ActorID        string    `json:"actor_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Tipos de evento
const (
	EventTypeStockMovement = "stock.movement"
)

// DefaultTopic tópico por defecto de movimientos.
const DefaultTopic = "stock-movements"
