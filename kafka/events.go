package kafka

import "time"

// InventoryEvent is a confirmed business event inferred from scale snapshots.
type InventoryEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	ProductID   string    `json:"product_id,omitempty"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity,omitempty"`
	ItemWeight  float64   `json:"item_weight,omitempty"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeSaleConfirmed   = "sale.confirmed"
	EventTypeRefillConfirmed = "refill.confirmed"
	EventTypeTheftDetected   = "theft.detected"
	EventTypeStockAlert      = "stock.alert"
)

// Kafka topics
const (
	TopicInventoryEvents = "inventory-events"
)
