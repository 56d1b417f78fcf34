package store

import "context"

// ProductDoc is the raw per-device record as it lives in the inventory tree.
// Weights are grams; heartbeat, lastUpdated and lastSaleTime are unix seconds
// (0 means never); items_left is optional and derived from weight when absent.
type ProductDoc struct {
	Name              string   `json:"name"`
	TotalWeight       float64  `json:"total_weight"`
	ItemWeight        float64  `json:"item_weight"`
	ItemsLeft         *int     `json:"items_left,omitempty"`
	LastUpdated       int64    `json:"lastUpdated"`
	LastSaleTime      int64    `json:"lastSaleTime"`
	LowStockThreshold int      `json:"lowStockThreshold"`
	TheftThreshold    float64  `json:"theftThreshold"`
	RefillCount       int      `json:"refillCount"`
	Heartbeat         int64    `json:"heartbeat"`
}

// AlertDoc is a persisted alert entry. Timestamp is unix milliseconds.
type AlertDoc struct {
	ProductName string `json:"productName"`
	Message     string `json:"message"`
	Timestamp   int64  `json:"timestamp"`
	Read        bool   `json:"read"`
}

// SaleDoc is a persisted sale entry. Timestamp is unix milliseconds; Date and
// Time are the local calendar day and clock string captured at confirmation.
type SaleDoc struct {
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	ItemWeight  float64 `json:"itemWeight"`
	Timestamp   int64   `json:"timestamp"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
}

// Tree is a full replace-style snapshot of the inventory document tree.
// Subscribers always receive the whole tree and re-derive state from it.
type Tree struct {
	Products map[string]ProductDoc
	Alerts   map[string]AlertDoc
	Sales    map[string]SaleDoc
}

// Scalar product fields addressable by point writes.
const (
	FieldName              = "name"
	FieldTotalWeight       = "total_weight"
	FieldItemWeight        = "item_weight"
	FieldHeartbeat         = "heartbeat"
	FieldLowStockThreshold = "lowStockThreshold"
	FieldTheftThreshold    = "theftThreshold"
	FieldRefillCount       = "refillCount"
	FieldLastSaleTime      = "lastSaleTime"
)

// Store is the contract against the externally owned inventory tree. Writes are
// last-write-wins; the caller never has exclusive ownership of a record, other
// devices and operators mutate the same tree concurrently.
type Store interface {
	// Snapshot reads the current full tree.
	Snapshot(ctx context.Context) (Tree, error)

	// Subscribe delivers a full tree snapshot after every observed change. The
	// returned cancel func stops delivery and releases the subscription.
	Subscribe(ctx context.Context) (<-chan Tree, func(), error)

	SetProduct(ctx context.Context, id string, doc ProductDoc) error
	SetProductField(ctx context.Context, id, field string, value interface{}) error
	RemoveProduct(ctx context.Context, id string) error

	// PushAlert appends an alert under a server-generated id.
	PushAlert(ctx context.Context, doc AlertDoc) (string, error)
	RemoveAlert(ctx context.Context, id string) error
	ClearAlerts(ctx context.Context) error

	// PushSale appends a sale under a server-generated id.
	PushSale(ctx context.Context, doc SaleDoc) (string, error)
	RemoveSale(ctx context.Context, id string) error
	ClearSales(ctx context.Context) error
}
