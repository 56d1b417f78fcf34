package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/store"
)

const (
	// HeartbeatTimeout is how stale a device heartbeat may be before the
	// product is treated as offline.
	HeartbeatTimeout = 60 * time.Second

	// DefaultItemWeight (grams) guards the items-left derivation against a
	// zero or missing unit weight.
	DefaultItemWeight = 7.8

	DefaultLowStockThreshold = 2
	DefaultTheftThreshold    = 5.0

	// MinProducts is the smallest product set the dashboard can render; deletes
	// that would go below it are rejected.
	MinProducts = 2

	productIDPrefix = "product"
)

// ProductState is the canonical per-scale state derived from a raw device
// record. ItemsLeft may go negative transiently under miscalibration; anything
// <= 0 means out of stock regardless of sign. TheftThreshold is stored and
// editable but not consulted by the decrease-detection path.
type ProductState struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	ItemUnitWeight    float64   `json:"item_weight"`
	TotalWeight       float64   `json:"total_weight"`
	ItemsLeft         int       `json:"items_left"`
	PreviousItemsLeft int       `json:"previous_items_left"`
	IsOnline          bool      `json:"is_online"`
	LastHeartbeat     time.Time `json:"last_heartbeat"`
	LastSaleTime      time.Time `json:"last_sale_time"`
	LastUpdated       time.Time `json:"last_updated"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	TheftThreshold    float64   `json:"theft_threshold"`
	RefillCount       int       `json:"refill_count"`
}

// OutOfStock reports whether the product counts as out of stock.
func (p ProductState) OutOfStock() bool {
	return p.ItemsLeft <= 0
}

// LowStock reports whether the product is at or below its low-stock threshold
// without being out of stock.
func (p ProductState) LowStock() bool {
	return p.ItemsLeft > 0 && p.ItemsLeft <= p.LowStockThreshold
}

// ProductID formats the tree key for the nth scale.
func ProductID(n int) string {
	return fmt.Sprintf("%s%d", productIDPrefix, n)
}

// ProductNumber extracts the sequence number from a tree key; ok is false for
// keys that do not follow the product<N> convention.
func ProductNumber(id string) (int, bool) {
	if !strings.HasPrefix(id, productIDPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, productIDPrefix))
	if err != nil {
		return 0, false
	}
	return n, true
}

// DefaultProductDoc is the record written for an operator-created product.
func DefaultProductDoc(n int) store.ProductDoc {
	return store.ProductDoc{
		Name:              fmt.Sprintf("Product %d", n),
		TotalWeight:       0,
		ItemWeight:        DefaultItemWeight,
		LowStockThreshold: DefaultLowStockThreshold,
		TheftThreshold:    DefaultTheftThreshold,
	}
}
