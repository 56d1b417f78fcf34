package domain

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/store"
)

// Normalize converts one raw device record into canonical product state.
// The online flag is always computed from heartbeat recency, never trusted from
// the record; a device with no heartbeat is never online. The previous count
// comes from the prior normalized state and is used only to detect the
// direction of change.
func Normalize(id string, doc store.ProductDoc, prev map[string]ProductState, now time.Time) ProductState {
	var heartbeat time.Time
	online := false
	if doc.Heartbeat > 0 {
		heartbeat = time.Unix(doc.Heartbeat, 0)
		online = now.Sub(heartbeat) < HeartbeatTimeout
	}

	unitWeight := doc.ItemWeight
	if unitWeight <= 0 {
		unitWeight = DefaultItemWeight
	}

	itemsLeft := int(math.Floor(doc.TotalWeight / unitWeight))
	if doc.ItemsLeft != nil {
		itemsLeft = *doc.ItemsLeft
	}

	previous := itemsLeft
	if prevState, ok := prev[id]; ok {
		previous = prevState.ItemsLeft
	}

	name := strings.TrimSpace(doc.Name)
	if name == "" {
		name = fmt.Sprintf("Product %s", strings.TrimPrefix(id, productIDPrefix))
	}

	var lastSale time.Time
	if doc.LastSaleTime > 0 {
		lastSale = time.Unix(doc.LastSaleTime, 0)
	}
	var lastUpdated time.Time
	if doc.LastUpdated > 0 {
		lastUpdated = time.Unix(doc.LastUpdated, 0)
	}

	threshold := doc.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	theftThreshold := doc.TheftThreshold
	if theftThreshold <= 0 {
		theftThreshold = DefaultTheftThreshold
	}

	return ProductState{
		ID:                id,
		Name:              name,
		ItemUnitWeight:    unitWeight,
		TotalWeight:       doc.TotalWeight,
		ItemsLeft:         itemsLeft,
		PreviousItemsLeft: previous,
		IsOnline:          online,
		LastHeartbeat:     heartbeat,
		LastSaleTime:      lastSale,
		LastUpdated:       lastUpdated,
		LowStockThreshold: threshold,
		TheftThreshold:    theftThreshold,
		RefillCount:       doc.RefillCount,
	}
}

// NormalizeTree folds a full products sub-tree into normalized state. An empty
// tree synthesizes two default offline placeholders so the dashboard always has
// at least MinProducts cards; placeholders are view-only and never written back.
func NormalizeTree(products map[string]store.ProductDoc, prev map[string]ProductState, now time.Time) map[string]ProductState {
	if len(products) == 0 {
		return placeholderProducts()
	}

	normalized := make(map[string]ProductState, len(products))
	for id, doc := range products {
		if _, ok := ProductNumber(id); !ok {
			continue
		}
		normalized[id] = Normalize(id, doc, prev, now)
	}
	if len(normalized) == 0 {
		return placeholderProducts()
	}
	return normalized
}

func placeholderProducts() map[string]ProductState {
	placeholders := make(map[string]ProductState, MinProducts)
	for n := 1; n <= MinProducts; n++ {
		id := ProductID(n)
		placeholders[id] = ProductState{
			ID:                id,
			Name:              fmt.Sprintf("Product %d", n),
			ItemUnitWeight:    DefaultItemWeight,
			LowStockThreshold: DefaultLowStockThreshold,
			TheftThreshold:    DefaultTheftThreshold,
		}
	}
	return placeholders
}
