package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch/internal/store"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestNormalizeOnlineFromHeartbeatRecency(t *testing.T) {
	tests := []struct {
		name      string
		heartbeat int64
		online    bool
	}{
		{"fresh heartbeat", testNow.Add(-30 * time.Second).Unix(), true},
		{"stale heartbeat", testNow.Add(-90 * time.Second).Unix(), false},
		{"exactly at timeout", testNow.Add(-HeartbeatTimeout).Unix(), false},
		{"no heartbeat", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Normalize("product1", store.ProductDoc{Heartbeat: tt.heartbeat}, nil, testNow)
			assert.Equal(t, tt.online, p.IsOnline)
		})
	}
}

func TestNormalizeDerivesItemsFromWeight(t *testing.T) {
	p := Normalize("product1", store.ProductDoc{TotalWeight: 39, ItemWeight: 7.8}, nil, testNow)
	assert.Equal(t, 5, p.ItemsLeft)

	// Partial items round down.
	p = Normalize("product1", store.ProductDoc{TotalWeight: 40, ItemWeight: 7.8}, nil, testNow)
	assert.Equal(t, 5, p.ItemsLeft)
}

func TestNormalizeExplicitCountWinsOverWeight(t *testing.T) {
	count := 12
	p := Normalize("product1", store.ProductDoc{TotalWeight: 39, ItemWeight: 7.8, ItemsLeft: &count}, nil, testNow)
	assert.Equal(t, 12, p.ItemsLeft)
}

func TestNormalizeZeroUnitWeightFallsBack(t *testing.T) {
	p := Normalize("product1", store.ProductDoc{TotalWeight: 78}, nil, testNow)
	assert.Equal(t, DefaultItemWeight, p.ItemUnitWeight)
	assert.Equal(t, 10, p.ItemsLeft)
}

func TestNormalizePreviousComesFromPriorState(t *testing.T) {
	prev := map[string]ProductState{
		"product1": {ItemsLeft: 9},
	}
	p := Normalize("product1", store.ProductDoc{TotalWeight: 39, ItemWeight: 7.8}, prev, testNow)
	assert.Equal(t, 5, p.ItemsLeft)
	assert.Equal(t, 9, p.PreviousItemsLeft)

	// Without prior state the previous count equals the current one.
	p = Normalize("product1", store.ProductDoc{TotalWeight: 39, ItemWeight: 7.8}, nil, testNow)
	assert.Equal(t, p.ItemsLeft, p.PreviousItemsLeft)
}

func TestNormalizeDefaults(t *testing.T) {
	p := Normalize("product3", store.ProductDoc{}, nil, testNow)
	assert.Equal(t, "Product 3", p.Name)
	assert.Equal(t, DefaultLowStockThreshold, p.LowStockThreshold)
	assert.Equal(t, DefaultTheftThreshold, p.TheftThreshold)
}

func TestNormalizeTreeEmptySynthesizesPlaceholders(t *testing.T) {
	states := NormalizeTree(nil, nil, testNow)
	require.Len(t, states, MinProducts)

	for n := 1; n <= MinProducts; n++ {
		p, ok := states[ProductID(n)]
		require.True(t, ok)
		assert.False(t, p.IsOnline)
		assert.Equal(t, 0, p.ItemsLeft)
	}
}

func TestNormalizeTreeIgnoresForeignKeys(t *testing.T) {
	products := map[string]store.ProductDoc{
		"product1": {TotalWeight: 39, ItemWeight: 7.8},
		"_meta":    {TotalWeight: 100},
	}
	states := NormalizeTree(products, nil, testNow)
	require.Len(t, states, 1)
	assert.Contains(t, states, "product1")
}

func TestStockPredicates(t *testing.T) {
	assert.True(t, ProductState{ItemsLeft: 0}.OutOfStock())
	assert.True(t, ProductState{ItemsLeft: -1}.OutOfStock())
	assert.False(t, ProductState{ItemsLeft: 1}.OutOfStock())

	assert.True(t, ProductState{ItemsLeft: 2, LowStockThreshold: 2}.LowStock())
	assert.False(t, ProductState{ItemsLeft: 3, LowStockThreshold: 2}.LowStock())
	assert.False(t, ProductState{ItemsLeft: 0, LowStockThreshold: 2}.LowStock())
}

func TestProductNumberRoundTrip(t *testing.T) {
	n, ok := ProductNumber(ProductID(7))
	require.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = ProductNumber("alerts")
	assert.False(t, ok)
	_, ok = ProductNumber("productX")
	assert.False(t, ok)
}
