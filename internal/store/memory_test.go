package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	st := NewMemoryStore()
	require.NoError(t, st.SetProduct(context.Background(), "product1", ProductDoc{Name: "Coke"}))

	snapshots, cancel, err := st.Subscribe(context.Background())
	require.NoError(t, err)
	defer cancel()

	tree := <-snapshots
	assert.Contains(t, tree.Products, "product1")
}

func TestSubscribeCoalescesBursts(t *testing.T) {
	st := NewMemoryStore()
	snapshots, cancel, err := st.Subscribe(context.Background())
	require.NoError(t, err)
	defer cancel()

	// A burst of writes with no reader in between must leave only the latest
	// snapshot in the channel.
	for i := 1; i <= 3; i++ {
		require.NoError(t, st.SetProduct(context.Background(), "product1", ProductDoc{TotalWeight: float64(i)}))
	}

	tree := <-snapshots
	assert.Equal(t, 3.0, tree.Products["product1"].TotalWeight)

	select {
	case tree, ok := <-snapshots:
		if ok {
			t.Fatalf("unexpected extra snapshot: %+v", tree)
		}
	default:
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	st := NewMemoryStore()
	snapshots, cancel, err := st.Subscribe(context.Background())
	require.NoError(t, err)

	<-snapshots
	cancel()

	_, ok := <-snapshots
	assert.False(t, ok)

	// Writes after cancel must not panic on the closed channel.
	require.NoError(t, st.SetProduct(context.Background(), "product1", ProductDoc{}))
}

func TestSnapshotIsolation(t *testing.T) {
	st := NewMemoryStore()
	require.NoError(t, st.SetProduct(context.Background(), "product1", ProductDoc{Name: "Coke"}))

	tree, err := st.Snapshot(context.Background())
	require.NoError(t, err)
	tree.Products["product1"] = ProductDoc{Name: "Tampered"}

	fresh, err := st.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Coke", fresh.Products["product1"].Name)
}

func TestSetProductFieldConversions(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, st.SetProduct(ctx, "product1", ProductDoc{}))

	require.NoError(t, st.SetProductField(ctx, "product1", FieldTotalWeight, 54.6))
	require.NoError(t, st.SetProductField(ctx, "product1", FieldHeartbeat, int64(1741597200)))
	require.NoError(t, st.SetProductField(ctx, "product1", FieldLowStockThreshold, 4))
	require.NoError(t, st.SetProductField(ctx, "product1", FieldItemWeight, "7.8"))

	tree, err := st.Snapshot(ctx)
	require.NoError(t, err)
	doc := tree.Products["product1"]
	assert.Equal(t, 54.6, doc.TotalWeight)
	assert.Equal(t, int64(1741597200), doc.Heartbeat)
	assert.Equal(t, 4, doc.LowStockThreshold)
	assert.Equal(t, 7.8, doc.ItemWeight)
}
