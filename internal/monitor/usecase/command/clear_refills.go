package command

import (
	"context"
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/store"
)

// ClearRefillsCommand zeroes refill counters, either for every product or for
// one product by id.
type ClearRefillsCommand struct {
	ProductID string // empty clears every product
}

// ClearRefillsHandler handles refill counter clearing
type ClearRefillsHandler struct {
	st store.Store
}

// NewClearRefillsHandler creates a new clear refills handler
func NewClearRefillsHandler(st store.Store) *ClearRefillsHandler {
	return &ClearRefillsHandler{st: st}
}

// Handle executes the clear
func (h *ClearRefillsHandler) Handle(ctx context.Context, cmd ClearRefillsCommand) error {
	if cmd.ProductID != "" {
		if err := h.st.SetProductField(ctx, cmd.ProductID, store.FieldRefillCount, 0); err != nil {
			return fmt.Errorf("failed to clear refill count: %w", err)
		}
		return nil
	}

	tree, err := h.st.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read inventory: %w", err)
	}
	for id := range tree.Products {
		if err := h.st.SetProductField(ctx, id, store.FieldRefillCount, 0); err != nil {
			return fmt.Errorf("failed to clear refill count for %s: %w", id, err)
		}
	}
	return nil
}
