package command

import (
	"context"
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/store"
)

// ClearSalesCommand clears the sales log, either entirely or for one product
// by name.
type ClearSalesCommand struct {
	ProductName string // empty clears everything
}

// ClearSalesHandler handles sales log clearing
type ClearSalesHandler struct {
	st store.Store
}

// NewClearSalesHandler creates a new clear sales handler
func NewClearSalesHandler(st store.Store) *ClearSalesHandler {
	return &ClearSalesHandler{st: st}
}

// Handle executes the clear
func (h *ClearSalesHandler) Handle(ctx context.Context, cmd ClearSalesCommand) error {
	if cmd.ProductName == "" {
		if err := h.st.ClearSales(ctx); err != nil {
			return fmt.Errorf("failed to clear sales: %w", err)
		}
		return nil
	}

	tree, err := h.st.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sales: %w", err)
	}
	for id, sale := range tree.Sales {
		if sale.ProductName != cmd.ProductName {
			continue
		}
		if err := h.st.RemoveSale(ctx, id); err != nil {
			return fmt.Errorf("failed to clear sales for %s: %w", cmd.ProductName, err)
		}
	}
	return nil
}
