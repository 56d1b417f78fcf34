package command

import (
	"context"
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/monitor/domain"
	"github.com/shelfwatch/shelfwatch/internal/store"
)

// DetectorRegistry cancels pending detector timers for a removed product.
type DetectorRegistry interface {
	ForgetProduct(productID, productName string)
}

// DeleteProductCommand represents the command to remove a scale slot
type DeleteProductCommand struct {
	ProductID string
}

// DeleteProductHandler handles delete product commands
type DeleteProductHandler struct {
	st  store.Store
	reg DetectorRegistry
}

// NewDeleteProductHandler creates a new delete product handler
func NewDeleteProductHandler(st store.Store, reg DetectorRegistry) *DeleteProductHandler {
	return &DeleteProductHandler{st: st, reg: reg}
}

// Handle removes the product unless the dashboard would drop below its minimum
// grid size. Any pending debounce timers for the product are cancelled first so
// nothing commits against the removed record.
func (h *DeleteProductHandler) Handle(ctx context.Context, cmd DeleteProductCommand) error {
	if cmd.ProductID == "" {
		return fmt.Errorf("product id is required")
	}

	tree, err := h.st.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read inventory: %w", err)
	}

	doc, exists := tree.Products[cmd.ProductID]
	if !exists {
		return fmt.Errorf("product %s not found", cmd.ProductID)
	}
	if len(tree.Products) <= domain.MinProducts {
		return fmt.Errorf("cannot delete product: at least %d products must remain", domain.MinProducts)
	}

	if h.reg != nil {
		h.reg.ForgetProduct(cmd.ProductID, doc.Name)
	}

	if err := h.st.RemoveProduct(ctx, cmd.ProductID); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
