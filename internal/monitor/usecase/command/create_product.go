package command

import (
	"context"
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/monitor/domain"
	"github.com/shelfwatch/shelfwatch/internal/store"
)

// CreateProductCommand represents the command to register a new scale slot
type CreateProductCommand struct{}

// CreateProductHandler handles create product commands
type CreateProductHandler struct {
	st store.Store
}

// NewCreateProductHandler creates a new create product handler
func NewCreateProductHandler(st store.Store) *CreateProductHandler {
	return &CreateProductHandler{st: st}
}

// Handle assigns the next unused sequential product id and writes the default
// record for it. Returns the new product id.
func (h *CreateProductHandler) Handle(ctx context.Context, cmd CreateProductCommand) (string, error) {
	tree, err := h.st.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read inventory: %w", err)
	}

	next := 1
	for id := range tree.Products {
		if n, ok := domain.ProductNumber(id); ok && n >= next {
			next = n + 1
		}
	}

	productID := domain.ProductID(next)
	if err := h.st.SetProduct(ctx, productID, domain.DefaultProductDoc(next)); err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}
	return productID, nil
}
