package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/shelfwatch/shelfwatch/internal/store"
)

// UpdateNameCommand represents the command to rename a product
type UpdateNameCommand struct {
	ProductID string
	Name      string
}

// UpdateItemWeightCommand represents the command to recalibrate a product's
// per-item unit weight
type UpdateItemWeightCommand struct {
	ProductID string
	Weight    float64
}

// UpdateProductHandler handles product field edits. Validation happens before
// any write, so a rejected edit never leaves a partial update behind.
type UpdateProductHandler struct {
	st store.Store
}

// NewUpdateProductHandler creates a new update product handler
func NewUpdateProductHandler(st store.Store) *UpdateProductHandler {
	return &UpdateProductHandler{st: st}
}

// HandleName executes a rename
func (h *UpdateProductHandler) HandleName(ctx context.Context, cmd UpdateNameCommand) error {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return fmt.Errorf("product name cannot be empty")
	}
	if err := h.st.SetProductField(ctx, cmd.ProductID, store.FieldName, name); err != nil {
		return fmt.Errorf("failed to update product name: %w", err)
	}
	return nil
}

// HandleItemWeight executes a unit-weight edit
func (h *UpdateProductHandler) HandleItemWeight(ctx context.Context, cmd UpdateItemWeightCommand) error {
	if cmd.Weight <= 0 {
		return fmt.Errorf("item weight must be greater than 0")
	}
	if err := h.st.SetProductField(ctx, cmd.ProductID, store.FieldItemWeight, cmd.Weight); err != nil {
		return fmt.Errorf("failed to update item weight: %w", err)
	}
	return nil
}
