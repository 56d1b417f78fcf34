package command

import (
	"context"
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/store"
)

// UpdateLowStockThresholdCommand represents the command to change the count at
// or below which low-stock alerts fire
type UpdateLowStockThresholdCommand struct {
	ProductID string
	Threshold int
}

// UpdateTheftThresholdCommand represents the command to change the weight-delta
// sensitivity reserved for noise discrimination
type UpdateTheftThresholdCommand struct {
	ProductID string
	Threshold float64
}

// UpdateThresholdsHandler handles threshold edits
type UpdateThresholdsHandler struct {
	st store.Store
}

// NewUpdateThresholdsHandler creates a new update thresholds handler
func NewUpdateThresholdsHandler(st store.Store) *UpdateThresholdsHandler {
	return &UpdateThresholdsHandler{st: st}
}

// HandleLowStock executes a low-stock threshold edit
func (h *UpdateThresholdsHandler) HandleLowStock(ctx context.Context, cmd UpdateLowStockThresholdCommand) error {
	if cmd.Threshold < 0 {
		return fmt.Errorf("threshold cannot be negative")
	}
	if err := h.st.SetProductField(ctx, cmd.ProductID, store.FieldLowStockThreshold, cmd.Threshold); err != nil {
		return fmt.Errorf("failed to update low stock threshold: %w", err)
	}
	return nil
}

// HandleTheft executes a theft threshold edit
func (h *UpdateThresholdsHandler) HandleTheft(ctx context.Context, cmd UpdateTheftThresholdCommand) error {
	if cmd.Threshold < 0 {
		return fmt.Errorf("theft threshold cannot be negative")
	}
	if err := h.st.SetProductField(ctx, cmd.ProductID, store.FieldTheftThreshold, cmd.Threshold); err != nil {
		return fmt.Errorf("failed to update theft threshold: %w", err)
	}
	return nil
}
