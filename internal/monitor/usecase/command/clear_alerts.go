package command

import (
	"context"
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/store"
)

// AlertGuard resets the in-memory alert dedup window.
type AlertGuard interface {
	ResetAlertGuard()
}

// ClearAlertCommand removes one alert by id
type ClearAlertCommand struct {
	AlertID string
}

// ClearAllAlertsCommand wipes the alert list
type ClearAllAlertsCommand struct{}

// ClearAlertsHandler handles alert acknowledgement and clearing
type ClearAlertsHandler struct {
	st    store.Store
	guard AlertGuard
}

// NewClearAlertsHandler creates a new clear alerts handler
func NewClearAlertsHandler(st store.Store, guard AlertGuard) *ClearAlertsHandler {
	return &ClearAlertsHandler{st: st, guard: guard}
}

// HandleOne removes a single alert. The underlying stock condition is not
// touched; if it still holds it simply re-fires on the next qualifying
// snapshot once the dedup window lapses.
func (h *ClearAlertsHandler) HandleOne(ctx context.Context, cmd ClearAlertCommand) error {
	if cmd.AlertID == "" {
		return fmt.Errorf("alert id is required")
	}
	if err := h.st.RemoveAlert(ctx, cmd.AlertID); err != nil {
		return fmt.Errorf("failed to clear alert: %w", err)
	}
	return nil
}

// HandleAll wipes the alert list and resets the dedup guard so conditions that
// still hold re-fire immediately.
func (h *ClearAlertsHandler) HandleAll(ctx context.Context, cmd ClearAllAlertsCommand) error {
	if err := h.st.ClearAlerts(ctx); err != nil {
		return fmt.Errorf("failed to clear alerts: %w", err)
	}
	if h.guard != nil {
		h.guard.ResetAlertGuard()
	}
	return nil
}
