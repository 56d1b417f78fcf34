package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/monitor/domain"
	"github.com/shelfwatch/shelfwatch/internal/store"
)

// CollapseWindow bounds how close two identical (product, message) alerts may
// sit before the view treats them as duplicates. Both entries may exist in the
// store; only the earliest is surfaced.
const CollapseWindow = 5 * time.Minute

// ListAlertsQuery represents the query for the alert bell
type ListAlertsQuery struct{}

// ListAlertsHandler handles list alerts queries
type ListAlertsHandler struct {
	st store.Store
}

// NewListAlertsHandler creates a new list alerts handler
func NewListAlertsHandler(st store.Store) *ListAlertsHandler {
	return &ListAlertsHandler{st: st}
}

// Handle returns the deduplicated alert list, newest first.
func (h *ListAlertsHandler) Handle(ctx context.Context, q ListAlertsQuery) ([]domain.Alert, error) {
	tree, err := h.st.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read alerts: %w", err)
	}

	alerts := make([]domain.Alert, 0, len(tree.Alerts))
	for id, doc := range tree.Alerts {
		if doc.ProductName == "" {
			continue
		}
		alerts = append(alerts, domain.AlertFromDoc(id, doc))
	}
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].Timestamp.Before(alerts[j].Timestamp)
	})

	collapsed := alerts[:0]
	for _, alert := range alerts {
		duplicate := false
		for _, kept := range collapsed {
			if kept.ProductName == alert.ProductName &&
				kept.Message == alert.Message &&
				alert.Timestamp.Sub(kept.Timestamp) < CollapseWindow {
				duplicate = true
				break
			}
		}
		if !duplicate {
			collapsed = append(collapsed, alert)
		}
	}

	// Newest first for the bell dropdown.
	sort.Slice(collapsed, func(i, j int) bool {
		return collapsed[i].Timestamp.After(collapsed[j].Timestamp)
	})
	return collapsed, nil
}
