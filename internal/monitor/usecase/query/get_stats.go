package query

import (
	"context"
	"fmt"

	"github.com/shelfwatch/shelfwatch/internal/monitor/detector"
	"github.com/shelfwatch/shelfwatch/internal/store"
)

// GetStatsQuery represents the query for the dashboard stat cards
type GetStatsQuery struct{}

// DashboardStats represents the headline numbers on the dashboard
type DashboardStats struct {
	TotalItems     int `json:"total_items"`
	TotalSoldToday int `json:"total_sold_today"`
	RefillItems    int `json:"refill_items"`
	OnlineProducts int `json:"online_products"`
	TotalProducts  int `json:"total_products"`
}

// GetStatsHandler handles dashboard stats queries
type GetStatsHandler struct {
	view  ProductView
	st    store.Store
	clock detector.Clock
}

// NewGetStatsHandler creates a new get stats handler
func NewGetStatsHandler(view ProductView, st store.Store, clock detector.Clock) *GetStatsHandler {
	return &GetStatsHandler{view: view, st: st, clock: clock}
}

// Handle computes the stat card values.
func (h *GetStatsHandler) Handle(ctx context.Context, q GetStatsQuery) (*DashboardStats, error) {
	stats := &DashboardStats{}

	for _, p := range h.view.Products() {
		stats.TotalProducts++
		stats.TotalItems += p.ItemsLeft
		stats.RefillItems += p.RefillCount
		if p.IsOnline {
			stats.OnlineProducts++
		}
	}

	tree, err := h.st.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sales: %w", err)
	}
	today := h.clock.Now().Format("2006-01-02")
	for _, sale := range tree.Sales {
		if sale.Date == today {
			stats.TotalSoldToday += sale.Quantity
		}
	}

	return stats, nil
}
