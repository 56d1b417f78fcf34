package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/shelfwatch/shelfwatch/internal/monitor/domain"
	"github.com/shelfwatch/shelfwatch/internal/store"
)

// ListSalesQuery represents the query for the sales log
type ListSalesQuery struct{}

// ListSalesHandler handles list sales queries
type ListSalesHandler struct {
	st store.Store
}

// NewListSalesHandler creates a new list sales handler
func NewListSalesHandler(st store.Store) *ListSalesHandler {
	return &ListSalesHandler{st: st}
}

// Handle returns all confirmed sales, newest first.
func (h *ListSalesHandler) Handle(ctx context.Context, q ListSalesQuery) ([]domain.SaleRecord, error) {
	tree, err := h.st.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sales: %w", err)
	}

	sales := make([]domain.SaleRecord, 0, len(tree.Sales))
	for id, doc := range tree.Sales {
		sales = append(sales, domain.SaleFromDoc(id, doc))
	}
	sort.Slice(sales, func(i, j int) bool {
		return sales[i].Timestamp.After(sales[j].Timestamp)
	})
	return sales, nil
}
