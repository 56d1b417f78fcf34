package query

import (
	"sort"

	"github.com/shelfwatch/shelfwatch/internal/monitor/domain"
)

// ProductView exposes the engine's latest normalized product state.
type ProductView interface {
	Products() map[string]domain.ProductState
}

// ListProductsQuery represents the query for the product grid
type ListProductsQuery struct{}

// ListProductsHandler handles list products queries
type ListProductsHandler struct {
	view ProductView
}

// NewListProductsHandler creates a new list products handler
func NewListProductsHandler(view ProductView) *ListProductsHandler {
	return &ListProductsHandler{view: view}
}

// Handle returns the normalized products ordered by their sequence number.
func (h *ListProductsHandler) Handle(q ListProductsQuery) []domain.ProductState {
	states := h.view.Products()
	products := make([]domain.ProductState, 0, len(states))
	for _, p := range states {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		ni, _ := domain.ProductNumber(products[i].ID)
		nj, _ := domain.ProductNumber(products[j].ID)
		if ni != nj {
			return ni < nj
		}
		return products[i].ID < products[j].ID
	})
	return products
}
