package detector

import (
	"time"

	"github.com/shelfwatch/shelfwatch/internal/monitor/domain"
)

// TheftWindow is how long after the last confirmed sale a decrease stops being
// explainable as normal sale activity.
const TheftWindow = 2 * time.Minute

// TheftSuspected evaluates the synchronous theft heuristic for one snapshot:
// an online product losing items long after its last confirmed sale. The check
// deliberately ignores the sale detector's pending state, so a decrease that is
// also an unconfirmed sale can still be flagged until the sale confirms.
func TheftSuspected(p domain.ProductState, now time.Time) bool {
	if !p.IsOnline || p.LastSaleTime.IsZero() {
		return false
	}
	if now.Sub(p.LastSaleTime) <= TheftWindow {
		return false
	}
	return p.ItemsLeft < p.PreviousItemsLeft
}
