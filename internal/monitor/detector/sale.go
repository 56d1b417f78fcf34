package detector

import (
	"sync"
	"time"
)

// SaleWindow is how long a detected decrease must stay unsuperseded before it
// is confirmed as a sale.
const SaleWindow = 2 * time.Minute

type pendingSale struct {
	baseline     int
	reduced      int
	itemsReduced int
	itemWeight   float64
	detectedAt   time.Time
	generation   uint64
	timer        Timer
}

// SaleDetector watches per-product item counts for decreases. It is keyed by
// product name and keeps its own last-observed count per product, updated on
// every call, so each snapshot is compared against the immediately preceding
// one rather than the pending baseline. Each new decrease replaces the pending
// episode and restarts the window, so the episode that commits is the latest
// one. A rebound to the episode baseline before expiry discards it: the items
// were put back, not sold.
type SaleDetector struct {
	mu           sync.Mutex
	sched        Scheduler
	clock        Clock
	lastObserved map[string]int
	pending      map[string]*pendingSale
	// lastGen only ever increments per product, so a superseded timer that
	// escaped Stop can never match a later episode's generation.
	lastGen map[string]uint64
	commit  func(productName string, quantity int, itemWeight float64)
	closed  bool
}

// NewSaleDetector creates a detector committing confirmed sales through the
// given callback.
func NewSaleDetector(clock Clock, sched Scheduler, commit func(productName string, quantity int, itemWeight float64)) *SaleDetector {
	return &SaleDetector{
		sched:        sched,
		clock:        clock,
		lastObserved: make(map[string]int),
		pending:      make(map[string]*pendingSale),
		lastGen:      make(map[string]uint64),
		commit:       commit,
	}
}

// Observe feeds the current item count for an online product.
func (d *SaleDetector) Observe(productName string, currentItems int, itemWeight float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	last, tracked := d.lastObserved[productName]
	// The last observed count advances on every call, sale or not.
	d.lastObserved[productName] = currentItems

	if !tracked {
		return
	}

	if last > currentItems {
		if pend, ok := d.pending[productName]; ok {
			pend.timer.Stop()
		}
		d.lastGen[productName]++
		pend := &pendingSale{
			baseline:     last,
			reduced:      currentItems,
			itemsReduced: last - currentItems,
			itemWeight:   itemWeight,
			detectedAt:   d.clock.Now(),
			generation:   d.lastGen[productName],
		}
		pend.timer = d.sched.AfterFunc(SaleWindow, func() {
			d.fire(productName, pend.generation)
		})
		d.pending[productName] = pend
		return
	}

	if pend, ok := d.pending[productName]; ok && currentItems >= pend.baseline {
		// Put-back: the count recovered to (or past) the pre-decrease level.
		pend.timer.Stop()
		delete(d.pending, productName)
	}
}

func (d *SaleDetector) fire(productName string, generation uint64) {
	d.mu.Lock()
	pend, ok := d.pending[productName]
	if !ok || pend.generation != generation || d.closed {
		d.mu.Unlock()
		return
	}
	quantity, itemWeight := pend.itemsReduced, pend.itemWeight
	delete(d.pending, productName)
	d.mu.Unlock()

	d.commit(productName, quantity, itemWeight)
}

// Pending reports whether a sale episode is in flight for the product.
func (d *SaleDetector) Pending(productName string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[productName]
	return ok
}

// Forget drops tracking state and any pending episode for a deleted product.
func (d *SaleDetector) Forget(productName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pend, ok := d.pending[productName]; ok {
		pend.timer.Stop()
		delete(d.pending, productName)
	}
	delete(d.lastObserved, productName)
}

// Close cancels all outstanding timers; no commit fires afterwards.
func (d *SaleDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for name, pend := range d.pending {
		pend.timer.Stop()
		delete(d.pending, name)
	}
}
