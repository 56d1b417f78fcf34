package detector

import (
	"sync"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/monitor/domain"
)

// RefillWindow is the debounce window after the last observed increase before a
// refill is committed.
const RefillWindow = 60 * time.Second

type pendingRefill struct {
	baseline   int
	delta      int
	detectedAt time.Time
	generation uint64
	timer      Timer
}

// RefillDetector runs one Idle -> Pending -> Idle machine per product id. An
// increase on an online product opens a pending refill; further increases
// accumulate the delta and reset the window; a return to the baseline discards
// it; an uninterrupted expiry commits the accumulated delta. Every timer fire
// re-validates its captured generation, so a superseded timer that already
// escaped Stop still no-ops.
type RefillDetector struct {
	mu      sync.Mutex
	sched   Scheduler
	clock   Clock
	pending map[string]*pendingRefill
	// lastGen only ever increments per product, so a superseded timer that
	// escaped Stop can never match a later episode's generation.
	lastGen map[string]uint64
	commit  func(productID string, delta int)
	closed  bool
}

// NewRefillDetector creates a detector committing confirmed refills through the
// given callback.
func NewRefillDetector(clock Clock, sched Scheduler, commit func(productID string, delta int)) *RefillDetector {
	return &RefillDetector{
		sched:   sched,
		clock:   clock,
		pending: make(map[string]*pendingRefill),
		lastGen: make(map[string]uint64),
		commit:  commit,
	}
}

// Observe feeds one normalized snapshot into the machine.
func (d *RefillDetector) Observe(p domain.ProductState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	current, previous := p.ItemsLeft, p.PreviousItemsLeft
	pend, inFlight := d.pending[p.ID]

	if inFlight {
		if current <= pend.baseline {
			// Rebound: the stock came back down to where it started, so the
			// increase never happened as far as the business is concerned.
			pend.timer.Stop()
			delete(d.pending, p.ID)
			return
		}
		if current > previous {
			pend.delta = current - pend.baseline
			d.lastGen[p.ID]++
			pend.generation = d.lastGen[p.ID]
			pend.timer.Stop()
			pend.timer = d.scheduleFire(p.ID, pend.generation)
		}
		// A partial decrease while pending neither cancels nor shrinks the
		// refill; decreases are the sale detector's concern.
		return
	}

	// Refill inference needs a trusted live sensor.
	if !p.IsOnline || current <= previous {
		return
	}

	d.lastGen[p.ID]++
	pend = &pendingRefill{
		baseline:   previous,
		delta:      current - previous,
		detectedAt: d.clock.Now(),
		generation: d.lastGen[p.ID],
	}
	pend.timer = d.scheduleFire(p.ID, pend.generation)
	d.pending[p.ID] = pend
}

func (d *RefillDetector) scheduleFire(productID string, generation uint64) Timer {
	return d.sched.AfterFunc(RefillWindow, func() {
		d.fire(productID, generation)
	})
}

func (d *RefillDetector) fire(productID string, generation uint64) {
	d.mu.Lock()
	pend, ok := d.pending[productID]
	if !ok || pend.generation != generation || d.closed {
		d.mu.Unlock()
		return
	}
	delta := pend.delta
	delete(d.pending, productID)
	d.mu.Unlock()

	d.commit(productID, delta)
}

// Pending reports whether a refill is in flight for the product.
func (d *RefillDetector) Pending(productID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[productID]
	return ok
}

// Forget drops any pending refill for a deleted product.
func (d *RefillDetector) Forget(productID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if pend, ok := d.pending[productID]; ok {
		pend.timer.Stop()
		delete(d.pending, productID)
	}
}

// Close cancels all outstanding timers; no commit fires afterwards.
func (d *RefillDetector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for id, pend := range d.pending {
		pend.timer.Stop()
		delete(d.pending, id)
	}
}
