package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shelfwatch/shelfwatch/internal/monitor/alerting"
	"github.com/shelfwatch/shelfwatch/internal/monitor/detector"
	"github.com/shelfwatch/shelfwatch/internal/monitor/domain"
	"github.com/shelfwatch/shelfwatch/internal/store"
	"github.com/shelfwatch/shelfwatch/kafka"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

var (
	snapshotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_snapshots_total",
		Help: "Total number of store snapshots folded through the inference pipeline",
	})
	salesConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_sales_confirmed_total",
		Help: "Total number of debounce-confirmed sales",
	})
	refillsConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_refills_confirmed_total",
		Help: "Total number of debounce-confirmed refills",
	})
	theftNoticesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monitor_theft_notices_total",
		Help: "Total number of transient theft notices raised",
	})
	productsOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_products_online",
		Help: "Number of products currently reporting a fresh heartbeat",
	})
)

// EventBus publishes confirmed inventory events to downstream consumers.
type EventBus interface {
	Publish(ctx context.Context, event kafka.InventoryEvent) error
}

// Engine folds every incoming tree snapshot through the inference pipeline in
// fixed order: normalize, refill, sale, theft, alerts. Theft depends on the
// sale detector's committed history (lastSaleTime) and alerts depend on the
// normalizer's online/threshold computation, so the order is load-bearing.
//
// All detector and view state is guarded by one mutex; snapshot folds and
// debounce-timer fires serialize on it, so per-product logic never interleaves.
type Engine struct {
	st    store.Store
	gen   *alerting.Generator
	bus   EventBus
	clock detector.Clock
	sched detector.Scheduler

	refill *detector.RefillDetector
	sale   *detector.SaleDetector

	mu sync.Mutex
	// states is the normalized view keyed by product id; names maps product
	// name to the owning id (lowest id wins on a duplicate name) so sale
	// commits resolve unambiguously.
	states     map[string]domain.ProductState
	names      map[string]string
	theft      *domain.TheftNotice
	theftGen   uint64
	theftTimer detector.Timer
	closed     bool
}

// NewEngine wires the detectors around the given store. bus may be nil when no
// event broker is configured.
func NewEngine(st store.Store, gen *alerting.Generator, bus EventBus, clock detector.Clock, sched detector.Scheduler) *Engine {
	e := &Engine{
		st:     st,
		gen:    gen,
		bus:    bus,
		clock:  clock,
		sched:  sched,
		states: make(map[string]domain.ProductState),
		names:  make(map[string]string),
	}
	e.refill = detector.NewRefillDetector(clock, sched, e.commitRefill)
	e.sale = detector.NewSaleDetector(clock, sched, e.commitSale)
	return e
}

// Run subscribes to the store and folds snapshots until the context ends.
func (e *Engine) Run(ctx context.Context) error {
	snapshots, cancel, err := e.st.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	logger.Info(ctx).Msg("Inference engine subscribed to inventory store")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case tree, ok := <-snapshots:
			if !ok {
				return nil
			}
			e.Apply(ctx, tree)
		}
	}
}

// Apply folds one full tree snapshot through the pipeline.
func (e *Engine) Apply(ctx context.Context, tree store.Tree) {
	now := e.clock.Now()
	snapshotsTotal.Inc()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	normalized := domain.NormalizeTree(tree.Products, e.states, now)

	// Products removed by an external writer lose their detector state.
	for id, prev := range e.states {
		if _, ok := normalized[id]; !ok {
			e.refill.Forget(id)
			e.sale.Forget(prev.Name)
		}
	}
	e.states = normalized

	ids := make([]string, 0, len(normalized))
	online := 0
	for id, p := range normalized {
		ids = append(ids, id)
		if p.IsOnline {
			online++
		}
	}
	sort.Strings(ids)
	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if _, claimed := names[normalized[id].Name]; !claimed {
			names[normalized[id].Name] = id
		}
	}
	e.names = names
	productsOnline.Set(float64(online))
	e.mu.Unlock()

	for _, id := range ids {
		p := normalized[id]

		e.refill.Observe(p)

		if p.IsOnline {
			e.sale.Observe(p.Name, p.ItemsLeft, p.ItemUnitWeight)
		}

		if detector.TheftSuspected(p, now) {
			e.raiseTheft(ctx, p, now)
		}

		message, err := e.gen.Evaluate(ctx, p)
		if err != nil {
			logger.Error(ctx).Err(err).Str("product", p.Name).Msg("Failed to raise stock alert")
		}
		if message != "" {
			e.publish(ctx, kafka.InventoryEvent{
				EventType:   kafka.EventTypeStockAlert,
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    p.ItemsLeft,
				Message:     message,
			})
		}
	}
}

func (e *Engine) commitRefill(productID string, delta int) {
	ctx := context.Background()

	e.mu.Lock()
	state, ok := e.states[productID]
	e.mu.Unlock()
	if !ok {
		// Product deleted while the refill was pending.
		return
	}

	newCount := state.RefillCount + delta
	if err := e.st.SetProductField(ctx, productID, store.FieldRefillCount, newCount); err != nil {
		logger.Error(ctx).Err(err).Str("product_id", productID).Msg("Failed to commit refill count")
		return
	}
	refillsConfirmedTotal.Inc()

	logger.Info(ctx).
		Str("product_id", productID).
		Str("product", state.Name).
		Int("items_added", delta).
		Int("refill_count", newCount).
		Msg("Refill confirmed")

	e.publish(ctx, kafka.InventoryEvent{
		EventType:   kafka.EventTypeRefillConfirmed,
		ProductID:   productID,
		ProductName: state.Name,
		Quantity:    delta,
	})
}

func (e *Engine) commitSale(productName string, quantity int, itemWeight float64) {
	ctx := context.Background()
	now := e.clock.Now()

	e.mu.Lock()
	productID, ok := e.names[productName]
	e.mu.Unlock()
	if !ok {
		// Product deleted or renamed while the sale was pending.
		return
	}

	if _, err := e.st.PushSale(ctx, domain.SaleDocAt(productName, quantity, itemWeight, now)); err != nil {
		logger.Error(ctx).Err(err).Str("product", productName).Msg("Failed to log sale")
		return
	}
	if err := e.st.SetProductField(ctx, productID, store.FieldLastSaleTime, now.Unix()); err != nil {
		logger.Warn(ctx).Err(err).Str("product", productName).Msg("Failed to update last sale time")
	}
	salesConfirmedTotal.Inc()

	logger.Info(ctx).
		Str("product", productName).
		Int("quantity", quantity).
		Float64("item_weight", itemWeight).
		Msg("Sale confirmed")

	e.publish(ctx, kafka.InventoryEvent{
		EventType:   kafka.EventTypeSaleConfirmed,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		ItemWeight:  itemWeight,
	})
}

func (e *Engine) raiseTheft(ctx context.Context, p domain.ProductState, now time.Time) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.theftGen++
	generation := e.theftGen
	e.theft = &domain.TheftNotice{
		ProductName: p.Name,
		Message:     domain.TheftMessage,
		RaisedAt:    now,
	}
	if e.theftTimer != nil {
		e.theftTimer.Stop()
	}
	e.theftTimer = e.sched.AfterFunc(domain.TheftNoticeTTL, func() {
		e.mu.Lock()
		if e.theftGen == generation {
			e.theft = nil
		}
		e.mu.Unlock()
	})
	e.mu.Unlock()

	theftNoticesTotal.Inc()
	logger.Warn(ctx).
		Str("product", p.Name).
		Int("items_left", p.ItemsLeft).
		Int("previous_items_left", p.PreviousItemsLeft).
		Msg("Theft suspected")

	e.publish(ctx, kafka.InventoryEvent{
		EventType:   kafka.EventTypeTheftDetected,
		ProductID:   p.ID,
		ProductName: p.Name,
		Message:     domain.TheftMessage,
	})
	e.gen.NotifyTheft(ctx, p)
}

func (e *Engine) publish(ctx context.Context, event kafka.InventoryEvent) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(ctx, event); err != nil {
		logger.Warn(ctx).Err(err).Str("event_type", event.EventType).Msg("Failed to publish inventory event")
	}
}

// Products returns the latest normalized view, keyed by product id.
func (e *Engine) Products() map[string]domain.ProductState {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]domain.ProductState, len(e.states))
	for id, p := range e.states {
		out[id] = p
	}
	return out
}

// TheftNotice returns the live transient security notice, or nil.
func (e *Engine) TheftNotice() *domain.TheftNotice {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.theft == nil {
		return nil
	}
	notice := *e.theft
	return &notice
}

// ForgetProduct cancels all pending detector state for a deleted product so no
// timer commits against a record that no longer exists.
func (e *Engine) ForgetProduct(productID, productName string) {
	e.refill.Forget(productID)
	e.sale.Forget(productName)
	e.mu.Lock()
	delete(e.states, productID)
	if e.names[productName] == productID {
		delete(e.names, productName)
	}
	e.mu.Unlock()
}

// ResetAlertGuard clears the alert dedup window, used after a bulk alert clear.
func (e *Engine) ResetAlertGuard() {
	e.gen.Reset()
}

// Close cancels every outstanding debounce timer. No commit or alert fires
// after Close returns.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	if e.theftTimer != nil {
		e.theftTimer.Stop()
		e.theftTimer = nil
	}
	e.theft = nil
	e.mu.Unlock()

	e.refill.Close()
	e.sale.Close()
	e.gen.Close()
}
