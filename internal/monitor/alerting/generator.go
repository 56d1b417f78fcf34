package alerting

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/monitor/detector"
	"github.com/shelfwatch/shelfwatch/internal/monitor/domain"
	"github.com/shelfwatch/shelfwatch/internal/monitor/notify"
	"github.com/shelfwatch/shelfwatch/internal/store"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

const (
	// DedupWindow suppresses an identical (product, message) alert after its
	// first emission.
	DedupWindow = 5 * time.Minute

	// NotifyCooldown throttles the outbound notification side-channel per
	// (product, alert class) pair.
	NotifyCooldown = 2 * time.Hour

	OutOfStockMessage = "Out of Stock - Refill Required!"
)

// LowStockMessage interpolates the exact remaining count.
func LowStockMessage(itemsLeft int) string {
	return fmt.Sprintf("Low Stock Warning - %d items left", itemsLeft)
}

// AlertSink is the slice of the store the generator writes through.
type AlertSink interface {
	PushAlert(ctx context.Context, doc store.AlertDoc) (string, error)
}

// Generator evaluates stock policy per normalized snapshot and emits
// deduplicated alerts, optionally notifying an external channel with its own
// cooldown. Notification failures never block alert persistence.
type Generator struct {
	mu           sync.Mutex
	clock        detector.Clock
	sched        detector.Scheduler
	sink         AlertSink
	channel      notify.Channel
	processed    map[string]detector.Timer
	lastNotified map[string]time.Time
	closed       bool
}

// NewGenerator creates an alert generator. channel may be nil when no outbound
// notification endpoint is configured.
func NewGenerator(clock detector.Clock, sched detector.Scheduler, sink AlertSink, channel notify.Channel) *Generator {
	return &Generator{
		clock:        clock,
		sched:        sched,
		sink:         sink,
		channel:      channel,
		processed:    make(map[string]detector.Timer),
		lastNotified: make(map[string]time.Time),
	}
}

// Evaluate applies the low/out-of-stock policy to one product and returns the
// alert message when a new alert was persisted, or "" when nothing fired.
// Offline products are skipped: a distrusted sensor must not drive stock alerts.
func (g *Generator) Evaluate(ctx context.Context, p domain.ProductState) (string, error) {
	if !p.IsOnline {
		return "", nil
	}
	switch {
	case p.OutOfStock():
		return g.Raise(ctx, p, OutOfStockMessage)
	case p.LowStock():
		return g.Raise(ctx, p, LowStockMessage(p.ItemsLeft))
	}
	return "", nil
}

// Raise persists one alert for the product unless an identical one fired within
// the dedup window, then best-effort notifies the external channel. The
// returned message is "" when the alert was suppressed.
func (g *Generator) Raise(ctx context.Context, p domain.ProductState, message string) (string, error) {
	key := p.Name + "|" + message

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return "", nil
	}
	if _, seen := g.processed[key]; seen {
		g.mu.Unlock()
		return "", nil
	}
	g.processed[key] = g.sched.AfterFunc(DedupWindow, func() {
		g.mu.Lock()
		delete(g.processed, key)
		g.mu.Unlock()
	})
	g.mu.Unlock()

	now := g.clock.Now()
	if _, err := g.sink.PushAlert(ctx, store.AlertDoc{
		ProductName: p.Name,
		Message:     message,
		Timestamp:   now.UnixMilli(),
		Read:        false,
	}); err != nil {
		// A failed write must not consume the dedup window; the condition
		// re-fires on the next qualifying snapshot.
		g.mu.Lock()
		if timer, ok := g.processed[key]; ok {
			timer.Stop()
			delete(g.processed, key)
		}
		g.mu.Unlock()
		return "", fmt.Errorf("failed to persist alert: %w", err)
	}

	g.notify(ctx, p.Name, message, formatSubject(p.Name, message), formatBody(p, message, now))
	return message, nil
}

// NotifyTheft pushes a theft notification through the side-channel without
// persisting anything; theft notices are transient by contract.
func (g *Generator) NotifyTheft(ctx context.Context, p domain.ProductState) {
	now := g.clock.Now()
	message := domain.TheftMessage
	g.notify(ctx, p.Name, message, formatSubject(p.Name, message), formatBody(p, message, now))
}

// notify applies the per-(product, alert class) cooldown and swallows failures.
func (g *Generator) notify(ctx context.Context, productName, message, subject, body string) {
	if g.channel == nil {
		return
	}

	// Similar alerts share one cooldown bucket keyed by the message's first word.
	cooldownKey := productName + "|" + firstWord(message)
	now := g.clock.Now()

	g.mu.Lock()
	if last, ok := g.lastNotified[cooldownKey]; ok && now.Sub(last) <= NotifyCooldown {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	if err := g.channel.Send(ctx, subject, body); err != nil {
		logger.Warn(ctx).
			Err(err).
			Str("product", productName).
			Str("subject", subject).
			Msg("Failed to send alert notification")
		return
	}

	g.mu.Lock()
	g.lastNotified[cooldownKey] = now
	g.mu.Unlock()
}

// Reset clears the in-memory dedup guard, used when the operator clears all
// alerts so still-true conditions re-fire on the next qualifying snapshot.
func (g *Generator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, timer := range g.processed {
		timer.Stop()
		delete(g.processed, key)
	}
}

// Close cancels all dedup timers.
func (g *Generator) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	for key, timer := range g.processed {
		timer.Stop()
		delete(g.processed, key)
	}
}

func firstWord(message string) string {
	if idx := strings.IndexByte(message, ' '); idx > 0 {
		return message[:idx]
	}
	return message
}

func formatSubject(productName, message string) string {
	switch {
	case strings.Contains(message, "Out of Stock"):
		return fmt.Sprintf("OUT OF STOCK ALERT - %s", productName)
	case strings.Contains(message, "Low Stock"):
		return fmt.Sprintf("LOW STOCK WARNING - %s", productName)
	case strings.Contains(message, "THEFT"):
		return fmt.Sprintf("THEFT ALERT - %s", productName)
	}
	return fmt.Sprintf("INVENTORY ALERT - %s", productName)
}

func formatBody(p domain.ProductState, message string, now time.Time) string {
	when := now.Format("2006-01-02 15:04:05")
	switch {
	case strings.Contains(message, "Out of Stock"):
		return fmt.Sprintf(
			"<h2>OUT OF STOCK ALERT</h2>"+
				"<p><strong>Product:</strong> %s</p>"+
				"<p><strong>Status:</strong> Out of Stock (0 items remaining)</p>"+
				"<p><strong>Time:</strong> %s</p>"+
				"<p><strong>Action Required:</strong> Immediate restocking needed!</p>",
			p.Name, when)
	case strings.Contains(message, "Low Stock"):
		return fmt.Sprintf(
			"<h2>LOW STOCK WARNING</h2>"+
				"<p><strong>Product:</strong> %s</p>"+
				"<p><strong>Items Left:</strong> %d</p>"+
				"<p><strong>Threshold:</strong> %d</p>"+
				"<p><strong>Time:</strong> %s</p>"+
				"<p><strong>Action Required:</strong> Consider restocking soon!</p>",
			p.Name, p.ItemsLeft, p.LowStockThreshold, when)
	case strings.Contains(message, "THEFT"):
		return fmt.Sprintf(
			"<h2>THEFT DETECTION ALERT</h2>"+
				"<p><strong>Product:</strong> %s</p>"+
				"<p><strong>Alert:</strong> %s</p>"+
				"<p><strong>Time:</strong> %s</p>"+
				"<p><strong>Action Required:</strong> Immediate investigation needed!</p>",
			p.Name, message, when)
	}
	return fmt.Sprintf("<p>%s: %s at %s</p>", p.Name, message, when)
}
