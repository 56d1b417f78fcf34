package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests and local development. It
// mirrors the Redis implementation's semantics: every mutation fans a full
// tree snapshot out to all live subscribers.
type MemoryStore struct {
	mu       sync.Mutex
	products map[string]ProductDoc
	alerts   map[string]AlertDoc
	sales    map[string]SaleDoc
	subs     map[int]chan Tree
	nextSub  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]ProductDoc),
		alerts:   make(map[string]AlertDoc),
		sales:    make(map[string]SaleDoc),
		subs:     make(map[int]chan Tree),
	}
}

func (s *MemoryStore) snapshotLocked() Tree {
	tree := Tree{
		Products: make(map[string]ProductDoc, len(s.products)),
		Alerts:   make(map[string]AlertDoc, len(s.alerts)),
		Sales:    make(map[string]SaleDoc, len(s.sales)),
	}
	for id, doc := range s.products {
		tree.Products[id] = doc
	}
	for id, doc := range s.alerts {
		tree.Alerts[id] = doc
	}
	for id, doc := range s.sales {
		tree.Sales[id] = doc
	}
	return tree
}

func (s *MemoryStore) broadcastLocked() {
	tree := s.snapshotLocked()
	for _, ch := range s.subs {
		// Coalesce: replace an undelivered stale snapshot.
		select {
		case <-ch:
		default:
		}
		ch <- tree
	}
}

func (s *MemoryStore) Snapshot(ctx context.Context) (Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

func (s *MemoryStore) Subscribe(ctx context.Context) (<-chan Tree, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Tree, 1)
	s.subs[id] = ch
	ch <- s.snapshotLocked()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel, nil
}

func (s *MemoryStore) SetProduct(ctx context.Context, id string, doc ProductDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = doc
	s.broadcastLocked()
	return nil
}

func (s *MemoryStore) SetProductField(ctx context.Context, id, field string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.products[id]
	switch field {
	case FieldName:
		doc.Name, _ = value.(string)
	case FieldTotalWeight:
		doc.TotalWeight = toFloat(value)
	case FieldItemWeight:
		doc.ItemWeight = toFloat(value)
	case FieldHeartbeat:
		doc.Heartbeat = int64(toFloat(value))
	case FieldLowStockThreshold:
		doc.LowStockThreshold = int(toFloat(value))
	case FieldTheftThreshold:
		doc.TheftThreshold = toFloat(value)
	case FieldRefillCount:
		doc.RefillCount = int(toFloat(value))
	case FieldLastSaleTime:
		doc.LastSaleTime = int64(toFloat(value))
	}
	s.products[id] = doc
	s.broadcastLocked()
	return nil
}

func (s *MemoryStore) RemoveProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
	s.broadcastLocked()
	return nil
}

func (s *MemoryStore) PushAlert(ctx context.Context, doc AlertDoc) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.alerts[id] = doc
	s.broadcastLocked()
	return id, nil
}

func (s *MemoryStore) RemoveAlert(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.alerts, id)
	s.broadcastLocked()
	return nil
}

func (s *MemoryStore) ClearAlerts(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = make(map[string]AlertDoc)
	s.broadcastLocked()
	return nil
}

func (s *MemoryStore) PushSale(ctx context.Context, doc SaleDoc) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.sales[id] = doc
	s.broadcastLocked()
	return id, nil
}

func (s *MemoryStore) RemoveSale(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sales, id)
	s.broadcastLocked()
	return nil
}

func (s *MemoryStore) ClearSales(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = make(map[string]SaleDoc)
	s.broadcastLocked()
	return nil
}

func toFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}
