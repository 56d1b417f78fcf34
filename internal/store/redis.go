package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

const (
	productIndexKey  = "inventory:products"
	productKeyPrefix = "inventory:product:"
	alertsKey        = "inventory:alerts"
	salesKey         = "inventory:sales"
	changeChannel    = "inventory:changed"
)

// RedisStore keeps the inventory tree in Redis: one hash per product plus an id
// index, and id-keyed hashes for alerts and sales. Every write publishes on a
// change channel; subscribers re-read the full tree per notification, matching
// the replace-style snapshot contract.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store backed by the given Redis address.
func NewRedisStore(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Logger.Info().Str("addr", addr).Msg("Connected to inventory store")
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client, used by tests.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) notify(ctx context.Context) {
	if err := s.client.Publish(ctx, changeChannel, "changed").Err(); err != nil {
		logger.Warn(ctx).Err(err).Msg("Failed to publish store change")
	}
}

// Snapshot reads the current full tree.
func (s *RedisStore) Snapshot(ctx context.Context) (Tree, error) {
	tree := Tree{
		Products: make(map[string]ProductDoc),
		Alerts:   make(map[string]AlertDoc),
		Sales:    make(map[string]SaleDoc),
	}

	ids, err := s.client.SMembers(ctx, productIndexKey).Result()
	if err != nil {
		return Tree{}, fmt.Errorf("failed to read product index: %w", err)
	}

	for _, id := range ids {
		fields, err := s.client.HGetAll(ctx, productKeyPrefix+id).Result()
		if err != nil {
			return Tree{}, fmt.Errorf("failed to read product %s: %w", id, err)
		}
		if len(fields) == 0 {
			continue
		}
		tree.Products[id] = productFromHash(fields)
	}

	rawAlerts, err := s.client.HGetAll(ctx, alertsKey).Result()
	if err != nil {
		return Tree{}, fmt.Errorf("failed to read alerts: %w", err)
	}
	for id, raw := range rawAlerts {
		var doc AlertDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			logger.Warn(ctx).Err(err).Str("alert_id", id).Msg("Skipping malformed alert entry")
			continue
		}
		tree.Alerts[id] = doc
	}

	rawSales, err := s.client.HGetAll(ctx, salesKey).Result()
	if err != nil {
		return Tree{}, fmt.Errorf("failed to read sales: %w", err)
	}
	for id, raw := range rawSales {
		var doc SaleDoc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			logger.Warn(ctx).Err(err).Str("sale_id", id).Msg("Skipping malformed sale entry")
			continue
		}
		tree.Sales[id] = doc
	}

	return tree, nil
}

// Subscribe delivers a full snapshot after every observed change. An initial
// snapshot is delivered immediately so the consumer never starts empty-handed.
func (s *RedisStore) Subscribe(ctx context.Context) (<-chan Tree, func(), error) {
	pubsub := s.client.Subscribe(ctx, changeChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to store changes: %w", err)
	}

	out := make(chan Tree, 1)
	done := make(chan struct{})

	deliver := func() {
		tree, err := s.Snapshot(ctx)
		if err != nil {
			logger.Error(ctx).Err(err).Msg("Failed to snapshot store after change")
			return
		}
		// Coalesce: a pending undelivered snapshot is stale, replace it.
		select {
		case <-out:
		default:
		}
		out <- tree
	}

	go func() {
		defer close(out)
		deliver()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				deliver()
			}
		}
	}()

	var once bool
	cancel := func() {
		if once {
			return
		}
		once = true
		close(done)
		_ = pubsub.Close()
	}
	return out, cancel, nil
}

func (s *RedisStore) SetProduct(ctx context.Context, id string, doc ProductDoc) error {
	key := productKeyPrefix + id
	if err := s.client.HSet(ctx, key, productToHash(doc)).Err(); err != nil {
		return fmt.Errorf("failed to write product %s: %w", id, err)
	}
	if err := s.client.SAdd(ctx, productIndexKey, id).Err(); err != nil {
		return fmt.Errorf("failed to index product %s: %w", id, err)
	}
	s.notify(ctx)
	return nil
}

func (s *RedisStore) SetProductField(ctx context.Context, id, field string, value interface{}) error {
	if err := s.client.HSet(ctx, productKeyPrefix+id, field, value).Err(); err != nil {
		return fmt.Errorf("failed to write %s for product %s: %w", field, id, err)
	}
	s.notify(ctx)
	return nil
}

func (s *RedisStore) RemoveProduct(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, productKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to remove product %s: %w", id, err)
	}
	if err := s.client.SRem(ctx, productIndexKey, id).Err(); err != nil {
		return fmt.Errorf("failed to unindex product %s: %w", id, err)
	}
	s.notify(ctx)
	return nil
}

func (s *RedisStore) PushAlert(ctx context.Context, doc AlertDoc) (string, error) {
	return s.push(ctx, alertsKey, doc)
}

func (s *RedisStore) RemoveAlert(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, alertsKey, id).Err(); err != nil {
		return fmt.Errorf("failed to remove alert %s: %w", id, err)
	}
	s.notify(ctx)
	return nil
}

func (s *RedisStore) ClearAlerts(ctx context.Context) error {
	if err := s.client.Del(ctx, alertsKey).Err(); err != nil {
		return fmt.Errorf("failed to clear alerts: %w", err)
	}
	s.notify(ctx)
	return nil
}

func (s *RedisStore) PushSale(ctx context.Context, doc SaleDoc) (string, error) {
	return s.push(ctx, salesKey, doc)
}

func (s *RedisStore) RemoveSale(ctx context.Context, id string) error {
	if err := s.client.HDel(ctx, salesKey, id).Err(); err != nil {
		return fmt.Errorf("failed to remove sale %s: %w", id, err)
	}
	s.notify(ctx)
	return nil
}

func (s *RedisStore) ClearSales(ctx context.Context) error {
	if err := s.client.Del(ctx, salesKey).Err(); err != nil {
		return fmt.Errorf("failed to clear sales: %w", err)
	}
	s.notify(ctx)
	return nil
}

func (s *RedisStore) push(ctx context.Context, key string, doc interface{}) (string, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal entry: %w", err)
	}
	if err := s.client.HSet(ctx, key, id, raw).Err(); err != nil {
		return "", fmt.Errorf("failed to push entry: %w", err)
	}
	s.notify(ctx)
	return id, nil
}

func productToHash(doc ProductDoc) map[string]interface{} {
	fields := map[string]interface{}{
		"name":              doc.Name,
		"total_weight":      doc.TotalWeight,
		"item_weight":       doc.ItemWeight,
		"lastUpdated":       doc.LastUpdated,
		"lastSaleTime":      doc.LastSaleTime,
		"lowStockThreshold": doc.LowStockThreshold,
		"theftThreshold":    doc.TheftThreshold,
		"refillCount":       doc.RefillCount,
		"heartbeat":         doc.Heartbeat,
	}
	if doc.ItemsLeft != nil {
		fields["items_left"] = *doc.ItemsLeft
	}
	return fields
}

func productFromHash(fields map[string]string) ProductDoc {
	doc := ProductDoc{
		Name:              fields["name"],
		TotalWeight:       parseFloat(fields["total_weight"]),
		ItemWeight:        parseFloat(fields["item_weight"]),
		LastUpdated:       parseInt(fields["lastUpdated"]),
		LastSaleTime:      parseInt(fields["lastSaleTime"]),
		LowStockThreshold: int(parseInt(fields["lowStockThreshold"])),
		TheftThreshold:    parseFloat(fields["theftThreshold"]),
		RefillCount:       int(parseInt(fields["refillCount"])),
		Heartbeat:         parseInt(fields["heartbeat"]),
	}
	if raw, ok := fields["items_left"]; ok {
		n := int(parseInt(raw))
		doc.ItemsLeft = &n
	}
	return doc
}

func parseFloat(raw string) float64 {
	v, _ := strconv.ParseFloat(raw, 64)
	return v
}

func parseInt(raw string) int64 {
	v, _ := strconv.ParseInt(raw, 10, 64)
	return v
}
