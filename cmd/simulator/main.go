package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/monitor/domain"
	"github.com/shelfwatch/shelfwatch/internal/store"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

// Feeds the store with synthetic scale readings so the dashboard can be
// exercised without physical hardware. Each tick refreshes every heartbeat;
// sales and refills happen at random.
func main() {
	products := flag.Int("products", 4, "number of simulated scales")
	interval := flag.Duration("interval", 2*time.Second, "delay between readings")
	saleChance := flag.Float64("sale-chance", 0.15, "per-tick probability of a sale on each scale")
	refillChance := flag.Float64("refill-chance", 0.03, "per-tick probability of a refill on each scale")
	flag.Parse()

	logger.Init("scale-simulator", true)
	logger.SetLevel(getEnv("LOG_LEVEL", "info"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	st, err := store.NewRedisStore(ctx, redisAddr)
	if err != nil {
		logger.Logger.Fatal().Err(err).Str("addr", redisAddr).Msg("Failed to connect to store")
	}
	defer st.Close()

	weights := seedProducts(ctx, st, *products)

	logger.Logger.Info().
		Int("products", *products).
		Dur("interval", *interval).
		Msg("Simulator started")

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Logger.Info().Msg("Simulator stopped")
			return
		case <-ticker.C:
			tick(ctx, st, weights, *saleChance, *refillChance)
		}
	}
}

// seedProducts makes sure the first n product slots exist and returns their
// current total weights.
func seedProducts(ctx context.Context, st store.Store, n int) map[string]float64 {
	tree, err := st.Snapshot(ctx)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to read store")
	}

	weights := make(map[string]float64, n)
	for i := 1; i <= n; i++ {
		id := domain.ProductID(i)
		if doc, ok := tree.Products[id]; ok {
			weights[id] = doc.TotalWeight
			continue
		}

		doc := domain.DefaultProductDoc(i)
		doc.TotalWeight = 10 * doc.ItemWeight
		doc.Heartbeat = time.Now().Unix()
		if err := st.SetProduct(ctx, id, doc); err != nil {
			logger.Logger.Fatal().Err(err).Str("product_id", id).Msg("Failed to seed product")
		}
		weights[id] = doc.TotalWeight

		logger.Logger.Info().Str("product_id", id).Msg("Seeded product")
	}
	return weights
}

func tick(ctx context.Context, st store.Store, weights map[string]float64, saleChance, refillChance float64) {
	for id, weight := range weights {
		roll := rand.Float64()
		switch {
		case roll < saleChance:
			qty := 1 + rand.Intn(3)
			weight -= float64(qty) * domain.DefaultItemWeight
			if weight < 0 {
				weight = 0
			}
			logger.Logger.Debug().Str("product_id", id).Int("quantity", qty).Msg("Simulated sale")
		case roll < saleChance+refillChance:
			qty := 5 + rand.Intn(10)
			weight += float64(qty) * domain.DefaultItemWeight
			logger.Logger.Debug().Str("product_id", id).Int("quantity", qty).Msg("Simulated refill")
		}
		weights[id] = weight

		if err := st.SetProductField(ctx, id, store.FieldTotalWeight, weight); err != nil {
			logger.Logger.Error().Err(err).Str("product_id", id).Msg("Failed to write weight")
			continue
		}
		if err := st.SetProductField(ctx, id, store.FieldHeartbeat, time.Now().Unix()); err != nil {
			logger.Logger.Error().Err(err).Str("product_id", id).Msg("Failed to write heartbeat")
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
