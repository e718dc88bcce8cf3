package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"PriceScraper/internal/models"
)

// RedisStorage publishes each scraped product to a pub/sub channel so
// downstream consumers (alerting, live dashboards) see runs as they finish.
// Nothing is retained in Redis itself.
type RedisStorage struct {
	client  *redis.Client
	channel string
}

// productMessage pairs one price observation with its metadata on the wire.
type productMessage struct {
	Metadata models.ProductMetadata `json:"metadata"`
	Price    models.ProductPrice    `json:"price"`
}

// NewRedis connects using the "addr", "db" and "channel" options and verifies
// the connection with a ping.
func NewRedis(opts map[string]string) (*RedisStorage, error) {
	db, err := strconv.Atoi(option(opts, "db", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid redis db option: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: option(opts, "addr", "localhost:6379"),
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStorage{
		client:  client,
		channel: option(opts, "channel", "product-prices"),
	}, nil
}

// Save publishes one message per price observation, joined with its metadata
// by product id. Prices without a metadata record are skipped.
func (r *RedisStorage) Save(prices []models.ProductPrice, metadata []models.ProductMetadata) error {
	byID := make(map[string]models.ProductMetadata, len(metadata))
	for _, meta := range metadata {
		byID[meta.ProductID] = meta
	}

	ctx := context.Background()
	published := 0
	for _, price := range prices {
		meta, ok := byID[price.ProductID]
		if !ok {
			log.Warn().Str("product_id", price.ProductID).Msg("no metadata for price, skipping publish")
			continue
		}
		payload, err := json.Marshal(productMessage{Metadata: meta, Price: price})
		if err != nil {
			return fmt.Errorf("marshal product message: %w", err)
		}
		if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
			return fmt.Errorf("publish product message: %w", err)
		}
		published++
	}
	log.Info().Int("published", published).Str("channel", r.channel).Msg("products published")
	return nil
}

// Close shuts the client down.
func (r *RedisStorage) Close() error {
	return r.client.Close()
}
