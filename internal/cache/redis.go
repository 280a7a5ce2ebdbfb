package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"doclib/internal/config"
	"doclib/internal/model"
)

// ListKey is the Redis key holding the serialized document list.
const ListKey = "doclib:documents"

var tracer = otel.Tracer("doclib/cache")

// ListCache caches the full document list.
type ListCache interface {
	// GetList returns the cached list and whether it was present.
	GetList(ctx context.Context) ([]model.Document, bool, error)
	SetList(ctx context.Context, docs []model.Document) error
	Invalidate(ctx context.Context) error
}

// RedisListCache implements ListCache on Redis.
type RedisListCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(cfg config.RedisConfig) (*RedisListCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	ttl := time.Duration(cfg.TTLSec) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisListCache{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *RedisListCache) Close() error {
	return c.client.Close()
}

func (c *RedisListCache) GetList(ctx context.Context) ([]model.Document, bool, error) {
	ctx, span := tracer.Start(ctx, "redis.get_document_list")
	defer span.End()

	data, err := c.client.Get(ctx, ListKey).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.String("cache_status", "miss"))
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("failed to get from cache: %w", err)
	}

	var docs []model.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		span.RecordError(err)
		return nil, false, fmt.Errorf("failed to unmarshal cached list: %w", err)
	}
	span.SetAttributes(
		attribute.String("cache_status", "hit"),
		attribute.Int("document_count", len(docs)),
	)
	return docs, true, nil
}

func (c *RedisListCache) SetList(ctx context.Context, docs []model.Document) error {
	ctx, span := tracer.Start(ctx, "redis.set_document_list",
		trace.WithAttributes(attribute.Int("document_count", len(docs))),
	)
	defer span.End()

	data, err := json.Marshal(docs)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to marshal list: %w", err)
	}
	if err := c.client.Set(ctx, ListKey, data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (c *RedisListCache) Invalidate(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "redis.invalidate_document_list")
	defer span.End()

	if err := c.client.Del(ctx, ListKey).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}
