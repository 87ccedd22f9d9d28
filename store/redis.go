package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/playstateprojects/autolocalize"
	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed record store. Each record is persisted in
// its all-locales shape as one JSON document under
// keyPrefix + collection + ":" + id.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379")
	KeyPrefix string // Prefix for all keys (default: "autolocalize:")
}

// NewRedisStore creates a new Redis store with the given configuration.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewRedisStoreFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreFromClient creates a RedisStore from an existing Redis client.
func NewRedisStoreFromClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "autolocalize:"
	}

	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *RedisStore) key(collection, id string) string {
	return s.keyPrefix + recordKey(collection, id)
}

// FindAllLocales loads a record's all-locales document.
func (s *RedisStore) FindAllLocales(ctx context.Context, collection, id string) (map[string]any, error) {
	data, err := s.client.Get(ctx, s.key(collection, id)).Result()
	if err == redis.Nil {
		return nil, &autolocalize.StoreError{
			Message:    "record not found",
			Collection: collection,
			ID:         id,
		}
	}
	if err != nil {
		return nil, &autolocalize.StoreError{
			Message:    "reading record",
			Cause:      err,
			Collection: collection,
			ID:         id,
		}
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, &autolocalize.StoreError{
			Message:    "decoding record",
			Cause:      err,
			Collection: collection,
			ID:         id,
		}
	}
	return doc, nil
}

// UpdateLocale merges a path-keyed patch into one locale of a record and
// persists the result. The write replaces the whole document atomically;
// per-write atomicity is all the engine relies on.
func (s *RedisStore) UpdateLocale(ctx context.Context, collection, id, locale string, patch map[string]any, opts UpdateOptions) (map[string]any, error) {
	doc, err := s.FindAllLocales(ctx, collection, id)
	if err != nil {
		return nil, err
	}

	for path, value := range patch {
		autolocalize.SetLocaleValue(doc, path, locale, value)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, &autolocalize.StoreError{
			Message:    "encoding record",
			Cause:      err,
			Collection: collection,
			ID:         id,
		}
	}

	if err := s.client.Set(ctx, s.key(collection, id), string(data), 0).Err(); err != nil {
		return nil, &autolocalize.StoreError{
			Message:    "writing record",
			Cause:      err,
			Collection: collection,
			ID:         id,
		}
	}

	return doc, nil
}

// Seed stores a record in its all-locales shape.
func (s *RedisStore) Seed(ctx context.Context, collection, id string, doc map[string]any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(collection, id), string(data), 0).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Verify RedisStore implements RecordStore
var _ RecordStore = (*RedisStore)(nil)
