package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Schorakbi/roboto-ai/internal/models"
)

const defaultKey = "commands:history"

// RedisStore implements Store as a capped Redis list
type RedisStore struct {
	client *redis.Client
	key    string
	size   int
	ttl    time.Duration
}

// NewRedisStore parses redisURL and verifies the connection
func NewRedisStore(redisURL string, size int, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, size, ttl), nil
}

func NewRedisStoreWithClient(client *redis.Client, size int, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		key:    defaultKey,
		size:   size,
		ttl:    ttl,
	}
}

// Record pushes the entry and trims the list in a single round trip
func (r *RedisStore) Record(ctx context.Context, entry models.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, data)
	pipe.LTrim(ctx, r.key, 0, int64(r.size-1))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record command history: %w", err)
	}

	return nil
}

func (r *RedisStore) Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 || limit > r.size {
		limit = r.size
	}

	items, err := r.client.LRange(ctx, r.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load command history: %w", err)
	}

	entries := make([]models.HistoryEntry, 0, len(items))
	for _, item := range items {
		var entry models.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("failed to parse history entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Ping verifies the Redis connection is alive
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
