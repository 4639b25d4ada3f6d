package cachestore

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"campusdigest/config"
)

const redisCacheKey = "campusdigest:classify_cache"

// RedisStore keeps the cache as one JSON blob in redis, for deployments
// where the process has no stable disk.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Load(ctx context.Context) (map[string]Entry, error) {
	data, err := s.rdb.Get(ctx, redisCacheKey).Bytes()
	if err == redis.Nil {
		return map[string]Entry{}, nil
	}
	if err != nil {
		// Redis down reads as empty; the build falls back to remote or
		// deterministic classification.
		return map[string]Entry{}, nil
	}
	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return map[string]Entry{}, nil
	}
	if entries == nil {
		entries = map[string]Entry{}
	}
	return entries, nil
}

func (s *RedisStore) Save(ctx context.Context, entries map[string]Entry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, redisCacheKey, data, 0).Err()
}

// Close releases the underlying redis connection.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
