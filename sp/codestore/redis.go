package codestore

import (
	"context"
	"time"

	"github.com/go-redis/redis/v7"
)

type redisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Redis shares the ledger between replicas. The client is closed with the store.
func Redis(client *redis.Client, prefix string, ttl time.Duration) Store {
	return &redisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *redisStore) Claim(ctx context.Context, code string) (bool, error) {
	return r.client.WithContext(ctx).SetNX(r.prefix+key(code), 1, r.ttl).Result()
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
