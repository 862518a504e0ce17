package codestore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"
)

type memStore struct {
	sync.Mutex
	cache *bigcache.BigCache
}

func Memory(ttl time.Duration) (Store, error) {
	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 64
	cfg.MaxEntriesInWindow = 10000
	cfg.MaxEntrySize = 64
	cfg.HardMaxCacheSize = 64
	cache, err := bigcache.NewBigCache(cfg)
	if err != nil {
		return nil, err
	}
	return &memStore{
		cache: cache,
	}, nil
}

func (m *memStore) Claim(ctx context.Context, code string) (bool, error) {
	k := key(code)
	m.Lock()
	defer m.Unlock()
	_, err := m.cache.Get(k)
	if err == nil {
		return false, nil
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		return false, err
	}
	if err := m.cache.Set(k, []byte{1}); err != nil {
		return false, err
	}
	return true, nil
}

func (m *memStore) Close() error {
	return m.cache.Close()
}
