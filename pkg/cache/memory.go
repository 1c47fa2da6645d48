package cache

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	data     []byte
	expireAt time.Time
}

func (m memoryItem) expired(now time.Time) bool {
	return !m.expireAt.IsZero() && now.After(m.expireAt)
}

// MemoryCache is an in-process Service with per-key TTL and a size cap.
// When full, the entry closest to expiry is evicted.
type MemoryCache struct {
	mu      sync.Mutex
	data    map[string]memoryItem
	maxSize int
	now     func() time.Time
}

type MemoryOption func(*MemoryCache)

func WithMemoryMaxSize(n int) MemoryOption {
	return func(m *MemoryCache) {
		if n > 0 {
			m.maxSize = n
		}
	}
}

// WithMemoryClock overrides the clock; tests use it to expire entries.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *MemoryCache) { m.now = now }
}

func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	m := &MemoryCache{data: make(map[string]memoryItem), maxSize: 1000, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryCache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(key, data, expiration)
	return nil
}

func (m *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	item, ok := m.data[key]
	if ok && item.expired(m.now()) {
		delete(m.data, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return ErrCacheMiss
	}
	return decode(item.data, dest)
}

func (m *MemoryCache) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MemoryCache) Exists(_ context.Context, keys ...string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for _, k := range keys {
		if item, ok := m.data[k]; ok && !item.expired(now) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryCache) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item, ok := m.data[key]; ok && !item.expired(m.now()) {
		return false, nil
	}
	m.putLocked(key, []byte("locked"), ttl)
	return true, nil
}

func (m *MemoryCache) Unlock(ctx context.Context, key string) error {
	return m.Delete(ctx, key)
}

func (m *MemoryCache) Close() error { return nil }

func (m *MemoryCache) putLocked(key string, data []byte, ttl time.Duration) {
	if _, exists := m.data[key]; !exists && len(m.data) >= m.maxSize {
		m.evictLocked()
	}
	item := memoryItem{data: data}
	if ttl > 0 {
		item.expireAt = m.now().Add(ttl)
	}
	m.data[key] = item
}

func (m *MemoryCache) evictLocked() {
	now := m.now()
	var victim string
	var soonest time.Time
	for k, item := range m.data {
		if item.expired(now) {
			delete(m.data, k)
			return
		}
		if victim == "" || (!item.expireAt.IsZero() && (soonest.IsZero() || item.expireAt.Before(soonest))) {
			victim, soonest = k, item.expireAt
		}
	}
	if victim != "" {
		delete(m.data, victim)
	}
}

var _ Service = (*MemoryCache)(nil)
