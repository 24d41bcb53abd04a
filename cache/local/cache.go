package local

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("cache: key not found")

// Config holds local cache settings.
type Config struct {
	GCInterval time.Duration
}

type entry struct {
	value    string
	expireAt time.Time // zero = no expiry
}

func (e entry) expired() bool {
	return !e.expireAt.IsZero() && time.Now().After(e.expireAt)
}

// Cache is an in-process implementation of the cache surface, used when no
// Redis address is configured (single-node deployments and tests).
type Cache struct {
	mu     sync.RWMutex
	kv     map[string]entry
	zsets  map[string]map[string]float64
	stopGC chan struct{}
}

// NewCache creates a Cache and starts the background expiry sweep.
func NewCache(cfg Config) *Cache {
	interval := cfg.GCInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	c := &Cache{
		kv:     make(map[string]entry),
		zsets:  make(map[string]map[string]float64),
		stopGC: make(chan struct{}),
	}
	go c.sweep(interval)
	return c
}

// Close stops the background sweep goroutine.
func (c *Cache) Close() {
	close(c.stopGC)
}

func (c *Cache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for k, e := range c.kv {
				if e.expired() {
					delete(c.kv, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopGC:
			return
		}
	}
}

// ---- KV ----

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	e, ok := c.kv[key]
	c.mu.RUnlock()
	if !ok || e.expired() {
		return "", ErrNotFound
	}
	return e.value, nil
}

func (c *Cache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.kv[key] = e
	c.mu.Unlock()
	return nil
}

func (c *Cache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.kv, k)
		delete(c.zsets, k)
	}
	c.mu.Unlock()
	return nil
}

func (c *Cache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.RLock()
	e, ok := c.kv[key]
	c.mu.RUnlock()
	return ok && !e.expired(), nil
}

func (c *Cache) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.kv[key]; ok && !e.expired() {
		return false, nil
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expireAt = time.Now().Add(ttl)
	}
	c.kv[key] = e
	return true, nil
}

func (c *Cache) Expire(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.kv[key]
	if !ok || e.expired() {
		delete(c.kv, key)
		return ErrNotFound
	}
	e.expireAt = time.Now().Add(ttl)
	c.kv[key] = e
	return nil
}

// ---- ZSet ----

func (c *Cache) ZAdd(_ context.Context, key string, score float64, member string) error {
	c.mu.Lock()
	z, ok := c.zsets[key]
	if !ok {
		z = make(map[string]float64)
		c.zsets[key] = z
	}
	z[member] = score
	c.mu.Unlock()
	return nil
}

func (c *Cache) ZRevRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	c.mu.RLock()
	z := c.zsets[key]
	members := make([]string, 0, len(z))
	for m := range z {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		si, sj := z[members[i]], z[members[j]]
		if si != sj {
			return si > sj
		}
		return members[i] < members[j]
	})
	c.mu.RUnlock()

	if start < 0 || start >= int64(len(members)) {
		return nil, nil
	}
	if stop < 0 || stop >= int64(len(members)) {
		stop = int64(len(members)) - 1
	}
	return members[start : stop+1], nil
}

func (c *Cache) ZScore(_ context.Context, key, member string) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	z, ok := c.zsets[key]
	if !ok {
		return 0, ErrNotFound
	}
	score, ok := z[member]
	if !ok {
		return 0, ErrNotFound
	}
	return score, nil
}
