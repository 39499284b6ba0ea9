// Package cache is a small TTL cache for values that are expensive to
// recompute on every request.
package cache

import (
	"sync"
	"time"
)

type Cache struct {
	sync.RWMutex
	items map[string]Item
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type Item struct {
	Value      interface{}
	Expiration int64
}

// NewCache starts a cache that sweeps expired items every interval.
func NewCache(interval time.Duration) *Cache {
	cache := &Cache{
		items: make(map[string]Item),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if interval > 0 {
		go cache.startCleanup(interval)
	}
	return cache
}

func (c *Cache) Set(key string, value interface{}, duration time.Duration) {
	c.Lock()
	defer c.Unlock()

	var expiration int64
	if duration > 0 {
		expiration = c.now().Add(duration).UnixNano()
	}
	c.items[key] = Item{
		Value:      value,
		Expiration: expiration,
	}
}

func (c *Cache) Get(key string) (interface{}, bool) {
	c.RLock()
	defer c.RUnlock()

	item, exists := c.items[key]
	if !exists {
		return nil, false
	}
	if item.Expiration > 0 && c.now().UnixNano() > item.Expiration {
		return nil, false
	}
	return item.Value, true
}

// GetOrLoad returns the cached value or stores what load produces. Load
// errors are not cached.
func (c *Cache) GetOrLoad(key string, ttl time.Duration, load func() (interface{}, error)) (interface{}, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		return nil, err
	}
	c.Set(key, v, ttl)
	return v, nil
}

func (c *Cache) Delete(key string) {
	c.Lock()
	defer c.Unlock()
	delete(c.items, key)
}

// Len counts stored items, expired ones included until the next sweep.
func (c *Cache) Len() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.items)
}

// Close stops the sweeper.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) cleanup() {
	c.Lock()
	defer c.Unlock()

	now := c.now().UnixNano()
	for key, item := range c.items {
		if item.Expiration > 0 && now > item.Expiration {
			delete(c.items, key)
		}
	}
}
