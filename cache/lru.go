package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a bounded key/value cache with per-entry expiry.
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Len() int
	Purge()
}

type entry[V any] struct {
	key     string
	value   V
	expires time.Time
}

type lru[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	items    map[string]*list.Element
	order    *list.List // front is most recent
}

// NewLRU creates an LRU cache with capacity and default TTL. ttl < 0 disables expiry.
func NewLRU[V any](capacity int, ttl time.Duration) Cache[V] {
	return newLRU[V](capacity, ttl, time.Now)
}

func newLRU[V any](capacity int, ttl time.Duration, now func() time.Time) *lru[V] {
	if capacity <= 0 {
		capacity = 512
	}
	if ttl == 0 {
		ttl = time.Minute
	}
	return &lru[V]{
		capacity: capacity,
		ttl:      ttl,
		now:      now,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

func (c *lru[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	ent := el.Value.(*entry[V])
	if !ent.expires.IsZero() && !c.now().Before(ent.expires) {
		c.remove(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return ent.value, true
}

func (c *lru[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	exp := c.expiry(ttl)
	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry[V])
		ent.value = value
		ent.expires = exp
		c.order.MoveToFront(el)
		return
	}
	if c.order.Len() >= c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value, expires: exp})
}

func (c *lru[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *lru[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}

func (c *lru[V]) expiry(ttl time.Duration) time.Time {
	if ttl == 0 {
		ttl = c.ttl
	}
	if ttl < 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

func (c *lru[V]) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[V]).key)
}
