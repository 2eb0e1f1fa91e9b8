package retriever

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/logger"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/metrics"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/vectordb"
)

// IndexCache keeps attached indices for the process lifetime. Each jurisdiction is
// loaded at most once; concurrent first requests share a single load. Failed loads
// are not cached.
type IndexCache struct {
	opener      vectordb.Opener
	loadTimeout time.Duration

	mu     sync.RWMutex
	stores map[string]vectordb.VectorStoreProvider
	closed bool
	group  singleflight.Group
}

// ErrCacheClosed is returned by Get after Close.
var ErrCacheClosed = errors.New("index cache closed")

func NewIndexCache(opener vectordb.Opener, loadTimeout time.Duration) *IndexCache {
	return &IndexCache{
		opener:      opener,
		loadTimeout: loadTimeout,
		stores:      make(map[string]vectordb.VectorStoreProvider),
	}
}

// Get returns the index for jurisdiction, attaching it from location on first use.
// The load is detached from ctx cancellation so one caller giving up does not fail the others.
func (c *IndexCache) Get(ctx context.Context, jurisdiction, location string) (vectordb.VectorStoreProvider, error) {
	c.mu.RLock()
	s, ok := c.stores[jurisdiction]
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, ErrCacheClosed
	}
	if ok {
		return s, nil
	}

	ch := c.group.DoChan(jurisdiction, func() (interface{}, error) {
		c.mu.RLock()
		s, ok := c.stores[jurisdiction]
		c.mu.RUnlock()
		if ok {
			return s, nil
		}

		loadCtx := context.WithoutCancel(ctx)
		if c.loadTimeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, c.loadTimeout)
			defer cancel()
		}
		start := time.Now()
		store, err := c.opener.Open(loadCtx, location)
		metrics.IncIndexLoad(jurisdiction, err)
		if err != nil {
			logger.Errorf("retriever: load index %s for %s failed: %v", location, jurisdiction, err)
			return nil, err
		}
		logger.Infof("retriever: attached %s index %s for %s in %v", c.opener.GetProviderType(), location, jurisdiction, time.Since(start))

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			// Close ran while this load was in flight.
			if err := store.Close(); err != nil {
				logger.Warnf("retriever: release late index %s for %s: %v", location, jurisdiction, err)
			}
			return nil, ErrCacheClosed
		}
		c.stores[jurisdiction] = store
		c.mu.Unlock()
		return store, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(vectordb.VectorStoreProvider), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Loaded lists the jurisdictions with an attached index.
func (c *IndexCache) Loaded() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.stores))
	for j := range c.stores {
		out = append(out, j)
	}
	return out
}

// Close releases every attached index and the opener. Loads still in flight release
// their index when they finish.
func (c *IndexCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	var first error
	for j, s := range c.stores {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
		delete(c.stores, j)
	}
	if err := c.opener.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
