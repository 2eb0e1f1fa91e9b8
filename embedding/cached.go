package embedding

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/cache"
)

// Cached memoizes query vectors. Returned slices are copies.
type Cached struct {
	inner Provider
	cache cache.Cache[[]float32]
}

func NewCached(inner Provider, c cache.Cache[[]float32]) *Cached {
	return &Cached{inner: inner, cache: c}
}

func (c *Cached) GetModel() string { return c.inner.GetModel() }

func (c *Cached) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(c.inner.GetModel(), text)
	if v, ok := c.cache.Get(key); ok {
		return append([]float32(nil), v...), nil
	}
	v, err := c.inner.GetEmbedding(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, append([]float32(nil), v...), 0)
	return v, nil
}

// Close drops every cached vector and closes the wrapped provider when it holds a connection.
func (c *Cached) Close() error {
	c.cache.Purge()
	if cl, ok := c.inner.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

func cacheKey(model, text string) string {
	h := sha1.Sum([]byte(model + "\x00" + text))
	return hex.EncodeToString(h[:])
}
