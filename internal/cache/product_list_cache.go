package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

const (
	productListPrefix     = "catalog:products:v"
	productListVersionKey = "catalog:products:version"
	defaultProductListTTL = 5 * time.Minute
)

// ListKey identifies one cached page of the product listing.
type ListKey struct {
	Search string
	Page   int
	Limit  int
}

func (k ListKey) hash() string {
	raw := fmt.Sprintf("%s|%d|%d", strings.ToLower(strings.TrimSpace(k.Search)), k.Page, k.Limit)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func listCacheKey(version int64, key ListKey) string {
	return fmt.Sprintf("%s%d:%s", productListPrefix, version, key.hash())
}

// ProductListCache stores serialized list responses. Every write to the
// products table must call Invalidate, which retires all cached pages at once.
//
// Get reports the version it looked under, and Set stores under that version.
// A page computed before an Invalidate is then written to a retired version
// and never served. A zero version means the cache is unavailable.
type ProductListCache interface {
	Get(ctx context.Context, key ListKey) (payload []byte, version int64, ok bool)
	Set(ctx context.Context, version int64, key ListKey, payload []byte)
	Invalidate(ctx context.Context) error
	Backend() string
}

type memoryProductListCache struct {
	version atomic.Int64
	entries Cache[string, []byte]
	ttl     time.Duration
}

// NewMemoryProductListCache keeps pages in process memory.
func NewMemoryProductListCache(ttl time.Duration) ProductListCache {
	if ttl <= 0 {
		ttl = defaultProductListTTL
	}
	c := &memoryProductListCache{
		entries: NewTTLCache[string, []byte](),
		ttl:     ttl,
	}
	c.version.Store(1)
	return c
}

func (c *memoryProductListCache) Get(_ context.Context, key ListKey) ([]byte, int64, bool) {
	version := c.version.Load()
	payload, ok := c.entries.Get(listCacheKey(version, key))
	return payload, version, ok
}

func (c *memoryProductListCache) Set(_ context.Context, version int64, key ListKey, payload []byte) {
	if version <= 0 || version != c.version.Load() {
		return
	}
	c.entries.Set(listCacheKey(version, key), payload, c.ttl)
}

func (c *memoryProductListCache) Invalidate(_ context.Context) error {
	c.version.Add(1)
	c.entries.Purge()
	return nil
}

func (c *memoryProductListCache) Backend() string { return "memory" }
