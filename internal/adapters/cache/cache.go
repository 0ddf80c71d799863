// Package cache keeps compiled artifacts in memory keyed by a digest of
// their source. Compilation is deterministic, so an identical source always
// yields the same bytes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/geku/kutu/pkg/metrics"
	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"
)

// Default cache configuration constants.
const (
	defaultMaxEntries = 32
)

// Cache stores artifacts by key.
type Cache interface {
	// Get returns the artifact for key.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Put stores data under key, evicting the least recently used entry when full.
	Put(ctx context.Context, key string, data []byte)

	// GetOrCompute returns the cached artifact or runs compute once for all
	// concurrent callers of the same key. compute runs detached from the
	// caller's cancellation, so it must bound itself. Errors are not cached.
	GetOrCompute(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, error)

	// Len returns the number of cached artifacts.
	Len() int
}

// Key returns the hex sha256 digest of source.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

type artifactCache struct {
	mu         sync.Mutex
	entries    *lru.Cache
	maxEntries int
	group      singleflight.Group
}

// New returns an in-memory artifact cache. A maximum of zero or less
// disables storage; GetOrCompute then always computes.
func New(opts ...Option) Cache {
	c := &artifactCache{maxEntries: defaultMaxEntries}

	for _, opt := range opts {
		opt(c)
	}

	if c.maxEntries > 0 {
		c.entries = lru.New(c.maxEntries)
	}
	metrics.UpdateCacheEntries(0)

	return c
}

func (c *artifactCache) Get(_ context.Context, key string) ([]byte, bool) {
	if c.entries == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func (c *artifactCache) Put(_ context.Context, key string, data []byte) {
	if c.entries == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Add(key, data)
	metrics.UpdateCacheEntries(c.entries.Len())
}

func (c *artifactCache) GetOrCompute(ctx context.Context, key string, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	if data, ok := c.Get(ctx, key); ok {
		metrics.RecordCacheHit()
		return data, nil
	}
	metrics.RecordCacheMiss()

	if c.entries == nil {
		return compute(ctx)
	}

	// The shared compute outlives any single caller; each caller only
	// stops waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if data, ok := c.Get(shared, key); ok {
			return data, nil
		}
		data, err := compute(shared)
		if err != nil {
			return nil, err
		}
		c.Put(shared, key, data)
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *artifactCache) Len() int {
	if c.entries == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
