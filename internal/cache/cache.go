// Package cache memoizes a precompute.Bundle by the hash of the street
// graph it was built from. It is purely an optimization: every lookup
// path falls through to a fresh precompute.Run on a miss or any decode
// error, so a cold or unreachable cache backend never blocks a planning
// run, it just removes the speedup.
package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"watermesh/internal/precompute"
	pkgcache "watermesh/pkg/cache"
	"watermesh/pkg/domain"
)

// snapshot is the gob-serializable subset of precompute.Bundle. Graph
// itself is never serialized: it carries an unexported adjacency index
// and mutex that gob silently drops, and the caller already holds the
// graph that produced the hash used as the cache key, so it's cheaper and
// safer to splice it back in on a hit than to reconstruct it from wire
// bytes.
type snapshot struct {
	Demand      map[int64]float64
	DemandNodes map[int64]bool
	SP          map[int64]map[int64][]int64
	SPL         map[int64]map[int64]float64
	TC          map[int64]map[int64]float64
}

// BundleCache wraps a pkgcache.Cache to memoize PrecomputedBundles.
type BundleCache struct {
	backend pkgcache.Cache
	ttl     time.Duration
}

// New wraps backend with the given entry TTL.
func New(backend pkgcache.Cache, ttl time.Duration) *BundleCache {
	return &BundleCache{backend: backend, ttl: ttl}
}

// Get returns the cached bundle for g, if present and decodable. ok is
// false on a miss, a backend error, or a corrupted entry; callers should
// always fall through to precompute.Run in that case.
func (c *BundleCache) Get(ctx context.Context, g *domain.StreetGraph) (*precompute.Bundle, bool) {
	if c == nil || c.backend == nil {
		return nil, false
	}

	key := pkgcache.BuildBundleKey(pkgcache.GraphHash(g))
	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&snap); err != nil {
		// corrupted entry: remove it so the next miss doesn't repeat the
		// decode failure, and report a miss either way.
		_ = c.backend.Delete(ctx, key)
		return nil, false
	}

	return &precompute.Bundle{
		Graph:       g,
		Demand:      snap.Demand,
		DemandNodes: snap.DemandNodes,
		SP:          snap.SP,
		SPL:         snap.SPL,
		TC:          snap.TC,
	}, true
}

// Put stores bundle under g's hash. Errors are not surfaced: a failed
// write just means the next Get misses and recomputes.
func (c *BundleCache) Put(ctx context.Context, g *domain.StreetGraph, bundle *precompute.Bundle) {
	if c == nil || c.backend == nil || bundle == nil {
		return
	}

	snap := snapshot{
		Demand:      bundle.Demand,
		DemandNodes: bundle.DemandNodes,
		SP:          bundle.SP,
		SPL:         bundle.SPL,
		TC:          bundle.TC,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snap); err != nil {
		return
	}

	key := pkgcache.BuildBundleKey(pkgcache.GraphHash(g))
	_ = c.backend.Set(ctx, key, buf.Bytes(), c.ttl)
}

// Run returns the cached bundle for g if one exists, otherwise computes,
// caches, and returns a fresh one. It is the one entry point most callers
// need.
func Run(ctx context.Context, c *BundleCache, g *domain.StreetGraph) (*precompute.Bundle, error) {
	if bundle, ok := c.Get(ctx, g); ok {
		return bundle, nil
	}

	bundle, err := precompute.Run(g)
	if err != nil {
		return nil, fmt.Errorf("precompute: %w", err)
	}

	c.Put(ctx, g, bundle)
	return bundle, nil
}
