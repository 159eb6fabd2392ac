// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package proof

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/luxfi/zkcred/crypto"
)

// resultCache bounds the verifier's memoized verify results to
// config.Limits.VerificationCacheMaxEntries, evicting the single
// least-recently-used entry on overflow per golang-lru/v2's built-in LRU
// policy (a cache hit refreshes an entry's recency).
type resultCache struct {
	cache *lru.Cache[string, bool]
}

func newResultCache(maxEntries int) (*resultCache, error) {
	c, err := lru.New[string, bool](maxEntries)
	if err != nil {
		return nil, err
	}
	return &resultCache{cache: c}, nil
}

// cacheKey derives a stable key for a (claim kind, proof) pair from the
// proof's blob and public signals, so identical proofs hit the cache
// without re-running the external verifier.
func cacheKey(kind string, blob Blob, publicSignals []string) string {
	h := crypto.Hash(blob.Raw)
	joined := kind + "|" + h
	for _, s := range publicSignals {
		joined += "|" + s
	}
	return crypto.Hash([]byte(joined))
}

func (c *resultCache) get(key string) (bool, bool) {
	return c.cache.Get(key)
}

func (c *resultCache) put(key string, valid bool) {
	c.cache.Add(key, valid)
}
