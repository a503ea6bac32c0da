package service

import (
	"fmt"

	"github.com/dgraph-io/ristretto"

	id "starbeam/pkg/domain"
)

// LookupCache memoizes registry hits. Mappings never change once written, so
// entries need no invalidation; misses are never cached.
type LookupCache struct {
	cache *ristretto.Cache
}

// NewLookupCache sizes the cache in bytes. maxBytes <= 0 disables caching and
// returns a nil cache, which is safe to use.
func NewLookupCache(maxBytes int64) (*LookupCache, error) {
	if maxBytes <= 0 {
		return nil, nil
	}
	// Ristretto wants roughly ten counters per cached item; entries are ~80 bytes.
	counters := max(maxBytes/80*10, 100)
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: counters,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("could not initialize lookup cache: %w", err)
	}
	return &LookupCache{cache: cache}, nil
}

func (c *LookupCache) Get(key id.IdentityKey) (id.Address, bool) {
	if c == nil {
		return "", false
	}
	v, ok := c.cache.Get(key[:])
	if !ok {
		return "", false
	}
	addr, ok := v.(id.Address)
	return addr, ok
}

// Set is asynchronous; a later Get may still miss.
func (c *LookupCache) Set(key id.IdentityKey, addr id.Address) {
	if c == nil {
		return
	}
	c.cache.Set(key[:], addr, int64(len(key)+len(addr)))
}

func (c *LookupCache) Close() {
	if c == nil {
		return
	}
	c.cache.Close()
}
