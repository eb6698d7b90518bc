package params

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// ProgramCache stores compiled rule programs. Keys are prefixed with the
// evaluator name so engines can share one cache.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// DefaultProgramCacheSize bounds NewLRUProgramCache when size <= 0.
const DefaultProgramCacheSize = 256

// LRUProgramCache is a bounded ProgramCache.
type LRUProgramCache struct {
	cache *lru.Cache[string, any]
}

var _ ProgramCache = (*LRUProgramCache)(nil)

// NewLRUProgramCache builds a cache evicting least recently used programs
// once size entries are held.
func NewLRUProgramCache(size int) *LRUProgramCache {
	if size <= 0 {
		size = DefaultProgramCacheSize
	}
	cache, err := lru.New[string, any](size)
	if err != nil {
		// lru.New only fails for non-positive sizes.
		panic(err)
	}
	return &LRUProgramCache{cache: cache}
}

func (c *LRUProgramCache) Get(key string) (any, bool) {
	return c.cache.Get(key)
}

func (c *LRUProgramCache) Set(key string, value any) {
	c.cache.Add(key, value)
}

// Len reports the number of cached programs.
func (c *LRUProgramCache) Len() int {
	return c.cache.Len()
}

// WithProgramCache shares compiled rules across resolutions.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *engineConfig) {
		cfg.programCache = cache
	}
}
