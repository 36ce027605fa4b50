package enrich

import (
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/crypto/blake2b"

	"github.com/nao1215/gravelscan/internal/model"
)

// Cache limits of analysis results.
const (
	DefaultCacheSize = 200
	DefaultCacheTTL  = 10 * time.Minute
)

// resultCache stores successful analysis results keyed by a digest of
// the stage name and its input.
type resultCache struct {
	lru *expirable.LRU[string, model.AnalysisResult]
}

func newResultCache(size int, ttl time.Duration) *resultCache {
	return &resultCache{lru: expirable.NewLRU[string, model.AnalysisResult](size, nil, ttl)}
}

func (c *resultCache) get(key string) (model.AnalysisResult, bool) {
	return c.lru.Get(key)
}

func (c *resultCache) put(key string, r model.AnalysisResult) {
	c.lru.Add(key, r)
}

func (c *resultCache) len() int {
	return c.lru.Len()
}

// cacheKey digests stage and input with BLAKE2b-256.
func cacheKey(stage, input string) string {
	sum := blake2b.Sum256([]byte(stage + "\x00" + input))
	return stage + ":" + hex.EncodeToString(sum[:])
}

// prefixRunes returns at most n leading runes of s.
func prefixRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
