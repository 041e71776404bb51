// Package hashcache provides SHA-256 content fingerprinting and a small
// concurrent memoization cache keyed by those fingerprints.
//
// The cache is the engine's only shared mutable state. It is injected
// explicitly rather than held as package-level state so tests and parallel
// pipelines can own independent instances.
package hashcache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"sync/atomic"
)

// Digest computes a hex-encoded SHA-256 fingerprint over the concatenation
// of parts. Each part is length-prefixed so part boundaries are unambiguous
// regardless of the bytes inside: ("ab","c") and ("a","bc") hash
// differently, as do ("a\x00","b") and ("a","\x00b").
func Digest(parts ...string) string {
	h := sha256.New()
	var prefix [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(prefix[:], uint64(len(p)))
		h.Write(prefix[:])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Cache memoizes computed strings by digest key. Reads are lock-free.
// Concurrent callers racing on the same key may both compute, but only one
// result is retained; with deterministic compute functions both results are
// identical, so correctness wins over exclusivity.
type Cache struct {
	entries sync.Map // string -> string
	size    atomic.Int64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{}
}

// Get returns the cached value for key, if present.
func (c *Cache) Get(key string) (string, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. The value actually retained is returned, which may be another
// racing caller's identical result.
func (c *Cache) GetOrCompute(key string, compute func() (string, error)) (string, error) {
	if v, ok := c.entries.Load(key); ok {
		return v.(string), nil
	}
	value, err := compute()
	if err != nil {
		return "", err
	}
	actual, loaded := c.entries.LoadOrStore(key, value)
	if !loaded {
		c.size.Add(1)
	}
	return actual.(string), nil
}

// Put stores value under key, counting it only if the key is new.
func (c *Cache) Put(key, value string) {
	if _, loaded := c.entries.LoadOrStore(key, value); !loaded {
		c.size.Add(1)
	}
}

// Size returns the number of retained entries.
func (c *Cache) Size() int {
	return int(c.size.Load())
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)
		return true
	})
	c.size.Store(0)
}
