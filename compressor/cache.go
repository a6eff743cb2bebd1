// In-memory TTL cache for compression responses.
//
// Keyed by a hash of every request knob that reaches the service, so only
// truly identical calls within the TTL skip the network round trip. A janitor goroutine evicts
// expired entries; Close stops it.
package compressor

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/scaledown-ai/scaledown-go/step"
)

// janitorInterval is how often expired entries are swept.
const janitorInterval = time.Minute

type cacheEntry struct {
	content   step.CompressedContent
	expiresAt time.Time
}

type responseCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	stop    chan struct{}
	stopped bool
}

func newResponseCache(ttl time.Duration) *responseCache {
	c := &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.janitor()
	return c
}

func cacheKey(content, instruction, model string, rate float64, budget int) string {
	h := sha256.New()
	for _, part := range []string{content, instruction, model, strconv.FormatFloat(rate, 'f', -1, 64), strconv.Itoa(budget)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// get returns a copy of the cached result, if present and fresh.
func (c *responseCache) get(key string) (*step.CompressedContent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	out := e.content
	return &out, true
}

func (c *responseCache) put(key string, content *step.CompressedContent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{content: *content, expiresAt: time.Now().Add(c.ttl)}
}

func (c *responseCache) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *responseCache) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stopped {
		c.stopped = true
		close(c.stop)
	}
}
