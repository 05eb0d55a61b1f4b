package provider

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/statuskit/statuskit/internal/model"
)

// responseCache is a short revalidation window over provider responses so
// the dashboard and a busy public page don't hammer the provider for the
// same account. Hitting the provider again after expiry is always correct;
// the TTL is purely an optimization.
type responseCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	at      time.Time
	records []model.MonitorRecord
}

func newResponseCache(ttl time.Duration) *responseCache {
	return &responseCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *responseCache) get(key string) ([]model.MonitorRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Since(e.at) >= c.ttl {
		return nil, false
	}
	return e.records, true
}

func (c *responseCache) put(key string, records []model.MonitorRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	// Sweep stale entries here so the map stays bounded by the set of
	// accounts active within one TTL, not everything ever fetched.
	for k, e := range c.entries {
		if now.Sub(e.at) >= c.ttl {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry{at: now, records: records}
}

// cacheKey fingerprints one fetch. The API key goes in hashed so the raw
// secret never sits in a map key.
func cacheKey(provider model.Provider, apiKey string, opts model.FetchOptions) string {
	h := sha256.New()
	h.Write([]byte(apiKey))
	var b strings.Builder
	b.WriteString(string(provider))
	b.WriteByte('|')
	b.WriteString(hex.EncodeToString(h.Sum(nil)))
	b.WriteByte('|')
	b.WriteString(strings.Join(opts.MonitorIDs, "-"))
	b.WriteByte('|')
	b.WriteString(opts.UptimeRatioDays)
	if opts.ResponseTimes {
		b.WriteString("|rt")
	}
	if opts.Logs {
		b.WriteString("|logs")
	}
	return b.String()
}
