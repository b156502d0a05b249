package risk

import (
	"sync"
	"time"

	"corebank/internal/models"
)

type cacheEntry struct {
	assessment *models.RiskAssessment
	expiresAt  time.Time
}

// ttlCache holds assessments per entity with a fixed TTL. Reads tolerate
// staleness up to the TTL; writes to different keys are safe concurrently.
type ttlCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func newTTLCache(ttl time.Duration) *ttlCache {
	return &ttlCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func cacheKey(entityType models.EntityType, entityID string) string {
	return string(entityType) + ":" + entityID
}

func (c *ttlCache) get(entityType models.EntityType, entityID string) (*models.RiskAssessment, bool) {
	c.mu.RLock()
	e, ok := c.entries[cacheKey(entityType, entityID)]
	c.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.assessment, true
}

func (c *ttlCache) put(a *models.RiskAssessment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(a.EntityType, a.EntityID)] = cacheEntry{
		assessment: a,
		expiresAt:  time.Now().Add(c.ttl),
	}
}

func (c *ttlCache) clearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

func (c *ttlCache) clearType(entityType models.EntityType) {
	prefix := string(entityType) + ":"
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
		}
	}
}

func (c *ttlCache) clearEntity(entityType models.EntityType, entityID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(entityType, entityID))
}
