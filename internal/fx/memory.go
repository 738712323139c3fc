package fx

import (
	"context"
	"sync"
)

// MemoryCache is an in-process rate cache for tests and redis-less setups.
type MemoryCache struct {
	mu   sync.RWMutex
	days map[string]map[Currency]float64
}

// NewMemoryCache builds an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{days: make(map[string]map[Currency]float64)}
}

func (c *MemoryCache) GetDay(_ context.Context, day string) (map[Currency]float64, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rates, ok := c.days[day]
	if !ok {
		return nil, false, nil
	}
	out := make(map[Currency]float64, len(rates))
	for code, rate := range rates {
		out[code] = rate
	}
	return out, true, nil
}

func (c *MemoryCache) SetDay(_ context.Context, day string, rates map[Currency]float64) error {
	copied := make(map[Currency]float64, len(rates))
	for code, rate := range rates {
		copied[code] = rate
	}
	c.mu.Lock()
	c.days[day] = copied
	c.mu.Unlock()
	return nil
}
