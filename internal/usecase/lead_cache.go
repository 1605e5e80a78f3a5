package usecase

import (
	"sync"
	"time"

	"github.com/xavierca1/beauty-leads/internal/entity"
)

// LeadCache keeps the latest full-list snapshot. Every Replace swaps the
// whole list; there are no partial updates.
type LeadCache struct {
	mu        sync.RWMutex
	leads     []entity.Lead
	ready     bool
	err       error
	updatedAt time.Time
}

func NewLeadCache() *LeadCache {
	return &LeadCache{}
}

func (c *LeadCache) Replace(leads []entity.Lead) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.leads = leads
	c.ready = true
	c.err = nil
	c.updatedAt = time.Now()
}

// MarkFailed records a subscription error. The last snapshot stays served.
func (c *LeadCache) MarkFailed(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Snapshot returns the cached list. ok is false before the first load.
func (c *LeadCache) Snapshot() (leads []entity.Lead, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.leads, c.ready
}

func (c *LeadCache) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// UpdatedAt is when the last snapshot arrived.
func (c *LeadCache) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}
