package catalog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProductSource is the slice of the backend client the catalog needs.
type ProductSource interface {
	Products(ctx context.Context) ([]json.RawMessage, error)
	Product(ctx context.Context, id string) (json.RawMessage, error)
}

// Cache holds the last good product list. Each Refresh gets a generation;
// only the newest in-flight refresh may install its result, so a slow
// response from a superseded fetch is discarded instead of clobbering
// fresher data.
type Cache struct {
	mu      sync.Mutex
	gen     uint64
	list    []json.RawMessage
	fetched time.Time

	source ProductSource
	log    *zap.Logger
}

func NewCache(source ProductSource, log *zap.Logger) *Cache {
	return &Cache{source: source, log: log}
}

// Refresh fetches the product list and installs it unless a newer refresh
// started in the meantime. The fetched list is returned to the caller
// either way.
func (c *Cache) Refresh(ctx context.Context) ([]json.RawMessage, error) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	list, err := c.source.Products(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		c.log.Debug("discarding stale product fetch",
			zap.Uint64("generation", gen),
			zap.Uint64("current", c.gen),
		)
		return list, nil
	}
	c.list = list
	c.fetched = time.Now()
	return list, nil
}

// Cached returns the last installed list, which may be empty.
func (c *Cache) Cached() []json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]json.RawMessage, len(c.list))
	copy(out, c.list)
	return out
}
