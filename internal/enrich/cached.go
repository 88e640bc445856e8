package enrich

import (
	"context"
	"time"

	redisc "github.com/saviobatista/adsb-relay/internal/redis"
	"github.com/saviobatista/adsb-relay/internal/tracker"
)

// Reference data is static, so cached entries can live long.
const cacheTTL = 24 * time.Hour

// Cached wraps a Lookup with a Redis cache so several relay processes
// share one warm copy of the aircraft database. Cache failures fall
// through to the underlying lookup.
type Cached struct {
	next  tracker.Lookup
	cache *redisc.Client
}

// NewCached creates a Redis-backed lookup cache over next.
func NewCached(next tracker.Lookup, cache *redisc.Client) *Cached {
	return &Cached{next: next, cache: cache}
}

// Lookup implements tracker.Lookup.
func (c *Cached) Lookup(hexIdent string) (*tracker.AircraftInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if info, found, err := c.cache.GetAircraftInfo(ctx, hexIdent); err == nil && found {
		return info, nil
	}

	info, err := c.next.Lookup(hexIdent)
	if err != nil || info == nil {
		return info, err
	}

	// Cache write failures are invisible to callers.
	_ = c.cache.StoreAircraftInfo(ctx, hexIdent, info, cacheTTL)
	return info, nil
}
