package sink

import (
	"context"
	"log"
	"time"

	"github.com/saviobatista/adsb-relay/internal/tracker"
)

// SnapshotStore is the cache operation the sink needs.
type SnapshotStore interface {
	StoreSnapshot(ctx context.Context, snap *tracker.Snapshot, ttl time.Duration) error
	Close() error
}

// Redis maintains the current view: the latest snapshot per aircraft
// with a TTL, so entries for aircraft no longer heard expire on their
// own. A failed write is retried once and then skipped; the next
// position for the same aircraft repairs the view.
type Redis struct {
	store SnapshotStore
	ttl   time.Duration
}

// NewRedis creates the current-view sink. ttl is the max age after
// which an unheard aircraft drops out of the view.
func NewRedis(store SnapshotStore, ttl time.Duration) *Redis {
	return &Redis{store: store, ttl: ttl}
}

func (s *Redis) Name() string { return "redis" }

// Write stores the record's snapshot under the aircraft's key.
func (s *Redis) Write(rec *Record) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.store.StoreSnapshot(ctx, &rec.Snapshot, s.ttl); err != nil {
		log.Printf("redis sink: store failed, retrying once: %v", err)
		if err := s.store.StoreSnapshot(ctx, &rec.Snapshot, s.ttl); err != nil {
			return err
		}
	}
	return nil
}

// Flush is a no-op: writes are immediate.
func (s *Redis) Flush(ctx context.Context) error { return nil }

func (s *Redis) Close() error {
	return s.store.Close()
}
