// Package sink contains the downstream consumers of position records:
// CSV files, Postgres, NATS, an HTTP ingest endpoint, and a Redis
// current-view cache. All sinks share one failure policy: a failed
// flush is logged and retried once; what happens after the retry is
// per-sink and documented on the type.
package sink

import (
	"context"

	"github.com/saviobatista/adsb-relay/internal/event"
	"github.com/saviobatista/adsb-relay/internal/tracker"
)

// Record is one emitted position: the tracker snapshot plus the
// canonical event built from the same state.
type Record struct {
	Snapshot tracker.Snapshot
	Event    *event.Event
}

// Sink consumes position records. Write may buffer; Flush drains any
// buffered data and is called periodically, on reconnect, and during
// shutdown. Implementations are called from a single goroutine.
type Sink interface {
	Name() string
	Write(rec *Record) error
	Flush(ctx context.Context) error
	Close() error
}
