package sink

import (
	"context"
	"fmt"
	"log"

	"github.com/saviobatista/adsb-relay/internal/event"
)

// EventPublisher is the bus operation the sink needs.
type EventPublisher interface {
	PublishEvent(ev *event.Event) error
}

// NATS publishes one event per position snapshot, immediately and
// unbatched: bus consumers want the live picture, not history. A
// failed publish is retried once and then the event is dropped; the
// at-least-once window is covered by the next position for the same
// aircraft.
type NATS struct {
	publisher EventPublisher
	closeFn   func()
}

// NewNATS creates the bus sink. closeFn may be nil.
func NewNATS(publisher EventPublisher, closeFn func()) *NATS {
	return &NATS{publisher: publisher, closeFn: closeFn}
}

func (s *NATS) Name() string { return "nats" }

// Write publishes the record's event.
func (s *NATS) Write(rec *Record) error {
	if rec.Event == nil {
		return fmt.Errorf("nats sink: record without event")
	}
	if err := s.publisher.PublishEvent(rec.Event); err != nil {
		log.Printf("nats sink: publish failed, retrying once: %v", err)
		if err := s.publisher.PublishEvent(rec.Event); err != nil {
			return fmt.Errorf("nats sink: publish retry failed, dropping event for %s: %w",
				rec.Snapshot.HexIdent, err)
		}
	}
	return nil
}

// Flush is a no-op: events are never buffered.
func (s *NATS) Flush(ctx context.Context) error { return nil }

func (s *NATS) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
