package sink

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/saviobatista/adsb-relay/internal/event"
)

type stubPublisher struct {
	published []*event.Event
	calls     int
	failures  int
}

func (p *stubPublisher) PublishEvent(ev *event.Event) error {
	p.calls++
	if p.calls <= p.failures {
		return errors.New("nats: connection closed")
	}
	p.published = append(p.published, ev)
	return nil
}

func TestNATSWritePublishesEvent(t *testing.T) {
	pub := &stubPublisher{}
	s := NewNATS(pub, nil)

	ev := &event.Event{EventType: event.Type}
	rec := &Record{
		Snapshot: testSnapshot("3C5EF2", time.Now()),
		Event:    ev,
	}
	if err := s.Write(rec); err != nil {
		t.Fatalf("failed to write record: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0] != ev {
		t.Errorf("expected event published once, got %d", len(pub.published))
	}
}

func TestNATSWriteRetriesOnceThenDrops(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		wantErr   bool
		wantCalls int
	}{
		{name: "first attempt succeeds", failures: 0, wantErr: false, wantCalls: 1},
		{name: "retry succeeds", failures: 1, wantErr: false, wantCalls: 2},
		{name: "retry fails, event dropped", failures: 2, wantErr: true, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &stubPublisher{failures: tt.failures}
			s := NewNATS(pub, nil)

			rec := &Record{
				Snapshot: testSnapshot("3C5EF2", time.Now()),
				Event:    &event.Event{EventType: event.Type},
			}
			err := s.Write(rec)
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if pub.calls != tt.wantCalls {
				t.Errorf("expected %d publish calls, got %d", tt.wantCalls, pub.calls)
			}
		})
	}
}

func TestNATSWriteRejectsRecordWithoutEvent(t *testing.T) {
	s := NewNATS(&stubPublisher{}, nil)
	if err := s.Write(&Record{Snapshot: testSnapshot("3C5EF2", time.Now())}); err == nil {
		t.Error("expected error for record without event")
	}
}

func TestNATSCloseInvokesCloseFn(t *testing.T) {
	closed := false
	s := NewNATS(&stubPublisher{}, func() { closed = true })
	if err := s.Flush(context.Background()); err != nil {
		t.Fatalf("unexpected flush error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if !closed {
		t.Error("expected close function invoked")
	}
}
