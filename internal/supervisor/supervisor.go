// Package supervisor owns the feed connection lifecycle: connect with
// a bounded timeout, stream lines through the decoder and tracker,
// fan completed records out to the sinks, and on any failure back off
// a fixed delay and reconnect forever. The backoff is deliberately not
// exponential: a local receiver is either up or it isn't.
package supervisor

import (
	"bufio"
	"context"
	"log"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/saviobatista/adsb-relay/internal/event"
	"github.com/saviobatista/adsb-relay/internal/sbs"
	"github.com/saviobatista/adsb-relay/internal/sink"
	"github.com/saviobatista/adsb-relay/internal/stats"
	"github.com/saviobatista/adsb-relay/internal/tracker"
)

// State is the supervisor's position in the connection lifecycle.
type State int32

const (
	Disconnected State = iota
	Connecting
	Streaming
	Backoff
	Stopped
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Streaming:
		return "streaming"
	case Backoff:
		return "backoff"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Dialer opens the feed connection. Swapped out in tests.
type Dialer func(addr string, timeout time.Duration) (net.Conn, error)

// Config holds the per-feed supervisor settings.
type Config struct {
	Addr           string
	SourceID       string
	ConnectTimeout time.Duration
	ReconnectDelay time.Duration
	FlushInterval  time.Duration
}

// Supervisor drives one feed through one tracker into the sinks. A
// process may run several supervisors, each with its own tracker; no
// state is shared between them.
type Supervisor struct {
	cfg     Config
	tracker *tracker.Tracker
	sinks   []sink.Sink
	stats   *stats.Stats
	dial    Dialer

	state atomic.Int32
}

// New creates a Supervisor. Zero durations in cfg get defaults.
func New(cfg Config, tr *tracker.Tracker, sinks []sink.Sink, st *stats.Stats) *Supervisor {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	return &Supervisor{
		cfg:     cfg,
		tracker: tr,
		sinks:   sinks,
		stats:   st,
		dial: func(addr string, timeout time.Duration) (net.Conn, error) {
			return net.DialTimeout("tcp", addr, timeout)
		},
	}
}

// State reports the current lifecycle state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

func (s *Supervisor) setState(state State) {
	s.state.Store(int32(state))
}

// Run loops connect/stream/backoff until ctx is cancelled. Shutdown is
// ordered: stop reading, flush every sink, close the connection.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return s.shutdown(nil)
		}

		s.setState(Connecting)
		conn, err := s.dial(s.cfg.Addr, s.cfg.ConnectTimeout)
		if err != nil {
			log.Printf("[%s] failed to connect to %s: %v, retrying in %s",
				s.cfg.SourceID, s.cfg.Addr, err, s.cfg.ReconnectDelay)
			s.stats.IncrementReconnects()
			s.setState(Backoff)
			if !sleepCtx(ctx, s.cfg.ReconnectDelay) {
				return s.shutdown(nil)
			}
			continue
		}

		session := uuid.New().String()
		log.Printf("[%s] connected to %s (session %s)", s.cfg.SourceID, s.cfg.Addr, session)
		s.setState(Streaming)

		streamErr := s.stream(ctx, conn)

		if ctx.Err() != nil {
			return s.shutdown(conn)
		}

		conn.Close()
		log.Printf("[%s] stream ended (session %s): %v, reconnecting in %s",
			s.cfg.SourceID, session, streamErr, s.cfg.ReconnectDelay)

		// Don't sit on buffered records across an outage.
		s.flushAll()

		s.stats.IncrementReconnects()
		s.setState(Backoff)
		if !sleepCtx(ctx, s.cfg.ReconnectDelay) {
			return s.shutdown(nil)
		}
	}
}

// shutdown flushes every sink, then closes the connection, then marks
// the supervisor stopped. Skipping the flush here would lose buffered
// records.
func (s *Supervisor) shutdown(conn net.Conn) error {
	s.flushAll()
	if conn != nil {
		conn.Close()
	}
	s.setState(Stopped)
	return nil
}

// stream reads lines until end-of-stream, an I/O error, or ctx
// cancellation. A watcher goroutine forces the blocked read to return
// on cancellation by expiring the read deadline.
func (s *Supervisor) stream(ctx context.Context, conn net.Conn) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.SetReadDeadline(time.Now())
		case <-stop:
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lastFlush := time.Now()
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		s.handleLine(scanner.Text())

		if time.Since(lastFlush) >= s.cfg.FlushInterval {
			s.flushAll()
			lastFlush = time.Now()
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return scanner.Err()
}

// handleLine runs one line through decode, merge, and fan-out.
func (s *Supervisor) handleLine(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}

	s.stats.IncrementLinesRead()
	s.stats.UpdateLastMessageTime()

	msg, ok := sbs.Parse(line)
	if !ok {
		s.stats.IncrementSkipped()
		return
	}
	s.stats.IncrementDecoded()
	if msg.TransmissionType != nil {
		s.stats.IncrementTransmissionType(*msg.TransmissionType)
	}

	snap, hasFullKinematics := s.tracker.Update(msg)
	s.stats.SetTrackedAircraft(uint64(s.tracker.Len()))
	if snap == nil {
		return
	}
	s.stats.IncrementSnapshots()
	if hasFullKinematics {
		s.stats.IncrementFullKinematics()
	}

	state := s.tracker.State(msg.HexIdent)
	ev, err := event.Build(state, s.cfg.SourceID, &event.Provenance{
		RawLine:          msg.Raw,
		MessageType:      msg.MessageType,
		TransmissionType: msg.TransmissionType,
	}, snap.Time.UnixMilli())
	if err != nil {
		log.Printf("[%s] failed to build event for %s: %v", s.cfg.SourceID, msg.HexIdent, err)
		return
	}

	rec := &sink.Record{Snapshot: *snap, Event: ev}
	for _, sk := range s.sinks {
		if err := sk.Write(rec); err != nil {
			s.stats.IncrementSinkErrors()
			log.Printf("[%s] sink %s: write failed: %v", s.cfg.SourceID, sk.Name(), err)
		}
	}
	s.stats.IncrementSinkWrites()
}

// flushAll flushes every sink with a bounded per-sink timeout. Sink
// failures are logged and counted, never fatal: an outage downstream
// must not stop feed ingestion.
func (s *Supervisor) flushAll() {
	for _, sk := range s.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := sk.Flush(ctx); err != nil {
			s.stats.IncrementSinkErrors()
			log.Printf("[%s] sink %s: flush failed: %v", s.cfg.SourceID, sk.Name(), err)
		}
		cancel()
	}
}

// sleepCtx waits d, returning false if ctx was cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
