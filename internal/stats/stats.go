package stats

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Stats tracks relay pipeline counters. Counters are atomics so the
// read loop never blocks on the periodic logger.
type Stats struct {
	LinesRead      uint64
	Decoded        uint64
	Skipped        uint64
	Snapshots      uint64
	FullKinematics uint64
	SinkWrites     uint64
	SinkErrors     uint64
	Reconnects     uint64

	// Transmission type counts, index 1..8
	TransmissionTypeCounts [9]uint64

	TrackedAircraft uint64

	LastMessageTime time.Time
	startTime       time.Time

	mu sync.RWMutex
}

// New creates a new Stats instance
func New() *Stats {
	now := time.Now()
	return &Stats{
		LastMessageTime: now,
		startTime:       now,
	}
}

// IncrementLinesRead increments the raw line counter
func (s *Stats) IncrementLinesRead() {
	atomic.AddUint64(&s.LinesRead, 1)
}

// IncrementDecoded increments the decoded message counter
func (s *Stats) IncrementDecoded() {
	atomic.AddUint64(&s.Decoded, 1)
}

// IncrementSkipped increments the undecodable line counter
func (s *Stats) IncrementSkipped() {
	atomic.AddUint64(&s.Skipped, 1)
}

// IncrementSnapshots increments the emitted snapshot counter
func (s *Stats) IncrementSnapshots() {
	atomic.AddUint64(&s.Snapshots, 1)
}

// IncrementFullKinematics counts snapshots with speed and heading
func (s *Stats) IncrementFullKinematics() {
	atomic.AddUint64(&s.FullKinematics, 1)
}

// IncrementSinkWrites counts records handed to sinks
func (s *Stats) IncrementSinkWrites() {
	atomic.AddUint64(&s.SinkWrites, 1)
}

// IncrementSinkErrors counts failed sink writes and flushes
func (s *Stats) IncrementSinkErrors() {
	atomic.AddUint64(&s.SinkErrors, 1)
}

// IncrementReconnects counts feed reconnection cycles
func (s *Stats) IncrementReconnects() {
	atomic.AddUint64(&s.Reconnects, 1)
}

// IncrementTransmissionType counts a message's SBS subtype (1-8)
func (s *Stats) IncrementTransmissionType(tt int) {
	if tt >= 1 && tt < len(s.TransmissionTypeCounts) {
		atomic.AddUint64(&s.TransmissionTypeCounts[tt], 1)
	}
}

// SetTrackedAircraft records the size of the tracker's state map
func (s *Stats) SetTrackedAircraft(count uint64) {
	atomic.StoreUint64(&s.TrackedAircraft, count)
}

// UpdateLastMessageTime stamps the arrival of a feed line
func (s *Stats) UpdateLastMessageTime() {
	s.mu.Lock()
	s.LastMessageTime = time.Now()
	s.mu.Unlock()
}

// String returns a loggable summary of the counters
func (s *Stats) String() string {
	s.mu.RLock()
	lastMessage := s.LastMessageTime
	start := s.startTime
	s.mu.RUnlock()

	return fmt.Sprintf(
		"lines=%d decoded=%d skipped=%d snapshots=%d full_kinematics=%d "+
			"sink_writes=%d sink_errors=%d reconnects=%d aircraft=%d "+
			"last_message=%s uptime=%s",
		atomic.LoadUint64(&s.LinesRead),
		atomic.LoadUint64(&s.Decoded),
		atomic.LoadUint64(&s.Skipped),
		atomic.LoadUint64(&s.Snapshots),
		atomic.LoadUint64(&s.FullKinematics),
		atomic.LoadUint64(&s.SinkWrites),
		atomic.LoadUint64(&s.SinkErrors),
		atomic.LoadUint64(&s.Reconnects),
		atomic.LoadUint64(&s.TrackedAircraft),
		lastMessage.UTC().Format(time.RFC3339),
		time.Since(start).Round(time.Second),
	)
}

// LogPeriodically logs the counters at the given interval until ctx is
// cancelled.
func (s *Stats) LogPeriodically(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("Statistics: %s", s)
		}
	}
}
