package stats

import (
	"strings"
	"sync"
	"testing"
)

func TestCounters(t *testing.T) {
	s := New()

	s.IncrementLinesRead()
	s.IncrementLinesRead()
	s.IncrementDecoded()
	s.IncrementSkipped()
	s.IncrementSnapshots()
	s.IncrementFullKinematics()
	s.IncrementSinkWrites()
	s.IncrementSinkErrors()
	s.IncrementReconnects()
	s.SetTrackedAircraft(42)

	if s.LinesRead != 2 {
		t.Errorf("LinesRead = %d, want 2", s.LinesRead)
	}
	if s.Decoded != 1 || s.Skipped != 1 || s.Snapshots != 1 {
		t.Errorf("unexpected counters: decoded=%d skipped=%d snapshots=%d", s.Decoded, s.Skipped, s.Snapshots)
	}
	if s.TrackedAircraft != 42 {
		t.Errorf("TrackedAircraft = %d, want 42", s.TrackedAircraft)
	}
}

func TestTransmissionTypeBounds(t *testing.T) {
	s := New()

	s.IncrementTransmissionType(3)
	s.IncrementTransmissionType(8)
	s.IncrementTransmissionType(0)  // out of range
	s.IncrementTransmissionType(9)  // out of range
	s.IncrementTransmissionType(-1) // out of range

	if s.TransmissionTypeCounts[3] != 1 || s.TransmissionTypeCounts[8] != 1 {
		t.Errorf("unexpected type counts: %v", s.TransmissionTypeCounts)
	}
	var total uint64
	for _, c := range s.TransmissionTypeCounts {
		total += c
	}
	if total != 2 {
		t.Errorf("total type counts = %d, want 2", total)
	}
}

func TestStringIncludesCounters(t *testing.T) {
	s := New()
	s.IncrementLinesRead()
	s.IncrementSnapshots()

	out := s.String()
	for _, want := range []string{"lines=1", "snapshots=1", "uptime="} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q: %s", want, out)
		}
	}
}

func TestConcurrentIncrements(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.IncrementLinesRead()
				s.UpdateLastMessageTime()
			}
		}()
	}
	wg.Wait()

	if s.LinesRead != 1000 {
		t.Errorf("LinesRead = %d, want 1000", s.LinesRead)
	}
}
