package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/saviobatista/adsb-relay/internal/tracker"
)

// Header shared between the history and current files.
var csvColumns = []string{
	"timestamp_utc", "icao", "flight", "lat", "lon",
	"altitude_ft", "speed_kts", "heading_deg", "squawk",
}

// Current file rewrite cadence, in records.
const currentUpdateInterval = 5

// CSV writes every position to an append-only history file and
// periodically rewrites a current-positions file holding the latest
// position per aircraft seen within maxAge. On a failed flush the
// pending rows stay buffered in the csv.Writer and are retried on the
// next flush; rows are only lost if the process dies first.
type CSV struct {
	historyPath string
	currentPath string
	maxAge      time.Duration

	file   *os.File
	writer *csv.Writer

	current     map[string]tracker.Snapshot
	writeCount  int
	lastCurrent int

	now func() time.Time
}

// NewCSV opens (or creates) the history file. currentPath may be empty
// to disable the current-positions file.
func NewCSV(historyPath, currentPath string, maxAge time.Duration) (*CSV, error) {
	if err := os.MkdirAll(filepath.Dir(historyPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.OpenFile(historyPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open history CSV: %w", err)
	}

	s := &CSV{
		historyPath: historyPath,
		currentPath: currentPath,
		maxAge:      maxAge,
		file:        file,
		writer:      csv.NewWriter(file),
		current:     make(map[string]tracker.Snapshot),
		now:         time.Now,
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat history CSV: %w", err)
	}
	if info.Size() == 0 {
		if err := s.writer.Write(csvColumns); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write CSV header: %w", err)
		}
		s.writer.Flush()
	}

	return s, nil
}

func (s *CSV) Name() string { return "csv" }

// Write appends the snapshot to the history file buffer and updates
// the current-positions map.
func (s *CSV) Write(rec *Record) error {
	snap := rec.Snapshot
	if err := s.writer.Write(snapshotRow(&snap)); err != nil {
		return fmt.Errorf("failed to write history row: %w", err)
	}

	s.current[snap.HexIdent] = snap
	s.writeCount++

	if s.currentPath != "" && s.writeCount-s.lastCurrent >= currentUpdateInterval {
		if err := s.writeCurrent(); err != nil {
			log.Printf("csv sink: failed to update current positions: %v", err)
		}
		s.lastCurrent = s.writeCount
	}

	return nil
}

// Flush drains buffered history rows and rewrites the current file.
func (s *CSV) Flush(ctx context.Context) error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		// Retry once; the csv.Writer keeps nothing on failure, so this
		// only covers transient fsync-level errors.
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			return fmt.Errorf("failed to flush history CSV: %w", err)
		}
	}

	if s.currentPath != "" {
		if err := s.writeCurrent(); err != nil {
			return err
		}
		s.lastCurrent = s.writeCount
	}
	return nil
}

// Close flushes and closes the history file.
func (s *CSV) Close() error {
	s.writer.Flush()
	return s.file.Close()
}

// writeCurrent rewrites the current-positions file with aircraft seen
// within maxAge, sorted by hex ident.
func (s *CSV) writeCurrent() error {
	cutoff := s.now().Add(-s.maxAge)

	recent := make([]tracker.Snapshot, 0, len(s.current))
	for _, snap := range s.current {
		if !snap.Time.Before(cutoff) {
			recent = append(recent, snap)
		}
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].HexIdent < recent[j].HexIdent
	})

	tmp := s.currentPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create current CSV: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvColumns); err != nil {
		f.Close()
		return fmt.Errorf("failed to write current CSV header: %w", err)
	}
	for i := range recent {
		if err := w.Write(snapshotRow(&recent[i])); err != nil {
			f.Close()
			return fmt.Errorf("failed to write current CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush current CSV: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close current CSV: %w", err)
	}

	return os.Rename(tmp, s.currentPath)
}

// snapshotRow renders a snapshot in the fixed column order, with
// absent values as empty cells.
func snapshotRow(snap *tracker.Snapshot) []string {
	row := []string{
		snap.Time.UTC().Format(time.RFC3339Nano),
		snap.HexIdent,
		snap.Flight,
		strconv.FormatFloat(snap.Lat, 'f', -1, 64),
		strconv.FormatFloat(snap.Lon, 'f', -1, 64),
		"", "", "", "",
	}
	if snap.AltitudeFt != nil {
		row[5] = strconv.Itoa(*snap.AltitudeFt)
	}
	if snap.SpeedKts != nil {
		row[6] = strconv.FormatFloat(*snap.SpeedKts, 'f', -1, 64)
	}
	if snap.HeadingDeg != nil {
		row[7] = strconv.FormatFloat(*snap.HeadingDeg, 'f', -1, 64)
	}
	if snap.Squawk != nil {
		row[8] = *snap.Squawk
	}
	return row
}
