package sink

import (
	"context"
	"log"

	"github.com/saviobatista/adsb-relay/internal/db"
)

// Cap on requeued batches before the oldest is dropped.
const maxPendingBatches = 10

// BatchWriter is the database operation the sink needs.
type BatchWriter interface {
	WriteBatch(aircraft []db.AircraftRow, positions []db.PositionRow) error
	Close() error
}

type dbBatch struct {
	aircraft  []db.AircraftRow
	positions []db.PositionRow
}

// DB buffers records and writes them to Postgres in batches: an
// upsert per aircraft and an append per position. A failed flush is
// retried once, then the batch is requeued; when more than
// maxPendingBatches accumulate the oldest is dropped and logged.
type DB struct {
	client    BatchWriter
	batchSize int

	aircraft  map[string]db.AircraftRow
	positions []db.PositionRow
	pending   []dbBatch
}

// NewDB creates the Postgres sink.
func NewDB(client BatchWriter, batchSize int) *DB {
	return &DB{
		client:    client,
		batchSize: batchSize,
		aircraft:  make(map[string]db.AircraftRow),
	}
}

func (s *DB) Name() string { return "db" }

// Write buffers one position. Aircraft rows are deduplicated per
// batch (Postgres rejects an upsert touching one row twice), keeping
// the latest flight and last-seen time.
func (s *DB) Write(rec *Record) error {
	snap := rec.Snapshot
	ts := snap.Time.UTC()

	row := db.AircraftRow{
		HexIdent:  snap.HexIdent,
		FirstSeen: ts,
		LastSeen:  ts,
	}
	if snap.Flight != "" {
		flight := snap.Flight
		row.LastFlight = &flight
	}
	if prev, ok := s.aircraft[snap.HexIdent]; ok {
		row.FirstSeen = prev.FirstSeen
		if row.LastFlight == nil {
			row.LastFlight = prev.LastFlight
		}
	}
	s.aircraft[snap.HexIdent] = row

	s.positions = append(s.positions, db.PositionRow{
		HexIdent:   snap.HexIdent,
		TS:         ts,
		Lat:        snap.Lat,
		Lon:        snap.Lon,
		AltitudeFt: snap.AltitudeFt,
		SpeedKts:   snap.SpeedKts,
		HeadingDeg: snap.HeadingDeg,
		Squawk:     snap.Squawk,
	})

	if len(s.positions) >= s.batchSize {
		return s.Flush(context.Background())
	}
	return nil
}

// Flush writes requeued batches first, then the current buffer.
func (s *DB) Flush(ctx context.Context) error {
	s.sealCurrent()

	var kept []dbBatch
	var lastErr error
	for i, batch := range s.pending {
		if err := ctx.Err(); err != nil {
			kept = append(kept, s.pending[i:]...)
			break
		}
		if err := s.writeWithRetry(batch); err != nil {
			lastErr = err
			kept = append(kept, batch)
		}
	}
	s.pending = kept

	if over := len(s.pending) - maxPendingBatches; over > 0 {
		for _, dropped := range s.pending[:over] {
			log.Printf("db sink: dropping batch of %d positions after repeated failures", len(dropped.positions))
		}
		s.pending = s.pending[over:]
	}

	return lastErr
}

// Close flushes outstanding batches and closes the client.
func (s *DB) Close() error {
	flushErr := s.Flush(context.Background())
	if err := s.client.Close(); err != nil {
		return err
	}
	return flushErr
}

// sealCurrent moves the write buffer onto the pending queue.
func (s *DB) sealCurrent() {
	if len(s.positions) == 0 && len(s.aircraft) == 0 {
		return
	}
	batch := dbBatch{positions: s.positions}
	for _, row := range s.aircraft {
		batch.aircraft = append(batch.aircraft, row)
	}
	s.pending = append(s.pending, batch)
	s.positions = nil
	s.aircraft = make(map[string]db.AircraftRow)
}

func (s *DB) writeWithRetry(batch dbBatch) error {
	err := s.client.WriteBatch(batch.aircraft, batch.positions)
	if err == nil {
		return nil
	}
	log.Printf("db sink: batch of %d positions failed, retrying once: %v", len(batch.positions), err)
	if err := s.client.WriteBatch(batch.aircraft, batch.positions); err != nil {
		log.Printf("db sink: retry failed, requeueing batch: %v", err)
		return err
	}
	return nil
}
