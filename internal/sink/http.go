package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/saviobatista/adsb-relay/internal/tracker"
)

// ingestPosition is the flattened record the ingest endpoint expects.
// Absent values serialize as null to keep the batch shape stable.
type ingestPosition struct {
	ICAO       string   `json:"icao"`
	Flight     *string  `json:"flight"`
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	AltitudeFt *int     `json:"altitude_ft"`
	SpeedKts   *float64 `json:"speed_kts"`
	HeadingDeg *float64 `json:"heading_deg"`
	Squawk     *string  `json:"squawk"`
	TS         string   `json:"ts"`
}

type ingestBody struct {
	Positions []ingestPosition `json:"positions"`
}

// HTTP batches flattened positions and POSTs them to an ingest
// endpoint. A failed flush is retried once, then the batch is
// requeued; past maxPendingBatches the oldest is dropped and logged.
type HTTP struct {
	url       string
	client    *http.Client
	batchSize int

	batch   []ingestPosition
	pending [][]ingestPosition
}

// NewHTTP creates the ingest sink.
func NewHTTP(url string, batchSize int) *HTTP {
	return &HTTP{
		url:       url,
		client:    &http.Client{Timeout: 10 * time.Second},
		batchSize: batchSize,
	}
}

func (s *HTTP) Name() string { return "http" }

// Write buffers one flattened position.
func (s *HTTP) Write(rec *Record) error {
	s.batch = append(s.batch, flatten(&rec.Snapshot))
	if len(s.batch) >= s.batchSize {
		return s.Flush(context.Background())
	}
	return nil
}

// Flush posts requeued batches first, then the current buffer.
func (s *HTTP) Flush(ctx context.Context) error {
	if len(s.batch) > 0 {
		s.pending = append(s.pending, s.batch)
		s.batch = nil
	}

	var kept [][]ingestPosition
	var lastErr error
	for i, batch := range s.pending {
		if err := ctx.Err(); err != nil {
			kept = append(kept, s.pending[i:]...)
			break
		}
		if err := s.postWithRetry(ctx, batch); err != nil {
			lastErr = err
			kept = append(kept, batch)
		}
	}
	s.pending = kept

	if over := len(s.pending) - maxPendingBatches; over > 0 {
		for _, dropped := range s.pending[:over] {
			log.Printf("http sink: dropping batch of %d positions after repeated failures", len(dropped))
		}
		s.pending = s.pending[over:]
	}

	return lastErr
}

func (s *HTTP) Close() error {
	return s.Flush(context.Background())
}

func (s *HTTP) postWithRetry(ctx context.Context, batch []ingestPosition) error {
	err := s.post(ctx, batch)
	if err == nil {
		return nil
	}
	log.Printf("http sink: batch of %d positions failed, retrying once: %v", len(batch), err)
	if err := s.post(ctx, batch); err != nil {
		log.Printf("http sink: retry failed, requeueing batch: %v", err)
		return err
	}
	return nil
}

func (s *HTTP) post(ctx context.Context, batch []ingestPosition) error {
	body, err := json.Marshal(ingestBody{Positions: batch})
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post batch: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ingest endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func flatten(snap *tracker.Snapshot) ingestPosition {
	pos := ingestPosition{
		ICAO:       snap.HexIdent,
		Lat:        snap.Lat,
		Lon:        snap.Lon,
		AltitudeFt: snap.AltitudeFt,
		SpeedKts:   snap.SpeedKts,
		HeadingDeg: snap.HeadingDeg,
		Squawk:     snap.Squawk,
		TS:         snap.Time.UTC().Format(time.RFC3339Nano),
	}
	if snap.Flight != "" {
		flight := snap.Flight
		pos.Flight = &flight
	}
	return pos
}
