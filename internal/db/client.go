package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

// AircraftRow is one upsert into the aircraft table.
type AircraftRow struct {
	HexIdent   string
	FirstSeen  time.Time
	LastSeen   time.Time
	LastFlight *string
}

// PositionRow is one append into the positions table.
type PositionRow struct {
	HexIdent   string
	TS         time.Time
	Lat        float64
	Lon        float64
	AltitudeFt *int
	SpeedKts   *float64
	HeadingDeg *float64
	Squawk     *string
}

type Client struct {
	db *sql.DB
}

// New creates a new database client
func New(connStr string) (*Client, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	return &Client{db: db}, nil
}

// NewWithDB wraps an existing handle (useful for testing)
func NewWithDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping verifies the connection
func (c *Client) Ping() error {
	return c.db.Ping()
}

// WriteBatch stores a batch of aircraft upserts and position appends in
// one transaction. Aircraft rows must be unique per hex ident: Postgres
// rejects an upsert touching the same row twice in one statement, so
// callers dedupe before flushing.
func (c *Client) WriteBatch(aircraft []AircraftRow, positions []PositionRow) error {
	if len(aircraft) == 0 && len(positions) == 0 {
		return nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if len(aircraft) > 0 {
		query := `
			INSERT INTO aircraft (icao, first_seen_utc, last_seen_utc, last_flight)
			VALUES ` + valuesPlaceholders(len(aircraft), 4) + `
			ON CONFLICT (icao) DO UPDATE SET
				last_seen_utc = EXCLUDED.last_seen_utc,
				last_flight   = COALESCE(EXCLUDED.last_flight, aircraft.last_flight)
		`
		args := make([]interface{}, 0, len(aircraft)*4)
		for _, row := range aircraft {
			args = append(args, row.HexIdent, row.FirstSeen, row.LastSeen, row.LastFlight)
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to upsert aircraft: %w", err)
		}
	}

	if len(positions) > 0 {
		query := `
			INSERT INTO positions (icao, ts, lat, lon, altitude_ft, speed_kts, heading_deg, squawk)
			VALUES ` + valuesPlaceholders(len(positions), 8)
		args := make([]interface{}, 0, len(positions)*8)
		for _, row := range positions {
			args = append(args,
				row.HexIdent, row.TS, row.Lat, row.Lon,
				row.AltitudeFt, row.SpeedKts, row.HeadingDeg, row.Squawk,
			)
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to insert positions: %w", err)
		}
	}

	return tx.Commit()
}

// valuesPlaceholders builds ($1,$2,..),($n+1,..) groups for multi-row
// inserts.
func valuesPlaceholders(rows, cols int) string {
	var b strings.Builder
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for col := 0; col < cols; col++ {
			if col > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
		}
		b.WriteString(")")
	}
	return b.String()
}

// LastPosition returns the most recent stored position for an aircraft,
// or nil if none exists.
func (c *Client) LastPosition(hexIdent string) (*PositionRow, error) {
	query := `
		SELECT icao, ts, lat, lon, altitude_ft, speed_kts, heading_deg, squawk
		FROM positions
		WHERE icao = $1
		ORDER BY ts DESC
		LIMIT 1
	`
	var row PositionRow
	err := c.db.QueryRow(query, hexIdent).Scan(
		&row.HexIdent, &row.TS, &row.Lat, &row.Lon,
		&row.AltitudeFt, &row.SpeedKts, &row.HeadingDeg, &row.Squawk,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
