package migrations

// InitialSchema creates the aircraft and positions tables
var InitialSchema = &Migration{
	ID:   "001_initial_schema",
	Name: "001_initial_schema",
	UpSQL: `
		-- Aircraft registry, upserted on every record
		CREATE TABLE IF NOT EXISTS aircraft (
			icao TEXT PRIMARY KEY,
			first_seen_utc TIMESTAMPTZ NOT NULL,
			last_seen_utc  TIMESTAMPTZ NOT NULL,
			last_flight    TEXT
		);

		-- Position history, append-only
		CREATE TABLE IF NOT EXISTS positions (
			id BIGSERIAL PRIMARY KEY,
			icao TEXT NOT NULL REFERENCES aircraft(icao),
			ts   TIMESTAMPTZ NOT NULL,
			lat  DOUBLE PRECISION NOT NULL,
			lon  DOUBLE PRECISION NOT NULL,
			altitude_ft INTEGER,
			speed_kts   REAL,
			heading_deg REAL,
			squawk      TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_positions_ts ON positions(ts);
		CREATE INDEX IF NOT EXISTS idx_positions_icao_ts ON positions(icao, ts);
	`,
	DownSQL: `
		DROP TABLE IF EXISTS positions;
		DROP TABLE IF EXISTS aircraft;
	`,
}
