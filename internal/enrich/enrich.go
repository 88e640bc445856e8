// Package enrich resolves static aircraft reference data (registration,
// type, model, category flags) for ICAO hex idents. The primary store
// is a tar1090/Mictronics-style database file loaded once at startup;
// an optional Redis layer caches lookups for multi-process setups.
package enrich

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/saviobatista/adsb-relay/internal/tracker"
)

// Store is an in-memory aircraft database keyed by ICAO hex ident.
type Store struct {
	entries map[string]tracker.AircraftInfo
}

// LoadCSV loads an aircraft database file. Two formats are supported:
// semicolon-delimited tar1090 rows (icao;registration;type;flags;model)
// and comma-delimited files with a header row (OpenSky-style).
func LoadCSV(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open aircraft database: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	first, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read aircraft database: %w", err)
	}

	store := &Store{entries: make(map[string]tracker.AircraftInfo)}

	if strings.Contains(first, ";") && !strings.HasPrefix(strings.ToLower(first), "icao") {
		store.loadSemicolonRow(first)
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				store.loadSemicolonRow(line)
			}
			if err != nil {
				break
			}
		}
		return store, nil
	}

	if err := store.loadHeaderRows(first, reader); err != nil {
		return nil, err
	}
	return store, nil
}

// loadSemicolonRow parses one tar1090 row: icao;reg;type;flags;model;;;
func (s *Store) loadSemicolonRow(line string) {
	parts := strings.Split(strings.TrimSpace(line), ";")
	if len(parts) < 3 {
		return
	}
	icao := strings.ToUpper(strings.TrimSpace(parts[0]))
	if len(icao) != 6 {
		return
	}
	info := tracker.AircraftInfo{
		Registration: strings.TrimSpace(parts[1]),
		ICAOType:     strings.TrimSpace(parts[2]),
	}
	if len(parts) > 4 {
		info.Model = strings.TrimSpace(parts[4])
	}
	if len(parts) > 3 {
		applyFlagBits(&info, parts[3])
	}
	s.entries[icao] = info
}

// loadHeaderRows parses a comma-delimited file with a header row.
func (s *Store) loadHeaderRows(header string, rest io.Reader) error {
	r := csv.NewReader(io.MultiReader(strings.NewReader(header), rest))
	r.FieldsPerRecord = -1

	head, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("failed to read aircraft database header: %w", err)
	}

	col := make(map[string]int, len(head))
	for i, name := range head {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	pick := func(row []string, names ...string) string {
		for _, name := range names {
			if i, ok := col[name]; ok && i < len(row) {
				if v := strings.TrimSpace(row[i]); v != "" {
					return v
				}
			}
		}
		return ""
	}

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // tolerate ragged rows
		}
		icao := strings.ToUpper(pick(row, "icao24", "icao", "hex"))
		if icao == "" {
			continue
		}
		info := tracker.AircraftInfo{
			Registration: pick(row, "registration", "reg"),
			ICAOType:     pick(row, "typecode", "type", "aircraft_type"),
			Model:        pick(row, "model"),
		}
		applyFlagBits(&info, pick(row, "flags"))
		s.entries[icao] = info
	}
	return nil
}

// applyFlagBits decodes the 4-bit flag string (military, interesting,
// PIA, LADD). Some database rows trim trailing zeroes, so the string
// is right-padded to 4 characters before mapping.
func applyFlagBits(info *tracker.AircraftInfo, flags string) {
	flags = strings.TrimSpace(flags)
	if len(flags) > 4 {
		flags = flags[len(flags)-4:]
	}
	for len(flags) < 4 {
		flags += "0"
	}
	military := flags[0] == '1'
	interesting := flags[1] == '1'
	pia := flags[2] == '1'
	ladd := flags[3] == '1'
	info.IsMilitary = &military
	info.IsInteresting = &interesting
	info.IsPIA = &pia
	info.IsLADD = &ladd
}

// Lookup implements tracker.Lookup. Unknown aircraft return (nil, nil).
// The map is never mutated after load, so concurrent lookups are safe.
func (s *Store) Lookup(hexIdent string) (*tracker.AircraftInfo, error) {
	info, ok := s.entries[strings.ToUpper(strings.TrimSpace(hexIdent))]
	if !ok {
		return nil, nil
	}
	cp := info
	return &cp, nil
}

// Len returns the number of loaded aircraft.
func (s *Store) Len() int {
	return len(s.entries)
}
