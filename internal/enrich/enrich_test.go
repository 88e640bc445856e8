package enrich

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempDB(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aircraft_db.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp db: %v", err)
	}
	return path
}

func TestLoadCSVSemicolonFormat(t *testing.T) {
	db := "3C5EF2;D-AIXY;A359;00;Airbus A350-941\n" +
		"AE01CE;16-5840;C17;1;C-17A Globemaster III\n" +
		"abc123;N123AB;C172;;Cessna 172\n" +
		"BAD;too-short\n"

	store, err := LoadCSV(writeTempDB(t, db))
	if err != nil {
		t.Fatalf("LoadCSV() error: %v", err)
	}
	if store.Len() != 3 {
		t.Errorf("Len() = %d, want 3", store.Len())
	}

	info, err := store.Lookup("3C5EF2")
	if err != nil || info == nil {
		t.Fatalf("Lookup(3C5EF2) = %v, %v", info, err)
	}
	if info.Registration != "D-AIXY" || info.ICAOType != "A359" || info.Model != "Airbus A350-941" {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.IsMilitary == nil || *info.IsMilitary {
		t.Errorf("IsMilitary = %v, want false", info.IsMilitary)
	}

	// Trimmed flag string "1" means military.
	mil, err := store.Lookup("AE01CE")
	if err != nil || mil == nil {
		t.Fatalf("Lookup(AE01CE) = %v, %v", mil, err)
	}
	if mil.IsMilitary == nil || !*mil.IsMilitary {
		t.Errorf("IsMilitary = %v, want true", mil.IsMilitary)
	}
	if mil.IsLADD == nil || *mil.IsLADD {
		t.Errorf("IsLADD = %v, want false", mil.IsLADD)
	}

	// Lowercase idents in the file and in lookups are normalized.
	if info, _ := store.Lookup("abc123"); info == nil || info.Registration != "N123AB" {
		t.Errorf("case-insensitive lookup failed: %+v", info)
	}
}

func TestLoadCSVHeaderFormat(t *testing.T) {
	db := "icao24,registration,typecode,model\n" +
		"4b4437,HB-JLT,A320,Airbus A320-214\n" +
		"3c5ef2,D-AIXY,A359,\n"

	store, err := LoadCSV(writeTempDB(t, db))
	if err != nil {
		t.Fatalf("LoadCSV() error: %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Len() = %d, want 2", store.Len())
	}

	info, err := store.Lookup("4B4437")
	if err != nil || info == nil {
		t.Fatalf("Lookup(4B4437) = %v, %v", info, err)
	}
	if info.Registration != "HB-JLT" || info.ICAOType != "A320" {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestLookupUnknownAircraft(t *testing.T) {
	store, err := LoadCSV(writeTempDB(t, "3C5EF2;D-AIXY;A359;00;Airbus A350-941\n"))
	if err != nil {
		t.Fatalf("LoadCSV() error: %v", err)
	}

	info, err := store.Lookup("FFFFFF")
	if err != nil {
		t.Errorf("Lookup() error: %v, want nil", err)
	}
	if info != nil {
		t.Errorf("Lookup() = %+v, want nil for unknown aircraft", info)
	}
}

func TestLoadCSVMissingFile(t *testing.T) {
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing database file")
	}
}

func TestLookupReturnsCopy(t *testing.T) {
	store, err := LoadCSV(writeTempDB(t, "3C5EF2;D-AIXY;A359;00;Airbus A350-941\n"))
	if err != nil {
		t.Fatalf("LoadCSV() error: %v", err)
	}

	first, _ := store.Lookup("3C5EF2")
	first.Registration = "MUTATED"

	second, _ := store.Lookup("3C5EF2")
	if second.Registration != "D-AIXY" {
		t.Errorf("mutation leaked into store: %q", second.Registration)
	}
}
