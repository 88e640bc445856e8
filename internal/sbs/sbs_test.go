package sbs

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantOK  bool
		check   func(t *testing.T, msg *Message)
	}{
		{
			name:   "position message with velocity",
			raw:    "MSG,3,111,11111,3C5EF2,111111,2025/12/07,17:01:58.200,2025/12/07,17:01:58.400,EWG4TV,38000,376,158,45.630,8.936,,,0,0,0,0",
			wantOK: true,
			check: func(t *testing.T, msg *Message) {
				if msg.HexIdent != "3C5EF2" {
					t.Errorf("HexIdent = %q, want 3C5EF2", msg.HexIdent)
				}
				if !msg.HasPosition() {
					t.Fatal("expected position to be present")
				}
				if *msg.Lat != 45.630 || *msg.Lon != 8.936 {
					t.Errorf("position = (%v, %v), want (45.630, 8.936)", *msg.Lat, *msg.Lon)
				}
				if msg.AltitudeFt == nil || *msg.AltitudeFt != 38000 {
					t.Errorf("AltitudeFt = %v, want 38000", msg.AltitudeFt)
				}
				if msg.GroundSpeedKts == nil || *msg.GroundSpeedKts != 376 {
					t.Errorf("GroundSpeedKts = %v, want 376", msg.GroundSpeedKts)
				}
				if msg.TrackDeg == nil || *msg.TrackDeg != 158 {
					t.Errorf("TrackDeg = %v, want 158", msg.TrackDeg)
				}
				if msg.Callsign == nil || *msg.Callsign != "EWG4TV" {
					t.Errorf("Callsign = %v, want EWG4TV", msg.Callsign)
				}
				if msg.TransmissionType == nil || *msg.TransmissionType != 3 {
					t.Errorf("TransmissionType = %v, want 3", msg.TransmissionType)
				}
				if msg.Alert == nil || *msg.Alert {
					t.Errorf("Alert = %v, want false", msg.Alert)
				}
				if msg.OnGround == nil || *msg.OnGround {
					t.Errorf("OnGround = %v, want false", msg.OnGround)
				}
				if msg.Squawk != nil {
					t.Errorf("Squawk = %v, want nil", *msg.Squawk)
				}
			},
		},
		{
			name:   "lowercase hex ident is normalized",
			raw:    "MSG,4,111,11111,abc123,111111,,,,,,,250,90,,,,,,,,",
			wantOK: true,
			check: func(t *testing.T, msg *Message) {
				if msg.HexIdent != "ABC123" {
					t.Errorf("HexIdent = %q, want ABC123", msg.HexIdent)
				}
				if msg.HasPosition() {
					t.Error("expected no position")
				}
				if msg.GroundSpeedKts == nil || *msg.GroundSpeedKts != 250 {
					t.Errorf("GroundSpeedKts = %v, want 250", msg.GroundSpeedKts)
				}
			},
		},
		{
			name:   "out of range latitude drops both coordinates",
			raw:    "MSG,3,111,11111,ABC123,111111,,,,,,38000,376,158,95.0,8.936,,,0,0,0,0",
			wantOK: true,
			check: func(t *testing.T, msg *Message) {
				if msg.Lat != nil || msg.Lon != nil {
					t.Errorf("lat/lon = (%v, %v), want both nil", msg.Lat, msg.Lon)
				}
			},
		},
		{
			name:   "latitude without longitude is dropped",
			raw:    "MSG,3,111,11111,ABC123,111111,,,,,,38000,376,158,45.63,,,,0,0,0,0",
			wantOK: true,
			check: func(t *testing.T, msg *Message) {
				if msg.Lat != nil || msg.Lon != nil {
					t.Errorf("lat/lon = (%v, %v), want both nil", msg.Lat, msg.Lon)
				}
			},
		},
		{
			name:   "bad altitude keeps the rest of the line",
			raw:    "MSG,3,111,11111,ABC123,111111,,,,,,garbage,376,158,45.63,8.936,,,0,0,0,0",
			wantOK: true,
			check: func(t *testing.T, msg *Message) {
				if msg.AltitudeFt != nil {
					t.Errorf("AltitudeFt = %v, want nil", *msg.AltitudeFt)
				}
				if !msg.HasPosition() {
					t.Error("expected position despite bad altitude")
				}
			},
		},
		{
			name:   "fractional altitude truncates",
			raw:    "MSG,3,111,11111,ABC123,111111,,,,,,38000.7,,,,,,,,,,",
			wantOK: true,
			check: func(t *testing.T, msg *Message) {
				if msg.AltitudeFt == nil || *msg.AltitudeFt != 38000 {
					t.Errorf("AltitudeFt = %v, want 38000", msg.AltitudeFt)
				}
			},
		},
		{
			name:   "non-numeric transmission type is absent",
			raw:    "MSG,x,111,11111,ABC123,111111,,,,,,,,,,,,,,,,",
			wantOK: true,
			check: func(t *testing.T, msg *Message) {
				if msg.TransmissionType != nil {
					t.Errorf("TransmissionType = %v, want nil", *msg.TransmissionType)
				}
			},
		},
		{
			name:   "flag value other than 0 or 1 is absent",
			raw:    "MSG,3,111,11111,ABC123,111111,,,,,,,,,,,,,-1,1,x,0",
			wantOK: true,
			check: func(t *testing.T, msg *Message) {
				if msg.Alert != nil {
					t.Errorf("Alert = %v, want nil", *msg.Alert)
				}
				if msg.Emergency == nil || !*msg.Emergency {
					t.Errorf("Emergency = %v, want true", msg.Emergency)
				}
				if msg.SPI != nil {
					t.Errorf("SPI = %v, want nil", *msg.SPI)
				}
				if msg.OnGround == nil || *msg.OnGround {
					t.Errorf("OnGround = %v, want false", msg.OnGround)
				}
			},
		},
		{
			name:   "non-MSG record type",
			raw:    "SEL,foo,bar,baz,qux",
			wantOK: false,
		},
		{
			name:   "empty line",
			raw:    "",
			wantOK: false,
		},
		{
			name:   "too few fields",
			raw:    "MSG,3,111",
			wantOK: false,
		},
		{
			name:   "missing hex ident",
			raw:    "MSG,3,111,11111,,111111",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := Parse(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("Parse() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				if msg != nil {
					t.Error("Parse() returned a message with ok=false")
				}
				return
			}
			if tt.check != nil {
				tt.check(t, msg)
			}
		})
	}
}

func TestParseSquawkKeepsLeadingZeros(t *testing.T) {
	msg, ok := Parse("MSG,3,111,11111,ABC123,111111,,,,,,38000,,,45.63,8.936,,0421,0,0,0,0")
	if !ok {
		t.Fatal("Parse() failed")
	}
	if msg.Squawk == nil || *msg.Squawk != "0421" {
		t.Errorf("Squawk = %v, want 0421", msg.Squawk)
	}
}
