package nats

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/saviobatista/adsb-relay/internal/event"
)

func TestNew_Unit_URLs(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "unreachable host", url: "nats://localhost:59999"},
		{name: "invalid URL", url: "not-a-url"},
		{name: "empty URL", url: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.url)
			if err == nil {
				client.Close()
				t.Error("Expected error without a reachable server")
			}
		})
	}
}

func TestClient_Close_Unit_NilSafety(t *testing.T) {
	client := &Client{}
	client.Close() // must not panic with a nil connection
}

func TestSubjectPositions_Unit_Constant(t *testing.T) {
	if SubjectPositions != "adsb.position.v1" {
		t.Errorf("Expected subject adsb.position.v1, got %q", SubjectPositions)
	}
}

func TestEventSerialization_Unit_RoundTrip(t *testing.T) {
	callsign := "EWG4TV"
	alt := 38000
	onGround := false
	ev := &event.Event{
		EventType: event.Type,
		Source:    "LIN_FEED_1",
		TSUnixMs:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC).UnixMilli(),
		Aircraft: event.Aircraft{
			ICAOHex:  "3C5EF2",
			Callsign: &callsign,
		},
		Position: event.Position{
			Lat:        45.630,
			Lon:        8.936,
			AltitudeFt: &alt,
		},
		Codes: event.Codes{OnGround: &onGround},
	}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Failed to marshal event: %v", err)
	}

	var decoded event.Event
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal event: %v", err)
	}

	if decoded.EventType != event.Type {
		t.Errorf("Expected event type %q, got %q", event.Type, decoded.EventType)
	}
	if decoded.Aircraft.ICAOHex != "3C5EF2" {
		t.Errorf("Expected hex 3C5EF2, got %q", decoded.Aircraft.ICAOHex)
	}
	if decoded.Position.Lat != 45.630 || decoded.Position.Lon != 8.936 {
		t.Errorf("Unexpected position: %+v", decoded.Position)
	}
	if decoded.Codes.OnGround == nil || *decoded.Codes.OnGround {
		t.Errorf("Expected onGround false to survive, got %v", decoded.Codes.OnGround)
	}
	if decoded.Position.GroundSpeedKts != nil {
		t.Error("Expected absent speed to stay nil")
	}
}
