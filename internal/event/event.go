// Package event builds the canonical position event handed to every
// sink. Optional fields are pointers marked omitempty so null values
// are dropped from the JSON while explicit false/zero survive.
package event

import (
	"fmt"
	"time"

	"github.com/saviobatista/adsb-relay/internal/tracker"
)

// Type identifies the event schema on the wire.
const Type = "adsb.position.v1"

// Aircraft is the identity and metadata block.
type Aircraft struct {
	ICAOHex       string  `json:"icaoHex"`
	Callsign      *string `json:"callsign,omitempty"`
	Registration  *string `json:"registration,omitempty"`
	ICAOType      *string `json:"icaoType,omitempty"`
	Model         *string `json:"model,omitempty"`
	IsMilitary    *bool   `json:"isMilitary,omitempty"`
	IsInteresting *bool   `json:"isInteresting,omitempty"`
	IsPIA         *bool   `json:"isPIA,omitempty"`
	IsLADD        *bool   `json:"isLADD,omitempty"`
}

// Position is the kinematics block. Lat and lon are always present.
type Position struct {
	Lat             float64  `json:"lat"`
	Lon             float64  `json:"lon"`
	AltitudeFt      *int     `json:"altitudeFt,omitempty"`
	GroundSpeedKts  *float64 `json:"groundSpeedKts,omitempty"`
	TrackDeg        *float64 `json:"trackDeg,omitempty"`
	VerticalRateFpm *int     `json:"verticalRateFpm,omitempty"`
}

// Codes is the transponder status block.
type Codes struct {
	Squawk    *string `json:"squawk,omitempty"`
	Alert     *bool   `json:"alert,omitempty"`
	Emergency *bool   `json:"emergency,omitempty"`
	SPI       *bool   `json:"spi,omitempty"`
	OnGround  *bool   `json:"onGround,omitempty"`
}

// Raw is the provenance block.
type Raw struct {
	SBS              *string `json:"sbs,omitempty"`
	MessageType      *string `json:"messageType,omitempty"`
	TransmissionType *int    `json:"transmissionType,omitempty"`
}

// Event is the sink-agnostic position record.
type Event struct {
	EventType string   `json:"eventType"`
	Source    string   `json:"source"`
	TSUnixMs  int64    `json:"tsUnixMs"`
	Aircraft  Aircraft `json:"aircraft"`
	Position  Position `json:"position"`
	Codes     Codes    `json:"codes"`
	Raw       Raw      `json:"raw"`
}

// Provenance carries the raw line and SBS type tags into the event's
// raw block. Zero values are omitted.
type Provenance struct {
	RawLine          string
	MessageType      string
	TransmissionType *int
}

// Build creates an Event from an aircraft state. It fails when the
// state has no position: callers must only build events for states
// that already produced a snapshot. tsMs overrides the event
// timestamp when positive; otherwise the current time is used.
func Build(state *tracker.State, source string, prov *Provenance, tsMs int64) (*Event, error) {
	if state.Lat == nil || state.Lon == nil {
		return nil, fmt.Errorf("cannot build position event for %s without lat/lon", state.HexIdent)
	}

	if tsMs <= 0 {
		tsMs = time.Now().UnixMilli()
	}

	ev := &Event{
		EventType: Type,
		Source:    source,
		TSUnixMs:  tsMs,
		Aircraft: Aircraft{
			ICAOHex:       state.HexIdent,
			Registration:  state.Registration,
			ICAOType:      state.ICAOType,
			Model:         state.Model,
			IsMilitary:    state.IsMilitary,
			IsInteresting: state.IsInteresting,
			IsPIA:         state.IsPIA,
			IsLADD:        state.IsLADD,
		},
		Position: Position{
			Lat:             *state.Lat,
			Lon:             *state.Lon,
			AltitudeFt:      state.AltitudeFt,
			GroundSpeedKts:  state.SpeedKts,
			TrackDeg:        state.HeadingDeg,
			VerticalRateFpm: state.VerticalRate,
		},
		Codes: Codes{
			Squawk:    state.Squawk,
			Alert:     state.Alert,
			Emergency: state.Emergency,
			SPI:       state.SPI,
			OnGround:  state.OnGround,
		},
	}

	if state.Callsign != "" {
		callsign := state.Callsign
		ev.Aircraft.Callsign = &callsign
	}

	if prov != nil {
		if prov.RawLine != "" {
			raw := prov.RawLine
			ev.Raw.SBS = &raw
		}
		if prov.MessageType != "" {
			mt := prov.MessageType
			ev.Raw.MessageType = &mt
		}
		ev.Raw.TransmissionType = prov.TransmissionType
	}

	return ev, nil
}
