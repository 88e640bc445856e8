package sbs

import (
	"strconv"
	"strings"
)

// SBS-1 field indexes, after splitting on commas.
const (
	fieldMessageType      = 0
	fieldTransmissionType = 1
	fieldHexIdent         = 4
	fieldCallsign         = 10
	fieldAltitude         = 11
	fieldGroundSpeed      = 12
	fieldTrack            = 13
	fieldLatitude         = 14
	fieldLongitude        = 15
	fieldVerticalRate     = 16
	fieldSquawk           = 17
	fieldAlert            = 18
	fieldEmergency        = 19
	fieldSPI              = 20
	fieldOnGround         = 21
)

// Message is a single decoded SBS-1/BaseStation line. Optional fields
// are nil when the source line did not carry a usable value, so a
// missing field is distinguishable from an explicit zero or false.
type Message struct {
	Raw              string
	MessageType      string
	TransmissionType *int
	HexIdent         string
	Callsign         *string
	Lat              *float64
	Lon              *float64
	AltitudeFt       *int
	GroundSpeedKts   *float64
	TrackDeg         *float64
	VerticalRateFpm  *int
	Squawk           *string
	Alert            *bool
	Emergency        *bool
	SPI              *bool
	OnGround         *bool
}

// HasPosition reports whether the message carries a validated lat/lon pair.
func (m *Message) HasPosition() bool {
	return m.Lat != nil && m.Lon != nil
}

// parseFlag converts SBS flag fields (0/1) to booleans. Anything else
// is treated as absent.
func parseFlag(value string) *bool {
	switch strings.TrimSpace(value) {
	case "1":
		b := true
		return &b
	case "0":
		b := false
		return &b
	}
	return nil
}

// Parse decodes a single SBS-1 line. It returns (nil, false) when the
// line is not usable: empty input, a non-MSG record type, or a missing
// hex ident. Individual fields that fail to parse are dropped without
// discarding the rest of the line, so Parse never returns an error for
// malformed input.
func Parse(line string) (*Message, bool) {
	raw := strings.TrimSpace(line)
	if raw == "" {
		return nil, false
	}

	fields := strings.Split(raw, ",")
	if len(fields) < 5 {
		return nil, false
	}

	messageType := strings.TrimSpace(fields[fieldMessageType])
	if messageType != "MSG" {
		return nil, false
	}

	hexIdent := strings.ToUpper(strings.TrimSpace(fields[fieldHexIdent]))
	if hexIdent == "" {
		return nil, false
	}

	msg := &Message{
		Raw:         raw,
		MessageType: messageType,
		HexIdent:    hexIdent,
	}

	if v := strings.TrimSpace(fields[fieldTransmissionType]); v != "" {
		if tt, err := strconv.Atoi(v); err == nil {
			msg.TransmissionType = &tt
		}
	}

	if len(fields) > fieldCallsign {
		if v := strings.TrimSpace(fields[fieldCallsign]); v != "" {
			msg.Callsign = &v
		}
	}

	if len(fields) > fieldAltitude {
		if v := strings.TrimSpace(fields[fieldAltitude]); v != "" {
			if alt, err := strconv.ParseFloat(v, 64); err == nil {
				a := int(alt)
				msg.AltitudeFt = &a
			}
		}
	}

	if len(fields) > fieldGroundSpeed {
		if v := strings.TrimSpace(fields[fieldGroundSpeed]); v != "" {
			if speed, err := strconv.ParseFloat(v, 64); err == nil {
				msg.GroundSpeedKts = &speed
			}
		}
	}

	if len(fields) > fieldTrack {
		if v := strings.TrimSpace(fields[fieldTrack]); v != "" {
			if track, err := strconv.ParseFloat(v, 64); err == nil {
				msg.TrackDeg = &track
			}
		}
	}

	// Latitude and longitude are only accepted as a pair: both must be
	// present, parseable, and in range, otherwise neither is set.
	if len(fields) > fieldLongitude {
		latStr := strings.TrimSpace(fields[fieldLatitude])
		lonStr := strings.TrimSpace(fields[fieldLongitude])
		if latStr != "" && lonStr != "" {
			lat, latErr := strconv.ParseFloat(latStr, 64)
			lon, lonErr := strconv.ParseFloat(lonStr, 64)
			if latErr == nil && lonErr == nil && lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 {
				msg.Lat = &lat
				msg.Lon = &lon
			}
		}
	}

	if len(fields) > fieldVerticalRate {
		if v := strings.TrimSpace(fields[fieldVerticalRate]); v != "" {
			if vr, err := strconv.ParseFloat(v, 64); err == nil {
				r := int(vr)
				msg.VerticalRateFpm = &r
			}
		}
	}

	if len(fields) > fieldSquawk {
		if v := strings.TrimSpace(fields[fieldSquawk]); v != "" {
			msg.Squawk = &v
		}
	}

	if len(fields) > fieldAlert {
		msg.Alert = parseFlag(fields[fieldAlert])
	}
	if len(fields) > fieldEmergency {
		msg.Emergency = parseFlag(fields[fieldEmergency])
	}
	if len(fields) > fieldSPI {
		msg.SPI = parseFlag(fields[fieldSPI])
	}
	if len(fields) > fieldOnGround {
		msg.OnGround = parseFlag(fields[fieldOnGround])
	}

	return msg, true
}
