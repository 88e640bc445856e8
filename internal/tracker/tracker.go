package tracker

import (
	"sort"
	"time"

	"github.com/saviobatista/adsb-relay/internal/sbs"
)

// AircraftInfo is static reference metadata for an airframe.
type AircraftInfo struct {
	Registration  string
	ICAOType      string
	Model         string
	IsMilitary    *bool
	IsInteresting *bool
	IsPIA         *bool
	IsLADD        *bool
}

// Lookup resolves static metadata for an ICAO hex ident. Returning
// (nil, nil) means the aircraft is unknown; errors are tolerated by
// the tracker and never fatal. Implementations must be safe for
// concurrent use when shared across feeds.
type Lookup interface {
	Lookup(hexIdent string) (*AircraftInfo, error)
}

// State holds the latest known data for a single aircraft, merged
// across all messages seen so far. Fields are nil until a message
// carries them.
type State struct {
	HexIdent      string
	Callsign      string
	Registration  *string
	ICAOType      *string
	Model         *string
	IsMilitary    *bool
	IsInteresting *bool
	IsPIA         *bool
	IsLADD        *bool
	Lat           *float64
	Lon           *float64
	AltitudeFt    *int
	SpeedKts      *float64
	HeadingDeg    *float64
	VerticalRate  *int
	Squawk        *string
	Alert         *bool
	Emergency     *bool
	SPI           *bool
	OnGround      *bool
	LastUpdate    time.Time
}

// Snapshot is a read-only, position-bearing projection of a State.
// Lat and Lon are always set; everything else mirrors the state at
// the moment it was taken.
type Snapshot struct {
	HexIdent     string
	Flight       string
	Lat          float64
	Lon          float64
	AltitudeFt   *int
	SpeedKts     *float64
	HeadingDeg   *float64
	VerticalRate *int
	Squawk       *string
	Alert        *bool
	Emergency    *bool
	SPI          *bool
	OnGround     *bool
	Time         time.Time
}

// Tracker merges partial SBS messages into per-aircraft states. It is
// owned by a single feed's read loop: methods are not safe for
// concurrent callers, and readers from other goroutines must go
// through the copying accessors.
type Tracker struct {
	lookup Lookup
	states map[string]*State
	now    func() time.Time
}

// New creates a Tracker. lookup may be nil to disable enrichment.
func New(lookup Lookup) *Tracker {
	return &Tracker{
		lookup: lookup,
		states: make(map[string]*State),
		now:    time.Now,
	}
}

// enrich applies static aircraft metadata to a freshly created state.
// Lookup failures and misses are swallowed: enrichment is attempted
// once per aircraft and never blocks tracking.
func (t *Tracker) enrich(state *State) {
	if t.lookup == nil {
		return
	}
	info, err := t.lookup.Lookup(state.HexIdent)
	if err != nil || info == nil {
		return
	}
	if info.Registration != "" {
		reg := info.Registration
		state.Registration = &reg
	}
	if info.ICAOType != "" {
		typ := info.ICAOType
		state.ICAOType = &typ
	}
	if info.Model != "" {
		model := info.Model
		state.Model = &model
	}
	state.IsMilitary = copyBool(info.IsMilitary)
	state.IsInteresting = copyBool(info.IsInteresting)
	state.IsPIA = copyBool(info.IsPIA)
	state.IsLADD = copyBool(info.IsLADD)
}

// Update merges msg into the aircraft's state and returns a snapshot
// if the merged state has a position, plus whether the snapshot also
// carries full kinematics (speed and heading). Fields absent from the
// message never clear previously known values.
func (t *Tracker) Update(msg *sbs.Message) (*Snapshot, bool) {
	state, ok := t.states[msg.HexIdent]
	if !ok {
		state = &State{HexIdent: msg.HexIdent}
		t.enrich(state)
		t.states[msg.HexIdent] = state
	}

	if msg.Callsign != nil {
		state.Callsign = *msg.Callsign
	}
	if msg.Lat != nil {
		state.Lat = copyFloat(msg.Lat)
	}
	if msg.Lon != nil {
		state.Lon = copyFloat(msg.Lon)
	}
	if msg.AltitudeFt != nil {
		state.AltitudeFt = copyInt(msg.AltitudeFt)
	}
	if msg.GroundSpeedKts != nil {
		state.SpeedKts = copyFloat(msg.GroundSpeedKts)
	}
	if msg.TrackDeg != nil {
		state.HeadingDeg = copyFloat(msg.TrackDeg)
	}
	if msg.VerticalRateFpm != nil {
		state.VerticalRate = copyInt(msg.VerticalRateFpm)
	}
	if msg.Squawk != nil && *msg.Squawk != "" {
		squawk := *msg.Squawk
		state.Squawk = &squawk
	}
	if msg.Alert != nil {
		state.Alert = copyBool(msg.Alert)
	}
	if msg.Emergency != nil {
		state.Emergency = copyBool(msg.Emergency)
	}
	if msg.SPI != nil {
		state.SPI = copyBool(msg.SPI)
	}
	if msg.OnGround != nil {
		state.OnGround = copyBool(msg.OnGround)
	}
	state.LastUpdate = t.now()

	snap := state.snapshot()
	hasFullKinematics := snap != nil && state.SpeedKts != nil && state.HeadingDeg != nil
	return snap, hasFullKinematics
}

// snapshot projects the state into a Snapshot, or nil without a position.
func (s *State) snapshot() *Snapshot {
	if s.Lat == nil || s.Lon == nil {
		return nil
	}
	return &Snapshot{
		HexIdent:     s.HexIdent,
		Flight:       s.Callsign,
		Lat:          *s.Lat,
		Lon:          *s.Lon,
		AltitudeFt:   copyInt(s.AltitudeFt),
		SpeedKts:     copyFloat(s.SpeedKts),
		HeadingDeg:   copyFloat(s.HeadingDeg),
		VerticalRate: copyInt(s.VerticalRate),
		Squawk:       copyString(s.Squawk),
		Alert:        copyBool(s.Alert),
		Emergency:    copyBool(s.Emergency),
		SPI:          copyBool(s.SPI),
		OnGround:     copyBool(s.OnGround),
		Time:         s.LastUpdate,
	}
}

// State returns a copy of the tracked state for a hex ident, or nil
// if the aircraft has not been seen.
func (t *Tracker) State(hexIdent string) *State {
	state, ok := t.states[hexIdent]
	if !ok {
		return nil
	}
	cp := *state
	cp.Registration = copyString(state.Registration)
	cp.ICAOType = copyString(state.ICAOType)
	cp.Model = copyString(state.Model)
	cp.IsMilitary = copyBool(state.IsMilitary)
	cp.IsInteresting = copyBool(state.IsInteresting)
	cp.IsPIA = copyBool(state.IsPIA)
	cp.IsLADD = copyBool(state.IsLADD)
	cp.Lat = copyFloat(state.Lat)
	cp.Lon = copyFloat(state.Lon)
	cp.AltitudeFt = copyInt(state.AltitudeFt)
	cp.SpeedKts = copyFloat(state.SpeedKts)
	cp.HeadingDeg = copyFloat(state.HeadingDeg)
	cp.VerticalRate = copyInt(state.VerticalRate)
	cp.Squawk = copyString(state.Squawk)
	cp.Alert = copyBool(state.Alert)
	cp.Emergency = copyBool(state.Emergency)
	cp.SPI = copyBool(state.SPI)
	cp.OnGround = copyBool(state.OnGround)
	return &cp
}

// Len returns the number of tracked aircraft.
func (t *Tracker) Len() int {
	return len(t.states)
}

// CurrentPositions returns snapshots for every aircraft with a known
// position, sorted by hex ident for stable output.
func (t *Tracker) CurrentPositions() []Snapshot {
	snapshots := make([]Snapshot, 0, len(t.states))
	for _, state := range t.states {
		if snap := state.snapshot(); snap != nil {
			snapshots = append(snapshots, *snap)
		}
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].HexIdent < snapshots[j].HexIdent
	})
	return snapshots
}

func copyBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
