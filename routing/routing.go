package routing

// SourceType identifies where a routed value comes from.
type SourceType int

const (
	SourceNone SourceType = iota
	SourceCV             // a physical CV input channel
	SourceMIDICC
	SourceTrackCV // another track's computed CV output
	SourceConstant
)

// Source names one routing input: a CV channel index, a (channel,
// controller) MIDI CC pair, another track's index, or a constant.
type Source struct {
	Type       SourceType
	Channel    int // CV channel, or MIDI channel for SourceMIDICC
	Controller int // MIDI CC number, valid only for SourceMIDICC
	TrackIndex int // valid only for SourceTrackCV
	Constant   float64
}

// TargetKind identifies which family of parameter a routing entry drives.
type TargetKind int

const (
	TargetTrackSlideTime TargetKind = iota
	TargetTrackOctave
	TargetTrackTranspose
	TargetTrackRotate
	TargetCurveMin
	TargetCurveMax
	TargetCurveOffset
)

// Target names one routable destination on the project: a track index plus
// which parameter family on that track.
type Target struct {
	TrackIndex int
	Kind       TargetKind
}

// Entry is one row of the project's routing table: a source feeding a
// target, evaluated once per tick at the top of engine processing
// (spec.md §4.5).
type Entry struct {
	Source Source
	Target Target
	Min    float64 // maps the source's raw [0,1] range onto [Min,Max]
	Max    float64
}

// Table is the project's routing table. Entries is an ordinary slice with
// no capacity bound, and each Resolve call allocates a new Snapshot map.
type Table struct {
	Entries []Entry
}

// Snapshot is the resolved value of every entry for the current tick,
// computed once at the top of engine processing and passed by value into
// each track's evaluation — this is the "effective routing snapshot" of
// spec.md §9, avoiding back-pointers from parameters into the table.
type Snapshot map[Target]float64

// Resolve reads each entry's source (via the supplied lookup callbacks) and
// produces a Snapshot. cv/cc/trackCV report the current raw value in
// [0,1]; Resolve maps it onto the entry's [Min,Max] before storing it.
func (t *Table) Resolve(cv func(channel int) float64, cc func(channel, controller int) float64, trackCV func(track int) float64) Snapshot {
	snap := make(Snapshot, len(t.Entries))
	for _, e := range t.Entries {
		var raw float64
		switch e.Source.Type {
		case SourceCV:
			raw = cv(e.Source.Channel)
		case SourceMIDICC:
			raw = cc(e.Source.Channel, e.Source.Controller)
		case SourceTrackCV:
			raw = trackCV(e.Source.TrackIndex)
		case SourceConstant:
			snap[e.Target] = e.Source.Constant
			continue
		default:
			continue
		}
		snap[e.Target] = e.Min + raw*(e.Max-e.Min)
	}
	return snap
}

// Value returns the routed value for target, or (0, false) if nothing
// routes to it this tick.
func (s Snapshot) Value(t Target) (float64, bool) {
	v, ok := s[t]
	return v, ok
}
