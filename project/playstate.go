package project

// ScheduleOp names what a scheduled action does when it's drained at a bar
// line (spec.md §4.6).
type ScheduleOp uint8

const (
	ScheduleSetPattern ScheduleOp = iota
	ScheduleSetMute
	ScheduleSetSolo
)

// ScheduledAction is one `(when, track, op)` tuple recorded by the play
// state and applied at the next bar boundary or quantization point
// (spec.md §4.6). MaxScheduled bounds the queue per spec.md §5's "fixed
// capacity, no heap allocation after construction"; spec.md §7's Overflow
// error drops the oldest entry when it's exceeded.
const MaxScheduled = 32

type ScheduledAction struct {
	WhenMeasure int
	Track       int
	Op          ScheduleOp
	Value       int // pattern index, or 0/1 for mute/solo
}

// TrackPlayState is the per-track half of spec.md §4.6: mute/solo/pattern
// selection plus the fields a pending change is staged into until it's
// applied at a bar line.
type TrackPlayState struct {
	Mute    bool
	Solo    bool
	Fill    bool
	Pattern int

	PendingPattern int // -1 if none pending
	PendingMute    int // -1 none, 0 clear, 1 set
	PendingSolo    int // -1 none, 0 clear, 1 set
}

func newTrackPlayState() TrackPlayState {
	return TrackPlayState{PendingPattern: -1, PendingMute: -1, PendingSolo: -1}
}

// PlayState is the transport-wide state of spec.md §4.6: running/idle,
// measure/tick position, fill latch, and the per-track states plus the
// scheduled-action queue that bar-line processing drains.
type PlayState struct {
	Running        bool
	Measure        int
	TickInMeasure  int
	FillLatched    bool
	FillAmount     int // 0-100

	FollowPattern bool
	FollowPage    bool
	FollowTrack   bool

	Tracks [TrackCount]TrackPlayState

	Scheduled     []ScheduledAction
	OverflowCount int // incremented each time Overflow drops an action (spec.md §7)
}

// NewPlayState returns an idle play state with every track's pending
// fields cleared.
func NewPlayState() *PlayState {
	ps := &PlayState{FillAmount: 0}
	for i := range ps.Tracks {
		ps.Tracks[i] = newTrackPlayState()
	}
	return ps
}

func (ps *PlayState) SetFillAmount(v int) { ps.FillAmount = clampInt(v, 0, 100) }

// Schedule enqueues a pending change, dropping the oldest entry and
// incrementing OverflowCount if the queue is already at MaxScheduled
// (spec.md §7's Overflow handling: "oldest action is dropped; a UI status
// flag is set").
func (ps *PlayState) Schedule(a ScheduledAction) {
	if len(ps.Scheduled) >= MaxScheduled {
		ps.Scheduled = ps.Scheduled[1:]
		ps.OverflowCount++
	}
	ps.Scheduled = append(ps.Scheduled, a)
}

// CancelPending clears every scheduled action and per-track pending field
// (spec.md §4.6's cancelPending).
func (ps *PlayState) CancelPending() {
	ps.Scheduled = ps.Scheduled[:0]
	for i := range ps.Tracks {
		ps.Tracks[i].PendingPattern = -1
		ps.Tracks[i].PendingMute = -1
		ps.Tracks[i].PendingSolo = -1
	}
}

// DrainAtBarLine applies every scheduled action whose WhenMeasure has
// arrived, in FIFO order, and clears each track's staged pending fields
// once applied (spec.md §4.6: "drained at each bar line").
func (ps *PlayState) DrainAtBarLine(measure int) {
	remaining := ps.Scheduled[:0]
	for _, a := range ps.Scheduled {
		if a.WhenMeasure > measure {
			remaining = append(remaining, a)
			continue
		}
		t := &ps.Tracks[a.Track]
		switch a.Op {
		case ScheduleSetPattern:
			t.Pattern = clampInt(a.Value, 0, SequenceCount-1)
			t.PendingPattern = -1
		case ScheduleSetMute:
			t.Mute = a.Value != 0
			t.PendingMute = -1
		case ScheduleSetSolo:
			t.Solo = a.Value != 0
			t.PendingSolo = -1
		}
	}
	ps.Scheduled = remaining
}
