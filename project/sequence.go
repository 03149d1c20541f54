package project

// RunMode is a sequence's step-cursor traversal order (spec.md §3, §4.5.2).
type RunMode uint8

const (
	RunForward RunMode = iota
	RunBackward
	RunPingPong
	RunRandom
	RunRandomWalk
)

// StochasticExtra holds the Stochastic-variant additions to a Sequence
// (spec.md §3; rest-probability/loop/octave-range fields resolved by
// SPEC_FULL.md §4.11 from StochasticSequence_structure.h).
type StochasticExtra struct {
	RestProbability2  int // percent, applied every 2nd step
	RestProbability4  int
	RestProbability8  int
	RestProbability15 int
	LoopFirst         int
	LoopLast          int
	OctaveRangeLow    int
	OctaveRangeHigh   int
	Seed              uint32 // stored seed, persisted with the sequence; the engine does not read it
}

// LogicExtra holds the Logic-variant additions: input-track references and
// per-step gate/note operators live on the Step itself (spec.md §3).
type LogicExtra struct {
	InputA int // track index, spec.md §4.5 "input-track references A and B"
	InputB int // -1 if absent: pass-through semantics (spec.md §4.5)
}

// ArpMode is the arpeggiator traversal direction (spec.md §4.5 Arp track).
type ArpMode uint8

const (
	ArpUp ArpMode = iota
	ArpDown
	ArpUpDown
	ArpRandom
	ArpAsPlayed
)

// ArpExtra embeds the arpeggiator settings of an Arp-variant Sequence
// (spec.md §3/§4.5).
type ArpExtra struct {
	Mode          ArpMode
	OctaveRange   int // number of octaves traversed; values below 1 act as 1
	Divisions     int // steps per arp step (Divisions × ClockDivisor ticks); values below 1 act as 1
	MidiKeyboard  bool
}

// CurveExtra holds the Curve-variant CV shaping bounds (spec.md §3's
// "for Curve sequences, min ≤ max" invariant; trigger-shape and
// note-filter resolved by SPEC_FULL.md §4.11).
type CurveExtra struct {
	Min, Max      float64 // volts; SetMin/SetMax drag the other bound
	Offset        float64 // applied after the curve calculation, clamp [-5,5]
	Shape         CurveShape
	NoteFilterMin int
	NoteFilterMax int
	NoteFilterTrack int // source track for the optional note filter, -1 = disabled
}

// CurveShape selects the interpolation function applied across a step's
// phase (spec.md §4.5 Curve track: "v = shape(phase)").
type CurveShape uint8

const (
	CurveRamp CurveShape = iota
	CurveRampDown
	CurveTriangle
	CurveSine
	CurveHold
	CurveRandomStep
)

// Sequence is one pattern slot of a Track: scale/root/divisor/run-mode
// common to every variant, the Step array, and the variant-specific
// extension named by spec.md §3. NewSequence allocates at most one of the
// Extra pointers, matching the owning Track's Variant (none for Note and
// MidiCv).
type Sequence struct {
	ScaleIndex    int
	RootNote      int // MIDI note number, clamp [0,127]
	ClockDivisor  int // ticks per step, clamp [1,192]
	RunMode       RunMode
	FirstStep     int
	LastStep      int
	ResetMeasure  int // bars between forced cursor reset, 0 = never

	// Note/Stochastic/Logic/Arp steps use the wide packed record; Curve/
	// MidiCv use the narrower one (spec.md §3). Only the array matching
	// the variant is meaningful.
	Steps      [StepCount]Step
	CurveSteps [StepCount]CurveStep

	Stochastic *StochasticExtra
	Logic      *LogicExtra
	Arp        *ArpExtra
	Curve      *CurveExtra

	walkPos int // random-walk cursor state, not persisted
}

// NewSequence builds a zeroed sequence with sensible defaults and the
// variant-specific extra allocated for variant.
func NewSequence(variant Variant) Sequence {
	s := Sequence{
		ClockDivisor: 24,
		LastStep:     StepCount - 1,
	}
	switch variant {
	case VariantStochastic:
		s.Stochastic = &StochasticExtra{LoopLast: StepCount - 1, Seed: 1}
	case VariantLogic:
		s.Logic = &LogicExtra{InputA: 0, InputB: -1}
	case VariantArp:
		s.Arp = &ArpExtra{OctaveRange: 1, Divisions: 1}
	case VariantCurve, VariantMidiCv:
		if variant == VariantCurve {
			s.Curve = &CurveExtra{Min: 0, Max: 5, NoteFilterMax: 127, NoteFilterTrack: -1}
		}
	}
	return s
}

// SetRootNote clamps to the MIDI range.
func (s *Sequence) SetRootNote(n int) { s.RootNote = clampInt(n, 0, 127) }

// SetClockDivisor clamps to spec.md §3's [1,192].
func (s *Sequence) SetClockDivisor(d int) { s.ClockDivisor = clampInt(d, 1, 192) }

// SetFirstStep and SetLastStep maintain firstStep <= lastStep < S
// (spec.md §3's invariant), dragging the other bound as needed.
func (s *Sequence) SetFirstStep(i int) {
	i = clampInt(i, 0, StepCount-1)
	s.FirstStep = i
	if s.LastStep < i {
		s.LastStep = i
	}
}

func (s *Sequence) SetLastStep(i int) {
	i = clampInt(i, 0, StepCount-1)
	s.LastStep = i
	if s.FirstStep > i {
		s.FirstStep = i
	}
}

// SetMin/SetMax on the Curve extra: assigning one past the other drags it
// along, per spec.md §3's Curve invariant ("assigning one past the other
// drags the other along") and SPEC_FULL.md §4.11's offset-after-curve note.
func (s *Sequence) SetCurveMin(v float64) {
	if s.Curve == nil {
		return
	}
	if v > s.Curve.Max {
		s.Curve.Max = v
	}
	s.Curve.Min = v
}

func (s *Sequence) SetCurveMax(v float64) {
	if s.Curve == nil {
		return
	}
	if v < s.Curve.Min {
		s.Curve.Min = v
	}
	s.Curve.Max = v
}

func (s *Sequence) SetCurveOffset(v float64) {
	if s.Curve == nil {
		return
	}
	s.Curve.Offset = clampFloat(v, -5, 5)
}

// SetLoopFirst and SetLoopLast on the Stochastic extra maintain loopFirst <= loopLast
// (spec.md §3).
func (s *Sequence) SetLoopFirst(i int) {
	if s.Stochastic == nil {
		return
	}
	i = clampInt(i, 0, StepCount-1)
	s.Stochastic.LoopFirst = i
	if s.Stochastic.LoopLast < i {
		s.Stochastic.LoopLast = i
	}
}

func (s *Sequence) SetLoopLast(i int) {
	if s.Stochastic == nil {
		return
	}
	i = clampInt(i, 0, StepCount-1)
	s.Stochastic.LoopLast = i
	if s.Stochastic.LoopFirst > i {
		s.Stochastic.LoopFirst = i
	}
}

func (s *Sequence) SetOctaveRange(lo, hi int) {
	if s.Stochastic == nil {
		return
	}
	s.Stochastic.OctaveRangeLow = clampInt(lo, -5, 5)
	s.Stochastic.OctaveRangeHigh = clampInt(hi, -5, 5)
	if s.Stochastic.OctaveRangeHigh < s.Stochastic.OctaveRangeLow {
		s.Stochastic.OctaveRangeHigh = s.Stochastic.OctaveRangeLow
	}
}

func (s *Sequence) SetRestProbability(interval, pct int) {
	if s.Stochastic == nil {
		return
	}
	pct = clampInt(pct, 0, 100)
	switch interval {
	case 2:
		s.Stochastic.RestProbability2 = pct
	case 4:
		s.Stochastic.RestProbability4 = pct
	case 8:
		s.Stochastic.RestProbability8 = pct
	case 15:
		s.Stochastic.RestProbability15 = pct
	}
}

// Clear resets every step to its zero value, keeping variant-extra
// allocation (spec.md §4.2's Pattern data model "clear" operation).
func (s *Sequence) Clear() {
	s.Steps = [StepCount]Step{}
	s.CurveSteps = [StepCount]CurveStep{}
	s.FirstStep = 0
	s.LastStep = StepCount - 1
}

// CopyFrom overwrites the receiver's step data and common fields from src,
// preserving the receiver's own variant-extra pointer identity (spec.md
// §4.2 "copy").
func (s *Sequence) CopyFrom(src *Sequence) {
	s.ScaleIndex = src.ScaleIndex
	s.RootNote = src.RootNote
	s.ClockDivisor = src.ClockDivisor
	s.RunMode = src.RunMode
	s.FirstStep = src.FirstStep
	s.LastStep = src.LastStep
	s.ResetMeasure = src.ResetMeasure
	s.Steps = src.Steps
	s.CurveSteps = src.CurveSteps
	if s.Stochastic != nil && src.Stochastic != nil {
		*s.Stochastic = *src.Stochastic
	}
	if s.Logic != nil && src.Logic != nil {
		*s.Logic = *src.Logic
	}
	if s.Arp != nil && src.Arp != nil {
		*s.Arp = *src.Arp
	}
	if s.Curve != nil && src.Curve != nil {
		*s.Curve = *src.Curve
	}
}

// NextStepIndex advances cur according to mode, wrapping within
// [first,last] (spec.md §4.5 point 2). rand01 returns a uniform sample in
// [0,1) for Random/RandomWalk modes, supplied by the caller so the engine
// controls determinism.
func (s *Sequence) NextStepIndex(cur int, dir int, rand01 func() float64) (next int, newDir int) {
	first, last := s.FirstStep, s.LastStep
	if last < first {
		first, last = last, first
	}
	span := last - first + 1
	if span <= 0 {
		return first, dir
	}
	switch s.RunMode {
	case RunForward:
		next = cur + 1
		if next > last {
			next = first
		}
		return next, 1
	case RunBackward:
		next = cur - 1
		if next < first {
			next = last
		}
		return next, -1
	case RunPingPong:
		if dir == 0 {
			dir = 1
		}
		next = cur + dir
		if next > last {
			dir = -1
			next = cur + dir
			if next < first {
				next = first
			}
		} else if next < first {
			dir = 1
			next = cur + dir
			if next > last {
				next = last
			}
		}
		return next, dir
	case RunRandom:
		next = first + int(rand01()*float64(span))
		if next > last {
			next = last
		}
		return next, dir
	case RunRandomWalk:
		if rand01() < 0.5 {
			next = cur - 1
		} else {
			next = cur + 1
		}
		if next < first {
			next = first + 1
			if next > last {
				next = first
			}
		}
		if next > last {
			next = last - 1
			if next < first {
				next = last
			}
		}
		return next, dir
	default:
		next = cur + 1
		if next > last {
			next = first
		}
		return next, dir
	}
}
