package project

import "seqcore/routing"

// Variant is the stable tag byte of Track's sum type (spec.md §9): the six
// track flavors share a common envelope but diverge in engine evaluation
// and in what each Sequence carries beyond its Step array.
type Variant uint8

const (
	VariantNote Variant = iota
	VariantCurve
	VariantMidiCv
	VariantStochastic
	VariantLogic
	VariantArp
	variantCount
)

func (v Variant) String() string {
	switch v {
	case VariantNote:
		return "Note"
	case VariantCurve:
		return "Curve"
	case VariantMidiCv:
		return "MidiCv"
	case VariantStochastic:
		return "Stochastic"
	case VariantLogic:
		return "Logic"
	case VariantArp:
		return "Arp"
	default:
		return "Unknown"
	}
}

// PlayMode mirrors the Arp track's Free/Aligned distinction
// (SPEC_FULL.md §4.11, ArpTrack_overview.h), exposed on the shared
// envelope since Note/Stochastic tracks also distinguish free-running vs.
// bar-aligned restart on pattern change.
type PlayMode uint8

const (
	PlayFree PlayMode = iota
	PlayAligned
)

// FillMode is the shared fill behavior of spec.md §4.6/§6, grounded in
// SPEC_FULL.md §4.11's StochasticTrack_overview.h / LogicTrack_overview.h.
type FillMode uint8

const (
	FillNone FillMode = iota
	FillGates
	FillNextPattern
	FillConditionOnly
)

// CvUpdateMode controls when a track's CV output is refreshed.
type CvUpdateMode uint8

const (
	CvUpdateOnGate CvUpdateMode = iota
	CvUpdateAlways
)

// biasUnset means "use the step's own probability value unchanged"
// (spec.md §4.5 point 4, generalized to all four biases by SPEC_FULL.md
// §4.11).
const biasUnset = -1

// Track is the tagged-variant envelope of spec.md §3: fields shared by all
// six flavors, plus a fixed array of Sequences (one per pattern slot) that
// carry the variant-specific body. The variant is immutable once set
// within a project; SetVariant clears every sequence of the track
// (spec.md §3's invariant).
type Track struct {
	Index   int
	Name    string
	Variant Variant

	PlayMode     PlayMode
	FillMode     FillMode
	CvUpdateMode CvUpdateMode

	SlideTime routing.Routable[float64] // milliseconds
	Octave    routing.Routable[int]
	Transpose routing.Routable[int]
	Rotate    routing.Routable[int]

	// Probability biases: biasUnset (-1) means "use the step's own
	// value"; otherwise the bias replaces it outright (spec.md §4.5.4).
	GateProbabilityBias      int
	RetriggerProbabilityBias int
	LengthBias               int
	NoteProbabilityBias      int

	Sequences [SequenceCount]Sequence
}

// NewTrack builds an empty track of the given variant with every sequence
// constructed for that variant.
func NewTrack(index int, variant Variant) *Track {
	t := &Track{
		Index:                    index,
		Variant:                  variant,
		SlideTime:                routing.NewRoutable(0.0),
		Octave:                   routing.NewRoutable(0),
		Transpose:                routing.NewRoutable(0),
		Rotate:                   routing.NewRoutable(0),
		GateProbabilityBias:      biasUnset,
		RetriggerProbabilityBias: biasUnset,
		LengthBias:               biasUnset,
		NoteProbabilityBias:      biasUnset,
	}
	for i := range t.Sequences {
		t.Sequences[i] = NewSequence(variant)
	}
	return t
}

// SetVariant switches the track's flavor, clamping biases unaffected but
// clearing every sequence's step data and variant-specific body, per
// spec.md §3: "switching variants clears all sequences of that track."
func (t *Track) SetVariant(v Variant) {
	if v >= variantCount {
		return
	}
	t.Variant = v
	for i := range t.Sequences {
		t.Sequences[i] = NewSequence(v)
	}
}

func clampBias(v, max int) int {
	if v == biasUnset {
		return biasUnset
	}
	return clampInt(v, 0, max)
}

func (t *Track) SetGateProbabilityBias(v int)      { t.GateProbabilityBias = clampBias(v, maxGateProbability) }
func (t *Track) SetRetriggerProbabilityBias(v int) { t.RetriggerProbabilityBias = clampBias(v, maxRetriggerProbability) }
func (t *Track) SetLengthBias(v int)               { t.LengthBias = clampBias(v, maxLength) }
func (t *Track) SetNoteProbabilityBias(v int)       { t.NoteProbabilityBias = clampBias(v, maxNoteVarProbability) }

func (t *Track) SetOctaveLocal(v int)    { t.Octave.SetLocal(clampInt(v, -10, 10)) }
func (t *Track) SetTransposeLocal(v int) { t.Transpose.SetLocal(clampInt(v, -24, 24)) }
func (t *Track) SetRotateLocal(v int)    { t.Rotate.SetLocal(clampInt(v, -StepCount, StepCount)) }
func (t *Track) SetSlideTimeLocal(ms float64) {
	t.SlideTime.SetLocal(clampFloat(ms, 0, 2000))
}
