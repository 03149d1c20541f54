// Package engine implements spec.md §4.5's per-track, per-tick evaluation:
// step cursor advance, condition/probability draws, note/gate/CV
// computation, and dispatch to each track variant's specialised logic.
// Grounded in the tick-driven processing loop of
// _examples/grahamseamans-go-sequence/sequencer/manager.go, generalized
// from that teacher's queue-of-MIDI-events model to spec.md's per-tick
// gate/CV/MIDI outputs.
package engine

import (
	"seqcore/midi"
	"seqcore/project"
	"seqcore/routing"
)

// TrackOutput is what one track produces for a single tick (spec.md §6):
// a gate level, a CV voltage, and zero or more outbound MIDI bytes.
type TrackOutput struct {
	TrackIndex int
	GateEdge   bool // true only on the tick the gate actually changed level
	Gate       bool // current gate level
	CV         float64
	MIDI       []midi.Message
}

// VoltsPerSemitone is the CV scaling spec.md §6 names as the typical
// calibration (1/12 V per semitone).
const VoltsPerSemitone = 1.0 / 12.0

// RoutingInputs supplies the raw [0,1] readings Resolve needs; the engine
// calls this once per tick, before any track evaluates (spec.md §4.5
// point "Routing updates are evaluated once per tick at the top of engine
// processing").
type RoutingInputs struct {
	CV      func(channel int) float64
	CC      func(channel, controller int) float64
	TrackCV func(track int) float64
}

// Engine evaluates one Project's tracks tick by tick. It is the foreground
// "engine evaluation" of spec.md §5: single-threaded, no suspension
// points, bounded time per tick.
type Engine struct {
	Proj *project.Project

	tick   uint64 // absolute tick counter since Start
	tracks [project.TrackCount]trackState

	// fillLoopTick counts ticks-of-loop per track, wrapping every
	// ResetMeasure loops. Condition evaluation does not read it; it uses
	// the per-step occurrence counters in trackState.
	fillLoopTick [project.TrackCount]int

	// prevGates/prevNotes hold every track's output as of the end of the
	// previous tick; PrevGate/PrevNote read these.
	prevGates [project.TrackCount]bool
	prevNotes [project.TrackCount]int
}

// NewEngine returns an engine bound to proj, with every track's runtime
// state freshly initialised (as if the transport had just reset).
func NewEngine(proj *project.Project) *Engine {
	e := &Engine{Proj: proj}
	for i := range e.tracks {
		e.tracks[i] = newTrackState(i)
	}
	return e
}

// Reset returns every track's cursor and queued events to their initial
// state, as spec.md §4.6's transport Reset requires.
func (e *Engine) Reset() {
	e.tick = 0
	for i := range e.tracks {
		e.tracks[i] = newTrackState(i)
	}
	for i := range e.fillLoopTick {
		e.fillLoopTick[i] = 0
	}
}

// Tick advances every running track by one sequencer tick (spec.md §4.5's
// top-level control flow) and returns each track's output for this tick,
// in track-index order — the fixed evaluation order spec.md §4.5/§5
// requires so Logic tracks can read a deterministic previous-tick output
// from any later-indexed dependency.
func (e *Engine) Tick(inputs RoutingInputs) []TrackOutput {
	snapshot := e.Proj.Routing.Resolve(inputs.CV, inputs.CC, inputs.TrackCV)
	e.tick++

	for i := range e.tracks {
		e.prevGates[i] = e.tracks[i].prevGate
		e.prevNotes[i] = e.tracks[i].prevNote
	}

	outputs := make([]TrackOutput, project.TrackCount)
	for i := 0; i < project.TrackCount; i++ {
		outputs[i] = e.tickTrack(i, snapshot)
	}
	return outputs
}

func (e *Engine) tickTrack(i int, snapshot routing.Snapshot) TrackOutput {
	tr := e.Proj.Tracks[i]
	ps := &e.Proj.PlayState.Tracks[i]
	st := &e.tracks[i]

	out := TrackOutput{TrackIndex: i}

	if !e.Proj.PlayState.Running || ps.Mute {
		st.drainDueEvents(e.tick) // keep the queue from growing unbounded even while muted
		return out
	}

	seq := &tr.Sequences[ps.Pattern]

	switch tr.Variant {
	case project.VariantLogic:
		e.evalLogic(tr, seq, st, &out)
	case project.VariantCurve:
		e.evalCurve(tr, seq, st, snapshot, &out)
	case project.VariantMidiCv:
		e.evalMidiCv(tr, seq, st, snapshot, &out)
	case project.VariantArp:
		e.evalArp(tr, seq, st, snapshot, &out)
	default: // Note, Stochastic share the same wide-step evaluation shape
		e.evalStep(tr, seq, st, snapshot, &out)
	}

	st.prevGate = out.Gate
	st.prevNote = st.currentNote
	e.fillLoopTick[i]++
	if seq.ResetMeasure > 0 && e.fillLoopTick[i] >= seq.ResetMeasure*seq.ClockDivisor*(seq.LastStep-seq.FirstStep+1) {
		e.fillLoopTick[i] = 0
	}
	return out
}

// PrevGate and PrevNote expose track i's previous-tick output, per spec.md
// §4.5's Logic-track rule ("reads the most recent gate and note from its
// input tracks") and §9's cycle-breaking rule (always the previous tick,
// never the current one, for a cross-track reference).
func (e *Engine) PrevGate(i int) bool { return e.prevGates[i] }
func (e *Engine) PrevNote(i int) int  { return e.prevNotes[i] }
