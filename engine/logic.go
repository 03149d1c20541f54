package engine

import "seqcore/project"

func applyGateLogic(op project.GateLogic, a, b, hasB bool) bool {
	if !hasB {
		switch op {
		case project.GateInvert:
			return !a
		default:
			return a // pass-through semantics when B is absent (spec.md §4.5)
		}
	}
	switch op {
	case project.GatePass:
		return a
	case project.GateInvert:
		return !a
	case project.GateAnd:
		return a && b
	case project.GateOr:
		return a || b
	case project.GateXor:
		return a != b
	case project.GateNand:
		return !(a && b)
	case project.GateNor:
		return !(a || b)
	default:
		return a
	}
}

// applyNoteLogic reads original_source/.../LogicSequence_operators.h
// (SPEC_FULL.md §3): TransposeA/TransposeB take the Logic track's own
// Transpose parameter as the transpose amount applied to the matching
// input's note.
func applyNoteLogic(op project.NoteLogic, noteA, noteB int, hasB bool, transpose int, stepNote int) int {
	if !hasB {
		switch op {
		case project.NoteTransposeA:
			return clampNote(noteA + transpose)
		default:
			return noteA
		}
	}
	switch op {
	case project.NotePass:
		return noteA
	case project.NoteTransposeA:
		return clampNote(noteA + transpose)
	case project.NoteTransposeB:
		return clampNote(noteB + transpose)
	case project.NoteCombine:
		return (noteA + noteB) / 2
	case project.NoteFilterHigh:
		if noteA > noteB {
			return noteA
		}
		return 0
	case project.NoteFilterLow:
		if noteA < noteB {
			return noteA
		}
		return 0
	case project.NoteFilterRange:
		lo, hi := noteA, noteB
		if lo > hi {
			lo, hi = hi, lo
		}
		if stepNote >= lo && stepNote <= hi {
			return stepNote
		}
		return 0
	case project.NoteMask:
		if noteB > 0 {
			return 0
		}
		return noteA
	default:
		return noteA
	}
}

func clampNote(n int) int {
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return n
}

// evalLogic implements spec.md §4.5's Logic track: it reads the previous
// tick's gate/note from its input tracks (never the current tick, per
// spec.md §9's cycle-breaking rule) and applies the current step's
// gate/note operator.
func (e *Engine) evalLogic(tr *project.Track, seq *project.Sequence, st *trackState, out *TrackOutput) {
	if seq.Logic == nil {
		return
	}
	if !st.startedFresh {
		st.cursor = seq.FirstStep
		st.startedFresh = true
	}

	step := &seq.Steps[st.cursor]

	gateA := e.PrevGate(seq.Logic.InputA)
	noteA := e.PrevNote(seq.Logic.InputA)
	hasB := seq.Logic.InputB >= 0 && seq.Logic.InputB < project.TrackCount
	var gateB bool
	var noteB int
	if hasB {
		gateB = e.PrevGate(seq.Logic.InputB)
		noteB = e.PrevNote(seq.Logic.InputB)
	}

	gate := applyGateLogic(step.GateLogicOp(), gateA, gateB, hasB)
	note := applyNoteLogic(step.NoteLogicOp(), noteA, noteB, hasB, tr.Transpose.Get(), step.Note())

	if gate != st.gateLevel {
		out.GateEdge = true
		if gate {
			out.MIDI = append(out.MIDI, noteOnMessage(e.Proj, tr.Index, note, 100))
		} else {
			out.MIDI = append(out.MIDI, noteOffMessage(e.Proj, tr.Index, st.currentNote))
		}
	}
	st.gateLevel = gate
	out.Gate = gate
	if gate {
		st.currentNote = note
	}
	out.CV = VoltsPerSemitone * float64(st.currentNote-60)

	e.advanceStepCursor(seq, st)
}
