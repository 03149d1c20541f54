package project

import "testing"

func TestSetVariantClearsSequences(t *testing.T) {
	tr := NewTrack(0, VariantNote)
	tr.Sequences[0].Steps[0].SetGate(true)
	tr.Sequences[0].SetRootNote(60)

	tr.SetVariant(VariantLogic)

	if tr.Variant != VariantLogic {
		t.Fatalf("Variant = %v, want Logic", tr.Variant)
	}
	if tr.Sequences[0].Steps[0].Gate() {
		t.Fatalf("expected sequence step data cleared after variant switch")
	}
	if tr.Sequences[0].Logic == nil {
		t.Fatalf("expected Logic extra allocated after switching to VariantLogic")
	}
}

func TestBiasUnsetMeansUseStepValue(t *testing.T) {
	tr := NewTrack(0, VariantNote)
	if tr.GateProbabilityBias != biasUnset {
		t.Fatalf("default GateProbabilityBias = %d, want %d (unset)", tr.GateProbabilityBias, biasUnset)
	}
	tr.SetGateProbabilityBias(4)
	if tr.GateProbabilityBias != 4 {
		t.Fatalf("GateProbabilityBias = %d, want 4", tr.GateProbabilityBias)
	}
	tr.SetGateProbabilityBias(biasUnset)
	if tr.GateProbabilityBias != biasUnset {
		t.Fatalf("expected bias settable back to unset")
	}
}

func TestProjectNameClampedTo8Chars(t *testing.T) {
	p := NewProject()
	p.SetName("ThisNameIsWayTooLong")
	if len(p.Name) != 8 {
		t.Fatalf("Name length = %d, want 8", len(p.Name))
	}
}

func TestProjectTempoAndSwingClamp(t *testing.T) {
	p := NewProject()
	p.SetTempo(5000)
	if p.Tempo != 1000 {
		t.Fatalf("Tempo = %v, want 1000", p.Tempo)
	}
	p.SetTempo(0)
	if p.Tempo != 1 {
		t.Fatalf("Tempo = %v, want 1", p.Tempo)
	}
	p.SetSwing(90)
	if p.Swing != 75 {
		t.Fatalf("Swing = %d, want 75", p.Swing)
	}
}
