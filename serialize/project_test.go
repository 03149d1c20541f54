package serialize

import (
	"bytes"
	"testing"

	"seqcore/project"
	"seqcore/routing"
)

func samplePersistedProject() *project.Project {
	p := project.NewProject()
	p.SetName("Kick")
	p.SetTempo(142.5)
	p.SetSwing(58)
	p.Tracks[0].Name = "Kick"
	p.Tracks[0].Sequences[0].Steps[0].SetGate(true)
	p.Tracks[0].Sequences[0].Steps[0].SetNote(7)
	p.Tracks[1].SetVariant(project.VariantStochastic)
	p.Tracks[1].Sequences[0].Stochastic.RestProbability2 = 100
	p.Tracks[2].SetVariant(project.VariantLogic)
	p.Tracks[2].Sequences[0].Logic.InputA = 0
	p.Tracks[2].Sequences[0].Logic.InputB = 1
	p.Tracks[3].SetVariant(project.VariantCurve)
	p.Tracks[3].Sequences[0].Curve.Min = -2
	p.Tracks[3].Sequences[0].Curve.Max = 3
	p.Tracks[4].SetVariant(project.VariantArp)
	p.Tracks[4].Sequences[0].Arp.Mode = project.ArpUpDown
	p.Tracks[5].SetVariant(project.VariantMidiCv)
	p.Tracks[5].Sequences[0].CurveSteps[0].SetGate(true)
	p.Tracks[5].Sequences[0].CurveSteps[0].SetLength(9)
	p.Routing.Entries = append(p.Routing.Entries, routing.Entry{
		Source: routing.Source{Type: routing.SourceCV, Channel: 1},
		Target: routing.Target{TrackIndex: 0, Kind: routing.TargetTrackOctave},
		Min:    -2, Max: 2,
	})
	return p
}

// Scenario 7 of spec.md §8: create a project with specific tempo/swing/
// track-0 name, write it, read it back, and check every scalar and track
// name survives.
func TestPersistenceScenario(t *testing.T) {
	p := project.NewProject()
	p.SetTempo(142.5)
	p.SetSwing(58)
	p.Tracks[0].Name = "Kick"

	var buf bytes.Buffer
	if err := WriteProject(&buf, p); err != nil {
		t.Fatalf("WriteProject: %v", err)
	}

	q, err := ReadProject(&buf)
	if err != nil {
		t.Fatalf("ReadProject: %v", err)
	}

	if q.Tempo != 142.5 {
		t.Errorf("Tempo = %v, want 142.5", q.Tempo)
	}
	if q.Swing != 58 {
		t.Errorf("Swing = %v, want 58", q.Swing)
	}
	if q.Tracks[0].Name != "Kick" {
		t.Errorf("Tracks[0].Name = %q, want Kick", q.Tracks[0].Name)
	}
	for i := range p.Tracks {
		if q.Tracks[i].Name != p.Tracks[i].Name {
			t.Errorf("Tracks[%d].Name = %q, want %q", i, q.Tracks[i].Name, p.Tracks[i].Name)
		}
	}
}

func TestRoundTripAcrossTrackVariants(t *testing.T) {
	p := samplePersistedProject()

	var buf bytes.Buffer
	if err := WriteProject(&buf, p); err != nil {
		t.Fatalf("WriteProject: %v", err)
	}
	q, err := ReadProject(&buf)
	if err != nil {
		t.Fatalf("ReadProject: %v", err)
	}

	if q.Name != p.Name || q.Tempo != p.Tempo || q.Swing != p.Swing {
		t.Fatalf("globals mismatch: got %+v want name=%q tempo=%v swing=%v", q, p.Name, p.Tempo, p.Swing)
	}

	note0 := q.Tracks[0].Sequences[0].Steps[0]
	if !note0.Gate() || note0.Note() != 7 {
		t.Errorf("Tracks[0].Sequences[0].Steps[0] = gate:%v note:%d, want gate:true note:7", note0.Gate(), note0.Note())
	}

	if q.Tracks[1].Variant != project.VariantStochastic {
		t.Fatalf("Tracks[1].Variant = %v, want Stochastic", q.Tracks[1].Variant)
	}
	if q.Tracks[1].Sequences[0].Stochastic.RestProbability2 != 100 {
		t.Errorf("RestProbability2 = %d, want 100", q.Tracks[1].Sequences[0].Stochastic.RestProbability2)
	}

	if q.Tracks[2].Variant != project.VariantLogic {
		t.Fatalf("Tracks[2].Variant = %v, want Logic", q.Tracks[2].Variant)
	}
	if q.Tracks[2].Sequences[0].Logic.InputA != 0 || q.Tracks[2].Sequences[0].Logic.InputB != 1 {
		t.Errorf("Logic InputA/B = %d/%d, want 0/1", q.Tracks[2].Sequences[0].Logic.InputA, q.Tracks[2].Sequences[0].Logic.InputB)
	}

	if q.Tracks[3].Variant != project.VariantCurve {
		t.Fatalf("Tracks[3].Variant = %v, want Curve", q.Tracks[3].Variant)
	}
	if q.Tracks[3].Sequences[0].Curve.Min != -2 || q.Tracks[3].Sequences[0].Curve.Max != 3 {
		t.Errorf("Curve Min/Max = %v/%v, want -2/3", q.Tracks[3].Sequences[0].Curve.Min, q.Tracks[3].Sequences[0].Curve.Max)
	}

	if q.Tracks[4].Variant != project.VariantArp {
		t.Fatalf("Tracks[4].Variant = %v, want Arp", q.Tracks[4].Variant)
	}
	if q.Tracks[4].Sequences[0].Arp.Mode != project.ArpUpDown {
		t.Errorf("Arp.Mode = %v, want ArpUpDown", q.Tracks[4].Sequences[0].Arp.Mode)
	}

	if q.Tracks[5].Variant != project.VariantMidiCv {
		t.Fatalf("Tracks[5].Variant = %v, want MidiCv", q.Tracks[5].Variant)
	}
	midiCv0 := q.Tracks[5].Sequences[0].CurveSteps[0]
	if !midiCv0.Gate() || midiCv0.Length() != 9 {
		t.Errorf("Tracks[5].Sequences[0].CurveSteps[0] = gate:%v length:%d, want gate:true length:9", midiCv0.Gate(), midiCv0.Length())
	}

	if len(q.Routing.Entries) != 1 {
		t.Fatalf("len(Routing.Entries) = %d, want 1", len(q.Routing.Entries))
	}
	if q.Routing.Entries[0].Source.Type != routing.SourceCV || q.Routing.Entries[0].Target.Kind != routing.TargetTrackOctave {
		t.Errorf("Routing.Entries[0] = %+v, unexpected", q.Routing.Entries[0])
	}
}

func TestReadProjectRejectsBadMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("NOPE")
	buf.Write(make([]byte, 64))

	_, err := ReadProject(&buf)
	if err == nil {
		t.Fatal("expected an error for bad magic")
	}
	var pe *ProtocolError
	if !isProtocolError(err, &pe) {
		t.Fatalf("expected *ProtocolError, got %T: %v", err, err)
	}
}

func TestReadProjectRejectsTruncatedStream(t *testing.T) {
	p := project.NewProject()
	var buf bytes.Buffer
	if err := WriteProject(&buf, p); err != nil {
		t.Fatalf("WriteProject: %v", err)
	}

	truncated := buf.Bytes()[:len(buf.Bytes())/2]
	_, err := ReadProject(bytes.NewReader(truncated))
	if err == nil {
		t.Fatal("expected an error for a truncated stream")
	}
}

func TestReadProjectRejectsBadChecksum(t *testing.T) {
	p := project.NewProject()
	var buf bytes.Buffer
	if err := WriteProject(&buf, p); err != nil {
		t.Fatalf("WriteProject: %v", err)
	}

	data := buf.Bytes()
	data[len(data)-1] ^= 0xFF // corrupt the trailer checksum

	_, err := ReadProject(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected an error for a corrupted checksum")
	}
}

func TestReadProjectRejectsFutureVersion(t *testing.T) {
	p := project.NewProject()
	var buf bytes.Buffer
	if err := WriteProject(&buf, p); err != nil {
		t.Fatalf("WriteProject: %v", err)
	}

	data := buf.Bytes()
	data[4] = byte(CurrentVersion + 1) // version is the 2 bytes right after the 4-byte magic

	_, err := ReadProject(bytes.NewReader(data))
	if err == nil {
		t.Fatal("expected an error for a version newer than this reader supports")
	}
}

func isProtocolError(err error, target **ProtocolError) bool {
	pe, ok := err.(*ProtocolError)
	if ok {
		*target = pe
	}
	return ok
}
