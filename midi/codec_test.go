package midi

import "testing"

func feedAll(t *testing.T, p *StreamParser, bytes []byte) []Message {
	t.Helper()
	var out []Message
	for _, b := range bytes {
		if msg, ok := p.Feed(b); ok {
			out = append(out, msg)
		}
	}
	return out
}

func TestNoteOnOff(t *testing.T) {
	p := NewStreamParser()
	msgs := feedAll(t, p, []byte{0x90, 60, 100, 0x80, 60, 0})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Type != TypeNoteOn || msgs[0].Data1 != 60 || msgs[0].Data2 != 100 {
		t.Fatalf("unexpected note on: %+v", msgs[0])
	}
	if msgs[1].Type != TypeNoteOff {
		t.Fatalf("unexpected note off: %+v", msgs[1])
	}
}

func TestNoteOnVelocityZeroIsNoteOff(t *testing.T) {
	p := NewStreamParser()
	msgs := feedAll(t, p, []byte{0x90, 64, 0})
	if len(msgs) != 1 || msgs[0].Type != TypeNoteOff {
		t.Fatalf("expected fixed-up note off, got %+v", msgs)
	}
}

func TestRunningStatus(t *testing.T) {
	p := NewStreamParser()
	// Status once, then two more note-on pairs with no repeated status byte.
	msgs := feedAll(t, p, []byte{0x90, 60, 100, 61, 101, 62, 102})
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages via running status, got %d", len(msgs))
	}
	for i, want := range []uint8{60, 61, 62} {
		if msgs[i].Data1 != want {
			t.Fatalf("message %d: got note %d want %d", i, msgs[i].Data1, want)
		}
	}
}

func TestRealTimeInterleavedDoesNotDisturbRunningStatus(t *testing.T) {
	p := NewStreamParser()
	var msgs []Message
	for _, b := range []byte{0x90, 60, 0xF8, 100} {
		if msg, ok := p.Feed(b); ok {
			msgs = append(msgs, msg)
		}
	}
	if len(msgs) != 2 {
		t.Fatalf("expected clock + note-on, got %d: %+v", len(msgs), msgs)
	}
	if msgs[0].Type != TypeClock {
		t.Fatalf("expected clock message first, got %+v", msgs[0])
	}
	if msgs[1].Type != TypeNoteOn || msgs[1].Data1 != 60 || msgs[1].Data2 != 100 {
		t.Fatalf("running status note-on broken by interleaved real-time byte: %+v", msgs[1])
	}
}

func TestSystemCommonCancelsRunningStatus(t *testing.T) {
	p := NewStreamParser()
	feedAll(t, p, []byte{0x90, 60, 100}) // latch running status
	feedAll(t, p, []byte{0xF3, 2})       // song select cancels it
	// A bare data byte now, with no status, must be ignored.
	msgs := feedAll(t, p, []byte{61})
	if len(msgs) != 0 {
		t.Fatalf("expected no message from orphan data byte, got %+v", msgs)
	}
}

func TestDataByteWithNoStatusIgnored(t *testing.T) {
	p := NewStreamParser()
	msgs := feedAll(t, p, []byte{10, 20, 30})
	if len(msgs) != 0 {
		t.Fatalf("expected 0 messages, got %d", len(msgs))
	}
}

func TestPitchbendRoundTrip(t *testing.T) {
	for _, v := range []int16{0, 8191, -8192, -1, 4000} {
		m := Pitchbend(3, v)
		if PitchbendValue(m) != v {
			t.Fatalf("pitchbend round-trip: want %d got %d", v, PitchbendValue(m))
		}
		p := NewStreamParser()
		got, ok := p.Feed(m.Bytes()[0])
		if ok {
			t.Fatalf("unexpected completion after status byte only")
		}
		_, ok = p.Feed(m.Bytes()[1])
		if ok {
			t.Fatalf("unexpected completion after first data byte")
		}
		got, ok = p.Feed(m.Bytes()[2])
		if !ok || got.Type != TypePitchBend {
			t.Fatalf("expected complete pitchbend message, got %+v ok=%v", got, ok)
		}
		if PitchbendValue(got) != v {
			t.Fatalf("decoded pitchbend: want %d got %d", v, PitchbendValue(got))
		}
	}
}

func TestSysExConsumedNotAssembled(t *testing.T) {
	p := NewStreamParser()
	msgs := feedAll(t, p, []byte{0xF0, 1, 2, 3, 0xF7})
	if len(msgs) != 0 {
		t.Fatalf("SysEx must not be assembled into a message, got %+v", msgs)
	}
}
