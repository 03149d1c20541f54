package project

// Scale is a quantization table: semitone offsets for each scale degree
// within one octave. Grounded in the scale table of
// _examples/grahamseamans-go-sequence/sequencer/metropolix.go, trimmed to
// the set spec.md's UserScaleCount(4) user scales plus the built-in table
// actually need.
type Scale struct {
	Name    string
	Degrees []int // semitone offsets, ascending, first entry always 0
}

// DegreeToSemitone maps a scale degree (may be negative or exceed the
// scale length) to a semitone offset from the root, wrapping whole octaves
// the way spec.md §4.5 point 5's formula assumes: additional degrees below
// 0 or beyond the scale's length land an octave down/up.
func (s Scale) DegreeToSemitone(degree int) int {
	n := len(s.Degrees)
	if n == 0 {
		return degree
	}
	octave := floorDiv(degree, n)
	idx := degree - octave*n
	return s.Degrees[idx] + octave*12
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Builtin scales, indexed by ScaleIndex on a Sequence.
var Builtin = []Scale{
	{Name: "Chromatic", Degrees: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
	{Name: "Major", Degrees: []int{0, 2, 4, 5, 7, 9, 11}},
	{Name: "Minor", Degrees: []int{0, 2, 3, 5, 7, 8, 10}},
	{Name: "HarmonicMinor", Degrees: []int{0, 2, 3, 5, 7, 8, 11}},
	{Name: "MelodicMinor", Degrees: []int{0, 2, 3, 5, 7, 9, 11}},
	{Name: "PentatonicMajor", Degrees: []int{0, 2, 4, 7, 9}},
	{Name: "PentatonicMinor", Degrees: []int{0, 3, 5, 7, 10}},
	{Name: "Blues", Degrees: []int{0, 3, 5, 6, 7, 10}},
	{Name: "Dorian", Degrees: []int{0, 2, 3, 5, 7, 9, 10}},
	{Name: "Mixolydian", Degrees: []int{0, 2, 4, 5, 7, 9, 10}},
	{Name: "WholeTone", Degrees: []int{0, 2, 4, 6, 8, 10}},
	{Name: "Chromatic12Bipolar", Degrees: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}},
}

// ScaleByIndex returns Builtin[i], defaulting to Chromatic for an
// out-of-range index.
func ScaleByIndex(i int) Scale {
	if i < 0 || i >= len(Builtin) {
		return Builtin[0]
	}
	return Builtin[i]
}
