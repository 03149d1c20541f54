// Package serialize implements spec.md §4.8's versioned binary project
// stream: a fixed field order, little-endian multi-byte fields, and a
// trailer checksum over everything written before it. Readers accept any
// version <= CurrentVersion and refuse newer ones (spec.md §6). The
// declared version is recorded on the reader; with CurrentVersion at 1, no
// field is read differently by version.
package serialize

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"math"
)

// ProtocolError reports a malformed persistent stream: wrong magic,
// truncated data, a bad trailer checksum, or a version newer than this
// reader supports (spec.md §7). The caller refuses the load and leaves
// its existing project intact.
type ProtocolError struct{ Reason string }

func (e *ProtocolError) Error() string { return "serialize: protocol error: " + e.Reason }

// maxStringLen is spec.md §4.8's "fixed maximum length 16" for
// length-prefixed strings (project/track names).
const maxStringLen = 16

// writer wraps an io.Writer with the little-endian field primitives the
// format needs, accumulating a CRC32 checksum over every byte written so
// the trailer can be emitted without a second pass over the stream.
type writer struct {
	w   io.Writer
	sum *crcWriter
	err error
}

type crcWriter struct {
	w    io.Writer
	hash uint32
}

func (c *crcWriter) Write(p []byte) (int, error) {
	c.hash = crc32.Update(c.hash, crc32.IEEETable, p)
	return c.w.Write(p)
}

func newWriter(w io.Writer) *writer {
	cw := &crcWriter{w: w}
	return &writer{w: cw, sum: cw}
}

func (w *writer) write(p []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(p)
}

func (w *writer) u8(v uint8)   { w.write([]byte{v}) }
func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

func (w *writer) i8(v int8) { w.u8(uint8(v)) }

func (w *writer) u16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.write(b[:])
}

func (w *writer) i16(v int16) { w.u16(uint16(v)) }

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.write(b[:])
}

func (w *writer) i32(v int32) { w.u32(uint32(v)) }

func (w *writer) u64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.write(b[:])
}

func (w *writer) f64(v float64) { w.u64(math.Float64bits(v)) }

// str writes a length-prefixed string, truncated to maxStringLen bytes
// (spec.md §4.8).
func (w *writer) str(s string) {
	if len(s) > maxStringLen {
		s = s[:maxStringLen]
	}
	w.u8(uint8(len(s)))
	w.write([]byte(s))
}

// trailer appends the accumulated CRC32 checksum (spec.md §4.8's "trailer
// checksum"), computed over every byte written so far.
func (w *writer) trailer() error {
	if w.err != nil {
		return w.err
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], w.sum.hash)
	_, err := w.sum.w.Write(b[:])
	return err
}

// reader mirrors writer, tracking the declared stream version so callers
// can apply field-level defaults for anything absent in an older stream.
type reader struct {
	r       io.Reader // crcReader: every field read is hashed
	raw     io.Reader // underlying stream, for reading the trailer itself
	sum     *crcReader
	version uint16
	err     error
}

type crcReader struct {
	r    io.Reader
	hash uint32
}

func (c *crcReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.hash = crc32.Update(c.hash, crc32.IEEETable, p[:n])
	}
	return n, err
}

func newReader(r io.Reader) *reader {
	cr := &crcReader{r: r}
	return &reader{r: cr, raw: r, sum: cr}
}

func (r *reader) read(p []byte) {
	if r.err != nil {
		return
	}
	_, r.err = io.ReadFull(r.r, p)
}

func (r *reader) u8() uint8 {
	var b [1]byte
	r.read(b[:])
	return b[0]
}

func (r *reader) bool() bool { return r.u8() != 0 }
func (r *reader) i8() int8   { return int8(r.u8()) }

func (r *reader) u16() uint16 {
	var b [2]byte
	r.read(b[:])
	return binary.LittleEndian.Uint16(b[:])
}

func (r *reader) i16() int16 { return int16(r.u16()) }

func (r *reader) u32() uint32 {
	var b [4]byte
	r.read(b[:])
	return binary.LittleEndian.Uint32(b[:])
}

func (r *reader) i32() int32 { return int32(r.u32()) }

func (r *reader) u64() uint64 {
	var b [8]byte
	r.read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

func (r *reader) f64() float64 { return math.Float64frombits(r.u64()) }

func (r *reader) str() string {
	n := r.u8()
	if n > maxStringLen {
		n = maxStringLen
	}
	b := make([]byte, n)
	r.read(b)
	return string(b)
}

// checkTrailer reads the 4-byte trailer and compares it against the
// checksum accumulated over every byte read so far (spec.md §4.8).
func (r *reader) checkTrailer() error {
	if r.err != nil {
		return &ProtocolError{Reason: "truncated stream: " + r.err.Error()}
	}
	want := r.sum.hash
	var b [4]byte
	if _, err := io.ReadFull(r.raw, b[:]); err != nil {
		return &ProtocolError{Reason: "truncated trailer"}
	}
	got := binary.LittleEndian.Uint32(b[:])
	if got != want {
		return &ProtocolError{Reason: "checksum mismatch"}
	}
	return nil
}
