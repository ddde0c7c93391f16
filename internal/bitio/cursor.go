// Package bitio provides bit-level extraction from byte slices.
//
// A Cursor pairs a borrowed byte slice with an absolute bit offset and is
// passed around by value. Extractions never mutate the cursor they are
// called on; each returns a new Cursor advanced past the consumed bits.
// Holding on to an old Cursor and re-reading from it is always valid, which
// is what speculative and tag-style parsers rely on for backtracking.
//
// Bits are numbered most-significant first within each byte:
//
//	byte:       0x81
//	bit index:  0  1  2  3  4  5  6  7
//	bit value:  1  0  0  0  0  0  0  1
//
// Reads may span byte boundaries; a field extracted across a boundary is
// bit-identical to the same field extracted from within a single byte.
package bitio

import "fmt"

// MaxExtract is the widest single extraction supported. Wider protocol
// fields are read as multiples of whole 16-bit words.
const MaxExtract = 16

// Cursor is a read position within a byte slice at bit granularity.
//
// The zero value is an empty cursor with no data. Cursors are cheap to copy
// and must be treated as values: operations return the advanced cursor
// rather than modifying the receiver.
type Cursor struct {
	data []byte
	off  int // absolute position in bits from the start of data
}

// NewCursor returns a cursor positioned at the first bit of data.
// The slice is borrowed, not copied; callers must not modify it while any
// cursor derived from it is in use.
func NewCursor(data []byte) Cursor {
	return Cursor{data: data}
}

// NewCursorAt returns a cursor positioned at an arbitrary bit offset,
// for resuming inside a larger bit-oriented parse. The offset must lie
// within [0, 8*len(data)].
func NewCursorAt(data []byte, bitOffset int) (Cursor, error) {
	if bitOffset < 0 || bitOffset > 8*len(data) {
		return Cursor{}, fmt.Errorf("bitio: start offset %d outside [0, %d]", bitOffset, 8*len(data))
	}
	return Cursor{data: data, off: bitOffset}, nil
}

// BitOffset returns the absolute position in bits from the start of the data.
func (c Cursor) BitOffset() int {
	return c.off
}

// ByteOffset returns the position in whole bytes, rounding down. It equals
// the resume point for byte-oriented parsing only when Aligned reports true.
func (c Cursor) ByteOffset() int {
	return c.off / 8
}

// Aligned reports whether the cursor sits on a byte boundary.
func (c Cursor) Aligned() bool {
	return c.off%8 == 0
}

// Remaining returns the number of unread bits.
func (c Cursor) Remaining() int {
	return 8*len(c.data) - c.off
}

// Len returns the total size of the underlying data in bits.
func (c Cursor) Len() int {
	return 8 * len(c.data)
}

// ExtractBits reads n bits most-significant-bit first and returns the
// advanced cursor together with the extracted value. Each bit contributes
// value = value*2 + bit, so the first bit read lands in the highest position
// of the result.
//
// n must be in [1, MaxExtract]; anything else is a programmer error and
// panics. If fewer than n bits remain the read fails with an
// *InsufficientInputError and the returned cursor is the receiver,
// unadvanced.
func (c Cursor) ExtractBits(n int) (Cursor, uint16, error) {
	if n < 1 || n > MaxExtract {
		panic(fmt.Sprintf("bitio: extraction width %d outside [1, %d]", n, MaxExtract))
	}
	if rem := c.Remaining(); rem < n {
		return c, 0, &InsufficientInputError{Needed: n, Available: rem, BitOffset: c.off}
	}

	var v uint16
	switch {
	case c.off%8 == 0 && n == 8:
		// Whole aligned byte, no shifting needed.
		v = uint16(c.data[c.off/8])
	case c.off%8 == 0 && n == 16:
		// Two whole aligned bytes, big-endian.
		i := c.off / 8
		v = uint16(c.data[i])<<8 | uint16(c.data[i+1])
	default:
		for i := 0; i < n; i++ {
			pos := c.off + i
			bit := (c.data[pos/8] >> (7 - uint(pos%8))) & 1
			v = v<<1 | uint16(bit)
		}
	}
	return Cursor{data: c.data, off: c.off + n}, v, nil
}

// ExtractBit reads a single bit, true iff the bit is 1.
func (c Cursor) ExtractBit() (Cursor, bool, error) {
	next, v, err := c.ExtractBits(1)
	if err != nil {
		return c, false, err
	}
	return next, v == 1, nil
}

// ExpectBits reads n bits and succeeds only if the value equals pattern.
// On mismatch it fails with a *PatternMismatchError and the returned cursor
// is the receiver with its position untouched, so the caller can try an
// alternative branch from the same spot. Width rules match ExtractBits.
func (c Cursor) ExpectBits(pattern uint16, n int) (Cursor, error) {
	next, got, err := c.ExtractBits(n)
	if err != nil {
		return c, err
	}
	if got != pattern {
		return c, &PatternMismatchError{Want: pattern, Got: got, Bits: n, BitOffset: c.off}
	}
	return next, nil
}
