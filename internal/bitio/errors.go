package bitio

import "fmt"

// InsufficientInputError reports a read that ran past the end of the data.
// Retrying against the same buffer cannot succeed; callers should treat it
// as terminal for the current parse.
type InsufficientInputError struct {
	Needed    int // bits the read required
	Available int // bits that remained
	BitOffset int // position the read started from
}

func (e *InsufficientInputError) Error() string {
	return fmt.Sprintf("bitio: need %d bits at bit %d, only %d available",
		e.Needed, e.BitOffset, e.Available)
}

// PatternMismatchError reports that an expected fixed bit pattern was not
// present. The cursor position is restored by ExpectBits before this error
// is returned, so the caller may attempt a different grammar branch.
type PatternMismatchError struct {
	Want      uint16 // pattern the caller expected
	Got       uint16 // value actually read
	Bits      int    // width of the comparison
	BitOffset int    // position the read started from
}

func (e *PatternMismatchError) Error() string {
	return fmt.Sprintf("bitio: expected %0*b at bit %d, got %0*b",
		e.Bits, e.Want, e.BitOffset, e.Bits, e.Got)
}
