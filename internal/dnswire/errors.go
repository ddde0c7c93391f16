// Package dnswire implements strict bit-level decoding of DNS message headers.
//
// Standards Compliance:
//
// This package implements the fixed 12-byte message header from:
//
//   - RFC 1035: Domain Names - Implementation and Specification (Section 4.1.1)
//
// Question, answer, authority, and additional sections are out of scope;
// DecodeHeader hands back the byte offset where they begin so a downstream
// byte-oriented parser can take over.
//
// Strictness:
//
// Decoding is fail-fast and never coerces. Unknown opcodes and response
// codes fail with the offending raw value, and the three reserved Z bits
// must each be zero. A nonzero reserved bit means either corruption or a
// protocol extension this decoder cannot safely interpret, so the rest of
// the message is not presumed readable. No partial Header is ever returned.
//
// Error Handling:
//
// Decode failures are typed (*UnknownOpcodeError, *UnknownRCodeError,
// *ReservedBitsError, plus the bitio error types) and wrapped with the
// field name using fmt.Errorf("...: %w", err), so callers can classify
// with errors.As while logs keep the field context.
package dnswire

import "fmt"

// UnknownOpcodeError reports a 4-bit opcode outside the assigned set
// {0, 1, 2}. Carries the raw value so the caller can log or count it.
type UnknownOpcodeError struct {
	Code uint8 // raw wire value, 3..15
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode %d", e.Code)
}

// UnknownRCodeError reports a 4-bit response code outside the base
// RFC 1035 set {0..5}.
type UnknownRCodeError struct {
	Code uint8 // raw wire value, 6..15
}

func (e *UnknownRCodeError) Error() string {
	return fmt.Sprintf("unknown response code %d", e.Code)
}

// ReservedBitsError reports a Z bit that was set. Bit identifies which of
// the three reserved bits (0 = first transmitted), BitOffset its absolute
// position in the input.
type ReservedBitsError struct {
	Bit       int // index within the Z field, 0..2
	BitOffset int // absolute bit position in the input
}

func (e *ReservedBitsError) Error() string {
	return fmt.Sprintf("reserved bit %d set at bit %d", e.Bit, e.BitOffset)
}
