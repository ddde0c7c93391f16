// Package dnswire implements strict bit-level decoding of DNS message headers.
package dnswire

import "fmt"

// DNS header flags and masks (RFC 1035 Section 4.1.1)
//
// The DNS header contains a 16-bit flags field with the following layout:
//
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	|QR|   Opcode  |AA|TC|RD|RA|   Z    |   RCODE   |
//	+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+--+
//	 15 14 13 12 11 10  9  8  7  6  5  4  3  2  1  0
//
// Bit positions (from MSB):
//   - Bit 15 (0x8000): QR - Query (0) or Response (1)
//   - Bits 14-11 (0x7800): OPCODE - Operation type (0=Query, 1=IQuery, 2=Status)
//   - Bit 10 (0x0400): AA - Authoritative Answer
//   - Bit 9 (0x0200): TC - Truncation (message was truncated)
//   - Bit 8 (0x0100): RD - Recursion Desired
//   - Bit 7 (0x0080): RA - Recursion Available
//   - Bits 6-4 (0x0070): Z - Reserved (must be zero)
//   - Bits 3-0 (0x000F): RCODE - Response code
const (
	QRFlag     uint16 = 0x8000 // Query/Response: 1 = response, 0 = query
	OpcodeMask uint16 = 0x7800 // Bits 14-11: operation type (use >> OpcodeShift to extract)
	AAFlag     uint16 = 0x0400 // Authoritative Answer
	TCFlag     uint16 = 0x0200 // Truncation: message was truncated
	RDFlag     uint16 = 0x0100 // Recursion Desired
	RAFlag     uint16 = 0x0080 // Recursion Available
	ZMask      uint16 = 0x0070 // Bits 6-4: reserved, must be zero
	RCodeMask  uint16 = 0x000F // Bits 3-0: response code

	OpcodeShift = 11 // shift for the opcode field within the flags word
)

// Opcode identifies the kind of DNS operation (RFC 1035 Section 4.1.1).
// The value is set by the originator of a query and copied into the response.
type Opcode uint8

const (
	OpcodeQuery        Opcode = 0 // Standard query
	OpcodeInverseQuery Opcode = 1 // Inverse query (obsoleted by RFC 3425)
	OpcodeStatus       Opcode = 2 // Server status request
)

// OpcodeFromWire converts a raw 4-bit opcode into an Opcode. Codes outside
// the assigned set fail with *UnknownOpcodeError rather than being coerced;
// guessing intent for an unassigned operation is unsafe.
func OpcodeFromWire(code uint8) (Opcode, error) {
	switch op := Opcode(code); op {
	case OpcodeQuery, OpcodeInverseQuery, OpcodeStatus:
		return op, nil
	default:
		return 0, &UnknownOpcodeError{Code: code}
	}
}

// String returns the conventional presentation-format name of the opcode.
func (o Opcode) String() string {
	switch o {
	case OpcodeQuery:
		return "QUERY"
	case OpcodeInverseQuery:
		return "IQUERY"
	case OpcodeStatus:
		return "STATUS"
	default:
		return fmt.Sprintf("OPCODE%d", uint8(o))
	}
}

// RCode represents DNS response codes (RFC 1035).
type RCode uint8

const (
	RCodeNoError  RCode = 0 // No error
	RCodeFormErr  RCode = 1 // Format error: query malformed
	RCodeServFail RCode = 2 // Server failure: internal error
	RCodeNXDomain RCode = 3 // Non-existent domain
	RCodeNotImp   RCode = 4 // Not implemented: unsupported query type
	RCodeRefused  RCode = 5 // Query refused by policy
)

// RCodeFromWire converts a raw 4-bit response code into an RCode. Codes
// outside the base RFC 1035 set fail with *UnknownRCodeError. EDNS widens
// the RCODE range through the OPT record (RFC 6891); the 4-bit header field
// alone is validated here, so extended codes are rejected as unknown.
func RCodeFromWire(code uint8) (RCode, error) {
	if code > uint8(RCodeRefused) {
		return 0, &UnknownRCodeError{Code: code}
	}
	return RCode(code), nil
}

// String returns the conventional presentation-format name of the code.
func (rc RCode) String() string {
	switch rc {
	case RCodeNoError:
		return "NOERROR"
	case RCodeFormErr:
		return "FORMERR"
	case RCodeServFail:
		return "SERVFAIL"
	case RCodeNXDomain:
		return "NXDOMAIN"
	case RCodeNotImp:
		return "NOTIMP"
	case RCodeRefused:
		return "REFUSED"
	default:
		return fmt.Sprintf("RCODE%d", uint8(rc))
	}
}
