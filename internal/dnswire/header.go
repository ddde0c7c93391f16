package dnswire

import (
	"encoding/binary"
	"fmt"

	"github.com/jroosing/dnslens/internal/bitio"
)

// Header is a decoded DNS message header (RFC 1035 Section 4.1.1).
//
// Fields hold decoded domain values rather than the raw flags word: the QR
// bit arrives inverted (wire value 1 means response), so IsQuery already
// answers the question its name asks, and Opcode and ResponseCode are
// validated enumerants. A Header only ever exists fully decoded; failed
// decodes return no partial record.
type Header struct {
	ID                  uint16 // Transaction ID, copied verbatim into the reply
	IsQuery             bool   // true = query (wire QR bit 0), false = response
	Opcode              Opcode // Operation type, validated on decode
	AuthoritativeAnswer bool   // AA: responder is authoritative for the queried name
	Truncation          bool   // TC: message was cut to fit the transport
	RecursionDesired    bool   // RD: copied from query into response
	RecursionAvailable  bool   // RA: responder offers recursion
	ResponseCode        RCode  // Outcome of the query, validated on decode
	QuestionCount       uint16 // Entries in the question section
	AnswerCount         uint16 // Resource records in the answer section
	NameServerCount     uint16 // Resource records in the authority section
	AdditionalCount     uint16 // Resource records in the additional section
}

// HeaderSize is the fixed size of a DNS header in bytes.
const HeaderSize = 12

// headerBits is the exact number of bits a decode consumes, no more, no
// less, regardless of which fields validate.
const headerBits = 8 * HeaderSize

// reservedBits is the width of the Z field.
const reservedBits = 3

// DecodeHeaderFrom decodes a header starting at the cursor's position and
// returns the decoded record together with the cursor advanced by exactly
// 96 bits, for composition inside a larger bit-oriented parse.
//
// The field walk is fixed: id(16), qr(1), opcode(4), aa, tc, rd, ra
// (1 each), z(3, each required zero), rcode(4), then the four section
// counts (16 each). The first invalid field aborts the decode; on failure
// the returned cursor is the input cursor, unadvanced.
func DecodeHeaderFrom(cur bitio.Cursor) (Header, bitio.Cursor, error) {
	start := cur

	cur, id, err := cur.ExtractBits(16)
	if err != nil {
		return Header{}, start, fmt.Errorf("header id: %w", err)
	}

	cur, qr, err := cur.ExtractBit()
	if err != nil {
		return Header{}, start, fmt.Errorf("header qr: %w", err)
	}

	opcodePos := cur.BitOffset()
	cur, rawOpcode, err := cur.ExtractBits(4)
	if err != nil {
		return Header{}, start, fmt.Errorf("header opcode: %w", err)
	}
	opcode, err := OpcodeFromWire(uint8(rawOpcode))
	if err != nil {
		return Header{}, start, fmt.Errorf("header opcode at bit %d: %w", opcodePos, err)
	}

	cur, aa, err := cur.ExtractBit()
	if err != nil {
		return Header{}, start, fmt.Errorf("header aa: %w", err)
	}
	cur, tc, err := cur.ExtractBit()
	if err != nil {
		return Header{}, start, fmt.Errorf("header tc: %w", err)
	}
	cur, rd, err := cur.ExtractBit()
	if err != nil {
		return Header{}, start, fmt.Errorf("header rd: %w", err)
	}
	cur, ra, err := cur.ExtractBit()
	if err != nil {
		return Header{}, start, fmt.Errorf("header ra: %w", err)
	}

	// Z bits are checked one at a time so the error names the exact bit.
	for i := 0; i < reservedBits; i++ {
		pos := cur.BitOffset()
		var z bool
		cur, z, err = cur.ExtractBit()
		if err != nil {
			return Header{}, start, fmt.Errorf("header z: %w", err)
		}
		if z {
			return Header{}, start, fmt.Errorf("header z: %w", &ReservedBitsError{Bit: i, BitOffset: pos})
		}
	}

	rcodePos := cur.BitOffset()
	cur, rawRCode, err := cur.ExtractBits(4)
	if err != nil {
		return Header{}, start, fmt.Errorf("header rcode: %w", err)
	}
	rcode, err := RCodeFromWire(uint8(rawRCode))
	if err != nil {
		return Header{}, start, fmt.Errorf("header rcode at bit %d: %w", rcodePos, err)
	}

	cur, qdcount, err := cur.ExtractBits(16)
	if err != nil {
		return Header{}, start, fmt.Errorf("header qdcount: %w", err)
	}
	cur, ancount, err := cur.ExtractBits(16)
	if err != nil {
		return Header{}, start, fmt.Errorf("header ancount: %w", err)
	}
	cur, nscount, err := cur.ExtractBits(16)
	if err != nil {
		return Header{}, start, fmt.Errorf("header nscount: %w", err)
	}
	cur, arcount, err := cur.ExtractBits(16)
	if err != nil {
		return Header{}, start, fmt.Errorf("header arcount: %w", err)
	}

	h := Header{
		ID:                  id,
		IsQuery:             !qr, // wire QR bit 1 means response
		Opcode:              opcode,
		AuthoritativeAnswer: aa,
		Truncation:          tc,
		RecursionDesired:    rd,
		RecursionAvailable:  ra,
		ResponseCode:        rcode,
		QuestionCount:       qdcount,
		AnswerCount:         ancount,
		NameServerCount:     nscount,
		AdditionalCount:     arcount,
	}
	return h, cur, nil
}

// DecodeHeader decodes a header from the start of msg. On success the int
// result is the byte offset where section data begins (always HeaderSize),
// for a byte-oriented downstream parser to resume from.
func DecodeHeader(msg []byte) (Header, int, error) {
	h, cur, err := DecodeHeaderFrom(bitio.NewCursor(msg))
	if err != nil {
		return Header{}, 0, err
	}
	return h, cur.ByteOffset(), nil
}

// Marshal serializes the header to wire format (big-endian, 12 bytes).
// It is the exact inverse of DecodeHeader for valid headers and refuses to
// encode enum fields holding out-of-set values, so only headers that would
// decode back cleanly are encodable.
func (h Header) Marshal() ([]byte, error) {
	if _, err := OpcodeFromWire(uint8(h.Opcode)); err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}
	if _, err := RCodeFromWire(uint8(h.ResponseCode)); err != nil {
		return nil, fmt.Errorf("marshal header: %w", err)
	}

	b := make([]byte, HeaderSize)
	binary.BigEndian.PutUint16(b[0:2], h.ID)
	binary.BigEndian.PutUint16(b[2:4], h.packFlags())
	binary.BigEndian.PutUint16(b[4:6], h.QuestionCount)
	binary.BigEndian.PutUint16(b[6:8], h.AnswerCount)
	binary.BigEndian.PutUint16(b[8:10], h.NameServerCount)
	binary.BigEndian.PutUint16(b[10:12], h.AdditionalCount)
	return b, nil
}

// packFlags assembles the 16-bit flags word from the decoded fields.
// The Z bits stay zero; that is the only form Marshal emits.
func (h Header) packFlags() uint16 {
	var flags uint16
	if !h.IsQuery {
		flags |= QRFlag
	}
	flags |= uint16(h.Opcode) << OpcodeShift
	if h.AuthoritativeAnswer {
		flags |= AAFlag
	}
	if h.Truncation {
		flags |= TCFlag
	}
	if h.RecursionDesired {
		flags |= RDFlag
	}
	if h.RecursionAvailable {
		flags |= RAFlag
	}
	flags |= uint16(h.ResponseCode) & RCodeMask
	return flags
}
