package dnswire

import (
	"encoding/binary"
	"fmt"
)

// MaxMessageSize bounds incoming DNS messages accepted for inspection, to
// prevent resource exhaustion from oversized datagrams. The value matches
// the common EDNS advertised payload size.
const MaxMessageSize = 4096

// BuildReply constructs a header-only reply to a successfully decoded
// query. It preserves the transaction ID, opcode, and RD flag from the
// query, marks the message as a response, and applies the given response
// code. All section counts are zero; no payload follows the header.
func BuildReply(query Header, rcode RCode) ([]byte, error) {
	h := Header{
		ID:               query.ID,
		IsQuery:          false,
		Opcode:           query.Opcode,
		RecursionDesired: query.RecursionDesired,
		ResponseCode:     rcode,
	}
	b, err := h.Marshal()
	if err != nil {
		return nil, fmt.Errorf("build reply: %w", err)
	}
	return b, nil
}

// BuildRawReply constructs a header-only reply for a message that failed
// decoding, so the sender still learns the error code. The transaction ID
// and RD flag are recovered from the raw prefix when enough bytes arrived;
// anything shorter gets a zero ID.
func BuildRawReply(raw []byte, rcode RCode) ([]byte, error) {
	h := Header{
		IsQuery:      false,
		ResponseCode: rcode,
	}
	if len(raw) >= 2 {
		h.ID = binary.BigEndian.Uint16(raw[0:2])
	}
	if len(raw) >= 3 {
		// RD is the low bit of the third byte.
		h.RecursionDesired = raw[2]&byte(RDFlag>>8) != 0
	}
	b, err := h.Marshal()
	if err != nil {
		return nil, fmt.Errorf("build raw reply: %w", err)
	}
	return b, nil
}
