package inspect

import (
	"time"

	"github.com/jroosing/dnslens/internal/dnswire"
)

// HeaderView is the JSON shape of a decoded header, with enums rendered
// as their mnemonics.
type HeaderView struct {
	ID                 uint16 `json:"id"`
	IsQuery            bool   `json:"is_query"`
	Opcode             string `json:"opcode"`
	Authoritative      bool   `json:"authoritative"`
	Truncation         bool   `json:"truncation"`
	RecursionDesired   bool   `json:"recursion_desired"`
	RecursionAvailable bool   `json:"recursion_available"`
	ResponseCode       string `json:"response_code"`
	QuestionCount      uint16 `json:"question_count"`
	AnswerCount        uint16 `json:"answer_count"`
	NameServerCount    uint16 `json:"name_server_count"`
	AdditionalCount    uint16 `json:"additional_count"`
}

// ViewOf converts a decoded header to its JSON shape.
func ViewOf(h dnswire.Header) HeaderView {
	return HeaderView{
		ID:                 h.ID,
		IsQuery:            h.IsQuery,
		Opcode:             h.Opcode.String(),
		Authoritative:      h.AuthoritativeAnswer,
		Truncation:         h.Truncation,
		RecursionDesired:   h.RecursionDesired,
		RecursionAvailable: h.RecursionAvailable,
		ResponseCode:       h.ResponseCode.String(),
		QuestionCount:      h.QuestionCount,
		AnswerCount:        h.AnswerCount,
		NameServerCount:    h.NameServerCount,
		AdditionalCount:    h.AdditionalCount,
	}
}

// Event is one inspected message as published to live subscribers.
type Event struct {
	Time      time.Time   `json:"time"`
	Transport string      `json:"transport"`
	Client    string      `json:"client"`
	Outcome   string      `json:"outcome"` // "decoded" or the anomaly kind
	Header    *HeaderView `json:"header,omitempty"`
	Detail    string      `json:"detail,omitempty"`
	LatencyMs float64     `json:"latency_ms,omitempty"` // Set when a response matched its query
}

// Feed receives events for live streaming. Implementations must not
// block; a slow subscriber is the feed's problem, not the listener's.
type Feed interface {
	Publish(Event)
}
