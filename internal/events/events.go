package events

import (
	"encoding/json"
	"time"

	"autoapply-engine/internal/domain"
)

// SSE event types.
const (
	TypeLog         = "log"
	TypeBotStatus   = "bot_status"
	TypeApplyStatus = "apply_status"
	TypePostings    = "postings"
	TypeSearch      = "search_status"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// Sink receives the bot's log in order. Emit must not block the caller for
// long; implementations drop or log on failure.
type Sink interface {
	Emit(ev domain.LogEvent)
}

type SinkFunc func(ev domain.LogEvent)

func (f SinkFunc) Emit(ev domain.LogEvent) { f(ev) }

// Fanout forwards every event to each sink in order. Nil sinks are skipped.
type Fanout []Sink

func (f Fanout) Emit(ev domain.LogEvent) {
	for _, s := range f {
		if s != nil {
			s.Emit(ev)
		}
	}
}

// Discard drops everything.
var Discard Sink = SinkFunc(func(domain.LogEvent) {})
