package events

import (
	"encoding/json"
	"testing"
	"time"

	"autoapply-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeEventEnvelope(t *testing.T) {
	raw := MakeEvent("req-1", TypeLog, 1, map[string]string{"message": "hi"})

	var e Event
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	assert.Equal(t, TypeLog, e.Type)
	assert.Equal(t, 1, e.Version)
	assert.Equal(t, "req-1", e.RequestID)
	assert.JSONEq(t, `{"message":"hi"}`, string(e.Data))
	assert.False(t, e.At.IsZero())
}

func TestHubEmitReachesSubscribers(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	defer h.Unsubscribe(b)
	assert.Equal(t, 2, h.Subscribers())

	h.Emit(domain.LogEvent{Category: domain.CategorySuccess, Message: "applied", At: time.Now()})

	for _, ch := range []chan string{a, b} {
		select {
		case raw := <-ch:
			var e Event
			require.NoError(t, json.Unmarshal([]byte(raw), &e))
			assert.Equal(t, TypeLog, e.Type)
			var ev domain.LogEvent
			require.NoError(t, json.Unmarshal(e.Data, &ev))
			assert.Equal(t, "applied", ev.Message)
			assert.Equal(t, domain.CategorySuccess, ev.Category)
		default:
			t.Fatal("subscriber did not receive the event")
		}
	}

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	assert.Equal(t, 1, h.Subscribers())
}

func TestHubDropsForSlowSubscribers(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	for i := 0; i < cap(ch)+10; i++ {
		h.Publish("x")
	}
	assert.Len(t, ch, cap(ch))
}

func TestFanoutKeepsOrderAndSkipsNil(t *testing.T) {
	var got []string
	rec := func(name string) Sink {
		return SinkFunc(func(ev domain.LogEvent) { got = append(got, name+":"+ev.Message) })
	}

	f := Fanout{rec("a"), nil, rec("b")}
	f.Emit(domain.LogEvent{Message: "1"})
	f.Emit(domain.LogEvent{Message: "2"})

	assert.Equal(t, []string{"a:1", "b:1", "a:2", "b:2"}, got)
	Discard.Emit(domain.LogEvent{Message: "ignored"})
}
