package signal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/internal/app"
	"github.com/parleyhq/parley/internal/domain"
)

func newTestController(t *testing.T) *ChatWSController {
	t.Helper()
	engine := app.NewEngine([]domain.Room{{ID: "general", Name: "General"}}, "general", 0, nil)
	return NewChatWSController(engine, 0, time.Minute)
}

// addFakeConn wires a connection with a buffered send channel and no real
// socket; TrySend never touches the websocket.
func addFakeConn(ctl *ChatWSController, token domain.ConnToken, buf int) *WsChatConn {
	c := &WsChatConn{send: make(chan []byte, buf)}
	ctl.mu.Lock()
	ctl.conns[token] = c
	ctl.mu.Unlock()
	return c
}

func received(t *testing.T, c *WsChatConn) outFrame {
	t.Helper()
	select {
	case b := <-c.send:
		var f outFrame
		var raw struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(b, &raw))
		f.Event = raw.Event
		f.Data = raw.Data
		return f
	default:
		t.Fatal("no frame queued")
		return outFrame{}
	}
}

func TestDeliverToConns(t *testing.T) {
	ctl := newTestController(t)
	a := addFakeConn(ctl, "tok-a", 4)
	b := addFakeConn(ctl, "tok-b", 4)
	addFakeConn(ctl, "tok-c", 4)

	ctl.Deliver([]app.Envelope{{
		To:      app.ToConns("tok-a", "tok-b", "tok-ghost"),
		Event:   "message:receive",
		Payload: map[string]string{"content": "hi"},
	}})

	assert.Equal(t, "message:receive", received(t, a).Event)
	assert.Equal(t, "message:receive", received(t, b).Event)
	assert.Empty(t, ctl.conns["tok-c"].send, "unaddressed connection got nothing")
}

func TestDeliverToAll(t *testing.T) {
	ctl := newTestController(t)
	a := addFakeConn(ctl, "tok-a", 4)
	b := addFakeConn(ctl, "tok-b", 4)

	ctl.Deliver([]app.Envelope{{To: app.ToAll(), Event: "users:update", Payload: []string{}}})

	assert.Equal(t, "users:update", received(t, a).Event)
	assert.Equal(t, "users:update", received(t, b).Event)
}

func TestDeliverBackpressureDropsOnlySlowRecipient(t *testing.T) {
	ctl := newTestController(t)
	slow := addFakeConn(ctl, "tok-slow", 1)
	fast := addFakeConn(ctl, "tok-fast", 4)
	slow.send <- []byte("stuck") // fill the buffer

	ctl.Deliver([]app.Envelope{{To: app.ToAll(), Event: "rooms:update", Payload: nil}})

	assert.Len(t, slow.send, 1, "frame to the slow recipient dropped")
	assert.Equal(t, "rooms:update", received(t, fast).Event)
}

func TestTrySendAfterClose(t *testing.T) {
	c := &WsChatConn{send: make(chan []byte, 1)}
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	assert.Error(t, c.TrySend([]byte("late")))
}

func TestConnCount(t *testing.T) {
	ctl := newTestController(t)
	assert.Equal(t, 0, ctl.ConnCount())
	addFakeConn(ctl, "tok-a", 1)
	addFakeConn(ctl, "tok-b", 1)
	assert.Equal(t, 2, ctl.ConnCount())
}

func TestHandleFrameDispatchesThroughEngine(t *testing.T) {
	ctl := newTestController(t)
	a := addFakeConn(ctl, "tok-a", 8)

	ctl.handleFrame("tok-a", []byte(`{"event": "user:join", "data": {"username": "alice"}}`))

	// user:joined ack, users:update, and the system join notice all land on
	// the only connection.
	require.Len(t, a.send, 3)
	assert.Equal(t, "user:joined", received(t, a).Event)
}

func TestHandleFrameBadJSONIgnored(t *testing.T) {
	ctl := newTestController(t)
	a := addFakeConn(ctl, "tok-a", 4)

	ctl.handleFrame("tok-a", []byte(`not json`))
	assert.Empty(t, a.send)
}
