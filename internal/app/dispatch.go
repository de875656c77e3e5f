package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/parleyhq/parley/internal/domain"
)

// Inbound event names on the wire.
const (
	InUserJoin    = "user:join"
	InRoomJoin    = "room:join"
	InMessageSend = "message:send"
	InPrivateSend = "private:send"
	InTypingStart = "typing:start"
	InTypingStop  = "typing:stop"
	InReact       = "message:react"
	InRead        = "message:read"
	InPrivateRead = "private:read"
)

type roomJoinPayload struct {
	RoomID domain.RoomID `json:"roomId"`
}

type messageSendPayload struct {
	Content string        `json:"content"`
	Room    domain.RoomID `json:"room,omitempty"`
}

type privateSendPayload struct {
	RecipientID domain.ConnToken `json:"recipientId"`
	Content     string           `json:"content"`
}

type typingPayload struct {
	Room        domain.RoomID    `json:"room,omitempty"`
	IsPrivate   bool             `json:"isPrivate,omitempty"`
	RecipientID domain.ConnToken `json:"recipientId,omitempty"`
}

type reactPayload struct {
	MessageID string        `json:"messageId"`
	Reaction  string        `json:"reaction"`
	Room      domain.RoomID `json:"room"`
}

type readPayload struct {
	MessageID string        `json:"messageId"`
	Room      domain.RoomID `json:"room"`
}

type privateReadPayload struct {
	SenderID domain.ConnToken `json:"senderId"`
}

type handler func(e *Engine, token domain.ConnToken, data json.RawMessage) []Envelope

// handlers maps an inbound event kind to its transition. Decoding failures
// and unknown kinds drop the event; the connection stays open either way.
var handlers = map[string]handler{
	InUserJoin: func(e *Engine, token domain.ConnToken, data json.RawMessage) []Envelope {
		var p domain.Profile
		if !decode(InUserJoin, data, &p) {
			return nil
		}
		return e.OnJoin(token, p)
	},
	InRoomJoin: func(e *Engine, token domain.ConnToken, data json.RawMessage) []Envelope {
		var p roomJoinPayload
		if !decode(InRoomJoin, data, &p) {
			return nil
		}
		return e.OnRoomSwitch(token, p.RoomID)
	},
	InMessageSend: func(e *Engine, token domain.ConnToken, data json.RawMessage) []Envelope {
		var p messageSendPayload
		if !decode(InMessageSend, data, &p) {
			return nil
		}
		return e.SendRoom(token, p.Room, p.Content)
	},
	InPrivateSend: func(e *Engine, token domain.ConnToken, data json.RawMessage) []Envelope {
		var p privateSendPayload
		if !decode(InPrivateSend, data, &p) {
			return nil
		}
		return e.SendPrivate(token, p.RecipientID, p.Content)
	},
	InTypingStart: func(e *Engine, token domain.ConnToken, data json.RawMessage) []Envelope {
		var p typingPayload
		if !decode(InTypingStart, data, &p) {
			return nil
		}
		return e.Typing(token, p.Room, p.IsPrivate, p.RecipientID, true)
	},
	InTypingStop: func(e *Engine, token domain.ConnToken, data json.RawMessage) []Envelope {
		var p typingPayload
		if !decode(InTypingStop, data, &p) {
			return nil
		}
		return e.Typing(token, p.Room, p.IsPrivate, p.RecipientID, false)
	},
	InReact: func(e *Engine, token domain.ConnToken, data json.RawMessage) []Envelope {
		var p reactPayload
		if !decode(InReact, data, &p) {
			return nil
		}
		return e.React(token, p.MessageID, p.Reaction, p.Room)
	},
	InRead: func(e *Engine, token domain.ConnToken, data json.RawMessage) []Envelope {
		var p readPayload
		if !decode(InRead, data, &p) {
			return nil
		}
		return e.MarkRead(token, p.MessageID, p.Room)
	},
	InPrivateRead: func(e *Engine, token domain.ConnToken, data json.RawMessage) []Envelope {
		var p privateReadPayload
		if !decode(InPrivateRead, data, &p) {
			return nil
		}
		return e.MarkReadPrivate(token, p.SenderID)
	},
}

func decode(event string, data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("module", "app.dispatch").Str("event", event).Msg("bad payload dropped")
		return false
	}
	return true
}

// Dispatch routes one inbound event to its transition and returns the
// outbound envelopes. Unknown events are dropped with a log line.
func (e *Engine) Dispatch(token domain.ConnToken, event string, data json.RawMessage) []Envelope {
	h, ok := handlers[event]
	if !ok {
		log.Warn().Str("module", "app.dispatch").Str("event", event).Msg("unknown event dropped")
		return nil
	}
	return h(e, token, data)
}
