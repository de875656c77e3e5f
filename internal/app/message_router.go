package app

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/parleyhq/parley/internal/domain"
)

// DefaultHistoryLimit bounds a private conversation buffer; the oldest
// message is evicted past it.
const DefaultHistoryLimit = 200

// Router validates and addresses broadcast, private, typing, reaction, and
// read-receipt events. It owns the per-pair conversation buffers. Serialized
// by the engine.
type Router struct {
	reg *Registry
	dir *Directory

	conversations map[string][]*domain.Message
	historyLimit  int
	seq           int64
}

func NewRouter(reg *Registry, dir *Directory, historyLimit int) *Router {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Router{
		reg:           reg,
		dir:           dir,
		conversations: make(map[string][]*domain.Message),
		historyLimit:  historyLimit,
	}
}

// nextID is monotonic-enough for display ordering within one process.
func (r *Router) nextID() string {
	r.seq++
	return fmt.Sprintf("%d-%d", time.Now().UnixMilli(), r.seq)
}

// pairKey canonicalizes a user pair so both directions share one buffer.
func pairKey(a, b domain.ConnToken) string {
	s := []string{string(a), string(b)}
	sort.Strings(s)
	return s[0] + "-" + s[1]
}

type SentAck struct {
	MessageID string `json:"messageId"`
	Success   bool   `json:"success"`
}

// SendRoom broadcasts a user message to every member of the target room,
// sender included, and acks the send to the sender alone. An empty room
// defaults to the sender's current room.
func (r *Router) SendRoom(sender domain.ConnToken, room domain.RoomID, content string) []Envelope {
	user, err := r.reg.Lookup(sender)
	if err != nil {
		log.Warn().Str("module", "app.router").Str("token", string(sender)).Msg("room send from unknown sender dropped")
		return nil
	}
	if room == "" {
		room = user.CurrentRoom
	}
	msg := domain.NewRoomMessage(r.nextID(), user, room, content)
	return []Envelope{
		{To: ToConns(r.dir.Members(room)...), Event: EvMessageReceive, Payload: msg},
		{To: ToConns(sender), Event: EvMessageSent, Payload: SentAck{MessageID: msg.ID, Success: true}},
	}
}

// SendPrivate delivers to exactly the recipient and the sender (its copy is
// the record of having sent), and appends to the pair's buffer. A missing
// party drops the event silently; best effort, no error surfaces.
func (r *Router) SendPrivate(sender, recipient domain.ConnToken, content string) []Envelope {
	from, err := r.reg.Lookup(sender)
	if err != nil {
		log.Warn().Str("module", "app.router").Str("token", string(sender)).Msg("private send from unknown sender dropped")
		return nil
	}
	to, err := r.reg.Lookup(recipient)
	if err != nil {
		log.Warn().Str("module", "app.router").Str("token", string(recipient)).Msg("private send to unknown recipient dropped")
		return nil
	}
	msg := domain.NewPrivateMessage(r.nextID(), from, to, content)

	key := pairKey(sender, recipient)
	buf := append(r.conversations[key], msg)
	if len(buf) > r.historyLimit {
		buf = buf[len(buf)-r.historyLimit:]
	}
	r.conversations[key] = buf

	return []Envelope{
		{To: ToConns(recipient, sender), Event: EvPrivateReceive, Payload: msg},
	}
}

// Conversation returns the buffered thread for a pair, argument order
// irrelevant.
func (r *Router) Conversation(a, b domain.ConnToken) []*domain.Message {
	return r.conversations[pairKey(a, b)]
}

type TypingUpdate struct {
	UserID    domain.ConnToken `json:"userId"`
	Username  string           `json:"username"`
	IsTyping  bool             `json:"isTyping"`
	IsPrivate bool             `json:"isPrivate,omitempty"`
	Room      domain.RoomID    `json:"room,omitempty"`
}

// Typing addresses a start/stop indicator either to one recipient (private
// mode) or to all other members of a room, sender excluded. Nothing is
// buffered; clients pair these with their own timeout.
func (r *Router) Typing(sender domain.ConnToken, room domain.RoomID, private bool, recipient domain.ConnToken, typing bool) []Envelope {
	user, err := r.reg.Lookup(sender)
	if err != nil {
		return nil
	}
	if private && recipient != "" {
		if _, err := r.reg.Lookup(recipient); err != nil {
			return nil
		}
		return []Envelope{{
			To:      ToConns(recipient),
			Event:   EvTypingUpdate,
			Payload: TypingUpdate{UserID: sender, Username: user.Username, IsTyping: typing, IsPrivate: true},
		}}
	}
	if room == "" {
		return nil
	}
	var others []domain.ConnToken
	for _, t := range r.dir.Members(room) {
		if t != sender {
			others = append(others, t)
		}
	}
	return []Envelope{{
		To:      ToConns(others...),
		Event:   EvTypingUpdate,
		Payload: TypingUpdate{UserID: sender, Username: user.Username, IsTyping: typing, Room: room},
	}}
}

type ReactionUpdate struct {
	MessageID string           `json:"messageId"`
	Reaction  string           `json:"reaction"`
	UserID    domain.ConnToken `json:"userId"`
	Username  string           `json:"username"`
}

// React broadcasts a reaction to the whole room. Consumers apply last-write-
// wins per (user, reaction kind); no server-side tally is kept since room
// messages are not stored.
func (r *Router) React(sender domain.ConnToken, messageID, reaction string, room domain.RoomID) []Envelope {
	user, err := r.reg.Lookup(sender)
	if err != nil {
		return nil
	}
	return []Envelope{{
		To:      ToConns(r.dir.Members(room)...),
		Event:   EvMessageReaction,
		Payload: ReactionUpdate{MessageID: messageID, Reaction: reaction, UserID: sender, Username: user.Username},
	}}
}

type ReadUpdate struct {
	MessageID string           `json:"messageId,omitempty"`
	ReadBy    domain.ConnToken `json:"readBy"`
}

// MarkRead broadcasts to the room that reader has read a message. No tally
// is kept server-side.
func (r *Router) MarkRead(reader domain.ConnToken, messageID string, room domain.RoomID) []Envelope {
	return []Envelope{{
		To:      ToConns(r.dir.Members(room)...),
		Event:   EvMessageReadUpdate,
		Payload: ReadUpdate{MessageID: messageID, ReadBy: reader},
	}}
}

// MarkReadPrivate notifies only the original sender of a private thread.
func (r *Router) MarkReadPrivate(reader, sender domain.ConnToken) []Envelope {
	return []Envelope{{
		To:      ToConns(sender),
		Event:   EvPrivateReadUpdate,
		Payload: ReadUpdate{ReadBy: reader},
	}}
}
