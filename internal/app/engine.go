package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/parleyhq/parley/internal/domain"
)

// Engine is the session lifecycle controller. It owns the registry, room
// directory, and conversation buffers, and serializes every mutation behind
// one mutex so no transition observes another half-applied.
type Engine struct {
	mu sync.Mutex

	reg      *Registry
	dir      *Directory
	router   *Router
	presence *Presence

	defaultRoom domain.RoomID
	metrics     Metrics
	startedAt   time.Time
}

func NewEngine(seed []domain.Room, defaultRoom domain.RoomID, historyLimit int, metrics Metrics) *Engine {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	reg := NewRegistry()
	dir := NewDirectory(seed)
	return &Engine{
		reg:         reg,
		dir:         dir,
		router:      NewRouter(reg, dir, historyLimit),
		presence:    NewPresence(reg, dir),
		defaultRoom: defaultRoom,
		metrics:     metrics,
		startedAt:   time.Now(),
	}
}

// OnConnect is purely a transport-level event; no User exists yet.
func (e *Engine) OnConnect(token domain.ConnToken) {
	e.metrics.ConnectionOpened()
	log.Info().Str("module", "app.engine").Str("token", string(token)).Msg("connection opened")
}

type JoinedPayload struct {
	User  *domain.User         `json:"user"`
	Rooms []domain.RoomSummary `json:"rooms"`
}

// OnJoin registers the User, places it in the default room, and emits the
// personalized snapshot, the directory-wide user list, and a system join
// notice to the default room.
func (e *Engine) OnJoin(token domain.ConnToken, p domain.Profile) []Envelope {
	e.mu.Lock()
	defer e.mu.Unlock()

	user, err := e.reg.Register(token, p)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.engine").Str("token", string(token)).Msg("join dropped")
		return nil
	}
	_ = e.dir.Join(token, e.defaultRoom)
	user.CurrentRoom = e.defaultRoom

	sys := domain.NewSystemMessage(e.router.nextID(), e.defaultRoom,
		fmt.Sprintf("%s joined the chat", user.Username))

	return []Envelope{
		{To: ToConns(token), Event: EvUserJoined, Payload: JoinedPayload{User: user, Rooms: e.dir.Summaries()}},
		{To: ToAll(), Event: EvUsersUpdate, Payload: e.presence.Users()},
		{To: ToConns(e.dir.Members(e.defaultRoom)...), Event: EvMessageReceive, Payload: sys},
	}
}

type SwitchAck struct {
	RoomID   domain.RoomID   `json:"roomId"`
	RoomName domain.RoomName `json:"roomName"`
}

// OnRoomSwitch moves a user between rooms. An unknown target room is the one
// condition that suppresses every side effect: no mutation, no emission.
func (e *Engine) OnRoomSwitch(token domain.ConnToken, roomID domain.RoomID) []Envelope {
	e.mu.Lock()
	defer e.mu.Unlock()

	user, err := e.reg.Lookup(token)
	if err != nil {
		log.Warn().Str("module", "app.engine").Str("token", string(token)).Msg("room switch from unknown connection dropped")
		return nil
	}
	if !e.dir.Has(roomID) {
		log.Warn().Str("module", "app.engine").Str("room", string(roomID)).Msg("room switch to unknown room dropped")
		return nil
	}

	var out []Envelope
	if old := user.CurrentRoom; old != "" && e.dir.Has(old) {
		e.dir.Leave(token, old)
		left := domain.NewSystemMessage(e.router.nextID(), old,
			fmt.Sprintf("%s left the room", user.Username))
		out = append(out, Envelope{To: ToConns(e.dir.Members(old)...), Event: EvMessageReceive, Payload: left})
	}

	_ = e.dir.Join(token, roomID)
	user.CurrentRoom = roomID

	joined := domain.NewSystemMessage(e.router.nextID(), roomID,
		fmt.Sprintf("%s joined the room", user.Username))
	out = append(out,
		Envelope{To: ToConns(token), Event: EvRoomJoined, Payload: SwitchAck{RoomID: roomID, RoomName: e.dir.Name(roomID)}},
		Envelope{To: ToConns(e.dir.Members(roomID)...), Event: EvMessageReceive, Payload: joined},
		Envelope{To: ToAll(), Event: EvRoomsUpdate, Payload: e.dir.Summaries()},
	)
	return out
}

// OnDisconnect tears a session down. A connection that never joined is a
// silent no-op; otherwise membership and registry entries are cleaned and
// the directory-wide lists refreshed.
func (e *Engine) OnDisconnect(token domain.ConnToken) []Envelope {
	e.metrics.ConnectionClosed()

	e.mu.Lock()
	defer e.mu.Unlock()

	user, err := e.reg.Lookup(token)
	if err != nil {
		return nil
	}

	var out []Envelope
	if room := user.CurrentRoom; room != "" && e.dir.Has(room) {
		e.dir.Leave(token, room)
		sys := domain.NewSystemMessage(e.router.nextID(), room,
			fmt.Sprintf("%s left the chat", user.Username))
		out = append(out, Envelope{To: ToConns(e.dir.Members(room)...), Event: EvMessageReceive, Payload: sys})
	}
	_, _ = e.reg.Remove(token)

	out = append(out,
		Envelope{To: ToAll(), Event: EvUsersUpdate, Payload: e.presence.Users()},
		Envelope{To: ToAll(), Event: EvRoomsUpdate, Payload: e.dir.Summaries()},
	)
	log.Info().Str("module", "app.engine").Str("token", string(token)).Str("username", user.Username).Msg("user disconnected")
	return out
}

// Message paths delegate to the router under the engine lock.

func (e *Engine) SendRoom(sender domain.ConnToken, room domain.RoomID, content string) []Envelope {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.router.SendRoom(sender, room, content)
	if out != nil {
		e.metrics.MessageProcessed()
	}
	return out
}

func (e *Engine) SendPrivate(sender, recipient domain.ConnToken, content string) []Envelope {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.router.SendPrivate(sender, recipient, content)
	if out != nil {
		e.metrics.MessageProcessed()
	}
	return out
}

func (e *Engine) Typing(sender domain.ConnToken, room domain.RoomID, private bool, recipient domain.ConnToken, typing bool) []Envelope {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.router.Typing(sender, room, private, recipient, typing)
}

func (e *Engine) React(sender domain.ConnToken, messageID, reaction string, room domain.RoomID) []Envelope {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.router.React(sender, messageID, reaction, room)
}

func (e *Engine) MarkRead(reader domain.ConnToken, messageID string, room domain.RoomID) []Envelope {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.router.MarkRead(reader, messageID, room)
}

func (e *Engine) MarkReadPrivate(reader, sender domain.ConnToken) []Envelope {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.router.MarkReadPrivate(reader, sender)
}

// Conversation exposes a pair's private thread for inspection.
func (e *Engine) Conversation(a, b domain.ConnToken) []*domain.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.router.Conversation(a, b)
}

// HealthSnapshot is the pull-style view the health endpoint reads.
type HealthSnapshot struct {
	Users  int                  `json:"users"`
	Rooms  []domain.RoomSummary `json:"rooms"`
	Uptime time.Duration        `json:"-"`
}

func (e *Engine) Snapshot() HealthSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return HealthSnapshot{
		Users:  e.reg.Len(),
		Rooms:  e.dir.Summaries(),
		Uptime: time.Since(e.startedAt),
	}
}
