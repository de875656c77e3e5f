// Package app holds the chat engine: connection registry, room directory,
// presence projection, message routing, and the session lifecycle controller
// that ties them together behind a single lock.
package app

import "github.com/parleyhq/parley/internal/domain"

// Outbound event names on the wire.
const (
	EvUserJoined        = "user:joined"
	EvUsersUpdate       = "users:update"
	EvRoomsUpdate       = "rooms:update"
	EvRoomJoined        = "room:joined"
	EvMessageReceive    = "message:receive"
	EvMessageSent       = "message:sent"
	EvPrivateReceive    = "private:receive"
	EvTypingUpdate      = "typing:update"
	EvMessageReaction   = "message:reaction"
	EvMessageReadUpdate = "message:read:update"
	EvPrivateReadUpdate = "private:read:update"
)

// Address says who receives an envelope. All means every live connection,
// joined or not; otherwise the listed connection tokens.
type Address struct {
	All   bool
	Conns []domain.ConnToken
}

func ToAll() Address { return Address{All: true} }

func ToConns(tokens ...domain.ConnToken) Address { return Address{Conns: tokens} }

// Envelope is one outbound event plus its addressing. Transitions return
// envelopes; the transport adapter delivers them in order.
type Envelope struct {
	To      Address
	Event   string
	Payload any
}
