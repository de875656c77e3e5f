package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/parleyhq/parley/internal/domain"
)

var ErrUnknownRoom = errors.New("unknown room")

type roomEntry struct {
	room    domain.Room
	members map[domain.ConnToken]struct{}
}

// Directory owns the fixed set of rooms and their membership sets. Rooms are
// seeded once at startup and never created or deleted at runtime. Like the
// registry, access is serialized by the engine.
type Directory struct {
	rooms map[domain.RoomID]*roomEntry
	order []domain.RoomID
}

func NewDirectory(seed []domain.Room) *Directory {
	d := &Directory{rooms: make(map[domain.RoomID]*roomEntry, len(seed))}
	for _, r := range seed {
		if _, ok := d.rooms[r.ID]; ok {
			continue
		}
		d.rooms[r.ID] = &roomEntry{room: r, members: make(map[domain.ConnToken]struct{})}
		d.order = append(d.order, r.ID)
	}
	return d
}

func (d *Directory) Has(id domain.RoomID) bool {
	_, ok := d.rooms[id]
	return ok
}

func (d *Directory) Name(id domain.RoomID) domain.RoomName {
	if e, ok := d.rooms[id]; ok {
		return e.room.Name
	}
	return ""
}

func (d *Directory) Join(token domain.ConnToken, id domain.RoomID) error {
	e, ok := d.rooms[id]
	if !ok {
		return ErrUnknownRoom
	}
	e.members[token] = struct{}{}
	log.Debug().Str("module", "app.rooms").Str("token", string(token)).Str("room", string(id)).Msg("member added")
	return nil
}

// Leave is a no-op when the token is not a member or the room is unknown.
func (d *Directory) Leave(token domain.ConnToken, id domain.RoomID) {
	if e, ok := d.rooms[id]; ok {
		delete(e.members, token)
		log.Debug().Str("module", "app.rooms").Str("token", string(token)).Str("room", string(id)).Msg("member removed")
	}
}

// Members returns the membership set of a room, empty for unknown rooms.
func (d *Directory) Members(id domain.RoomID) []domain.ConnToken {
	e, ok := d.rooms[id]
	if !ok {
		return nil
	}
	out := make([]domain.ConnToken, 0, len(e.members))
	for t := range e.members {
		out = append(out, t)
	}
	return out
}

// Summaries lists every room in seed order for deterministic output.
func (d *Directory) Summaries() []domain.RoomSummary {
	out := make([]domain.RoomSummary, 0, len(d.order))
	for _, id := range d.order {
		e := d.rooms[id]
		out = append(out, domain.RoomSummary{ID: id, Name: e.room.Name, UserCount: len(e.members)})
	}
	return out
}
