package app

import "github.com/parleyhq/parley/internal/domain"

// Presence projects user and room summaries out of the registry and
// directory. Pure reads, no mutation.
type Presence struct {
	reg *Registry
	dir *Directory
}

func NewPresence(reg *Registry, dir *Directory) *Presence {
	return &Presence{reg: reg, dir: dir}
}

// Users lists every registered user in registration order.
func (p *Presence) Users() []domain.User { return p.reg.Snapshot() }

// Rooms lists every room in seed order.
func (p *Presence) Rooms() []domain.RoomSummary { return p.dir.Summaries() }
