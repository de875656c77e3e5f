package app

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/parleyhq/parley/internal/domain"
)

var (
	ErrDuplicateConnection = errors.New("connection already registered")
	ErrNotFound            = errors.New("not found")
)

// Registry exclusively owns User records, keyed by connection token. It is
// not safe for concurrent use on its own; the engine serializes all access
// behind its mutex.
type Registry struct {
	users map[domain.ConnToken]*domain.User
	order []domain.ConnToken
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[domain.ConnToken]*domain.User)}
}

// Register creates the User for a token. The transport guarantees token
// uniqueness across live connections; a second register on the same token is
// a protocol violation and is rejected.
func (r *Registry) Register(token domain.ConnToken, p domain.Profile) (*domain.User, error) {
	if _, ok := r.users[token]; ok {
		return nil, ErrDuplicateConnection
	}
	u, err := domain.NewUser(token, p)
	if err != nil {
		return nil, err
	}
	r.users[token] = u
	r.order = append(r.order, token)
	log.Info().Str("module", "app.registry").Str("token", string(token)).Str("username", u.Username).Msg("registered user")
	return u, nil
}

func (r *Registry) Lookup(token domain.ConnToken) (*domain.User, error) {
	u, ok := r.users[token]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

// Remove deletes the User and returns it so callers can emit departure
// notices with its name.
func (r *Registry) Remove(token domain.ConnToken) (*domain.User, error) {
	u, ok := r.users[token]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.users, token)
	for i, t := range r.order {
		if t == token {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	log.Info().Str("module", "app.registry").Str("token", string(token)).Msg("removed user")
	return u, nil
}

func (r *Registry) Len() int { return len(r.users) }

// Snapshot copies all Users in registration order.
func (r *Registry) Snapshot() []domain.User {
	out := make([]domain.User, 0, len(r.order))
	for _, t := range r.order {
		if u, ok := r.users[t]; ok {
			out = append(out, *u)
		}
	}
	return out
}
