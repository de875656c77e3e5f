// Package domain contains entities without logic, just meta-data.
package domain

import (
	"errors"
	"fmt"
	"net/url"
)

const MaxUsernameLen = 36

var (
	ErrUsernameEmpty   = errors.New("username empty")
	ErrUsernameTooLong = errors.New("username too long")
)

// ConnToken is the opaque identifier the transport assigns to a live session.
type ConnToken string

// User is a joined chat participant. Its ID equals the connection token that
// created it; the user dies with the connection.
type User struct {
	ID          ConnToken `json:"id"`
	Username    string    `json:"username"`
	Avatar      string    `json:"avatar"`
	Online      bool      `json:"online"`
	CurrentRoom RoomID    `json:"currentRoom"`
}

// Profile is what a client supplies on join.
type Profile struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// NewUser validates the profile and fills the avatar fallback.
func NewUser(token ConnToken, p Profile) (*User, error) {
	if len(p.Username) == 0 {
		return nil, ErrUsernameEmpty
	}
	if len(p.Username) > MaxUsernameLen {
		return nil, ErrUsernameTooLong
	}
	avatar := p.Avatar
	if avatar == "" {
		avatar = PlaceholderAvatar(p.Username)
	}
	return &User{ID: token, Username: p.Username, Avatar: avatar, Online: true}, nil
}

// PlaceholderAvatar derives a deterministic avatar URL from the username.
func PlaceholderAvatar(username string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", url.QueryEscape(username))
}

// Summary is the sender view embedded in messages.
type Summary struct {
	ID       ConnToken `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar,omitempty"`
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}
