package domain

import "time"

type MessageType string

const (
	MessageSystem  MessageType = "system"
	MessageUser    MessageType = "user"
	MessagePrivate MessageType = "private"
)

// Message is immutable once emitted. System messages carry no sender, user
// messages target a room, private messages target exactly one recipient.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Sender    *Summary    `json:"sender,omitempty"`
	Recipient *Summary    `json:"recipient,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Room      RoomID      `json:"room,omitempty"`

	// Reactions maps reaction kind to the set of reactor tokens. Last write
	// wins per (user, reaction kind). Only user messages carry it.
	Reactions map[string][]ConnToken `json:"reactions,omitempty"`
	ReadBy    []ConnToken            `json:"readBy,omitempty"`
	Read      bool                   `json:"read,omitempty"`
}

// NewSystemMessage announces a lifecycle transition to a room.
func NewSystemMessage(id string, room RoomID, content string) *Message {
	return &Message{
		ID:        id,
		Type:      MessageSystem,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Room:      room,
	}
}

// NewRoomMessage is a user broadcast; the sender starts in the read-by set.
func NewRoomMessage(id string, sender *User, room RoomID, content string) *Message {
	s := sender.Summary()
	return &Message{
		ID:        id,
		Type:      MessageUser,
		Content:   content,
		Sender:    &s,
		Timestamp: time.Now().UTC(),
		Room:      room,
		Reactions: map[string][]ConnToken{},
		ReadBy:    []ConnToken{sender.ID},
	}
}

// NewPrivateMessage is delivered to exactly the two participants.
func NewPrivateMessage(id string, sender, recipient *User, content string) *Message {
	s := sender.Summary()
	r := Summary{ID: recipient.ID, Username: recipient.Username}
	return &Message{
		ID:        id,
		Type:      MessagePrivate,
		Content:   content,
		Sender:    &s,
		Recipient: &r,
		Timestamp: time.Now().UTC(),
	}
}
