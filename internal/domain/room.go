package domain

type (
	RoomID   string
	RoomName string
)

// Room is a named broadcast channel. Membership lives in the room directory,
// not here.
type Room struct {
	ID   RoomID
	Name RoomName
}

// RoomSummary is the read-only view sent in rooms:update broadcasts.
type RoomSummary struct {
	ID        RoomID   `json:"id"`
	Name      RoomName `json:"name"`
	UserCount int      `json:"userCount"`
}
