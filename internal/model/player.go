package model

// ConnectionID identifies one live client connection
type ConnectionID string

// RoomName names a broadcast group
type RoomName string

// LobbyRoom is the reserved chat-only room
const LobbyRoom RoomName = "Lobby"

// IsLobby returns true for the reserved lobby name
func (r RoomName) IsLobby() bool {
	return r == LobbyRoom
}

// Player is a connection that has joined a room under a display name
type Player struct {
	ID       ConnectionID `json:"socket_id"`
	Username string       `json:"username"`
	Room     RoomName     `json:"room"`
}

// Contains reports whether conn is among members
func Contains(members []ConnectionID, conn ConnectionID) bool {
	for _, m := range members {
		if m == conn {
			return true
		}
	}
	return false
}
