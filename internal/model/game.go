package model

import "time"

// GameID uniquely identifies a game. It doubles as the name of the game's room.
type GameID string

// Room returns the channel name the game's players join
func (id GameID) Room() RoomName {
	return RoomName(id)
}

// Color is a side in the game
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// ParseColor converts a client-supplied color name
func ParseColor(s string) (Color, bool) {
	switch Color(s) {
	case ColorWhite, ColorBlack:
		return Color(s), true
	default:
		return "", false
	}
}

// Token returns the board cell value for this color
func (c Color) Token() Cell {
	if c == ColorWhite {
		return CellWhite
	}
	return CellBlack
}

// Opponent returns the other color
func (c Color) Opponent() Color {
	if c == ColorWhite {
		return ColorBlack
	}
	return ColorWhite
}

// Seat records which connection plays a color
type Seat struct {
	Socket   ConnectionID `json:"socket"`
	Username string       `json:"username"`
}

// IsEmpty returns true if nobody holds the seat
func (s Seat) IsEmpty() bool {
	return s.Socket == ""
}

// Game is the state of a single match
type Game struct {
	ID           GameID   `json:"game_id"`
	PlayerWhite  Seat     `json:"player_white"`
	PlayerBlack  Seat     `json:"player_black"`
	LastMoveTime int64    `json:"last_move_time"` // epoch millis
	WhoseTurn    Color    `json:"whose_turn"`
	Board        Board    `json:"board"`
	LegalMoves   MoveMask `json:"legal_moves"`
}

// NewGame creates a game with the standard starting position, black to move.
// LegalMoves is left empty; the board engine computes it.
func NewGame(id GameID, now time.Time) *Game {
	board := EmptyBoard()
	board[3][3] = CellWhite
	board[3][4] = CellBlack
	board[4][3] = CellBlack
	board[4][4] = CellWhite

	return &Game{
		ID:           id,
		LastMoveTime: now.UnixMilli(),
		WhoseTurn:    ColorBlack,
		Board:        board,
		LegalMoves:   EmptyMask(),
	}
}

// SeatFor returns the seat for the given color
func (g *Game) SeatFor(color Color) Seat {
	if color == ColorWhite {
		return g.PlayerWhite
	}
	return g.PlayerBlack
}

// IsSeated returns true if the connection holds either seat
func (g *Game) IsSeated(conn ConnectionID) bool {
	return conn != "" && (g.PlayerWhite.Socket == conn || g.PlayerBlack.Socket == conn)
}

// SeatedCount returns how many seats are taken
func (g *Game) SeatedCount() int {
	count := 0
	if !g.PlayerWhite.IsEmpty() {
		count++
	}
	if !g.PlayerBlack.IsEmpty() {
		count++
	}
	return count
}
