package board

import (
	"github.com/mcoot/othellochat/internal/model"
)

// direction is a unit step across the grid
type direction struct {
	dRow, dCol int
}

var directions = [8]direction{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// Service implements the Othello rules over a board it is handed.
// It holds no state of its own.
type Service struct{}

// New creates a new board Service
func New() *Service {
	return &Service{}
}

// LegalMoves returns the mask of empty cells where color may play.
// A cell is legal if at least one direction captures.
func (s *Service) LegalMoves(color model.Color, board *model.Board) model.MoveMask {
	mask := model.EmptyMask()
	token := color.Token()

	for row := 0; row < model.BoardSize; row++ {
		for col := 0; col < model.BoardSize; col++ {
			pos := model.Position{Row: row, Col: col}
			if !board.IsEmpty(pos) {
				continue
			}
			for _, dir := range directions {
				if captureLength(board, pos, dir, token) > 0 {
					mask[row][col] = token
					break
				}
			}
		}
	}

	return mask
}

// ApplyMove places color at pos and flips every captured line.
// Legality against the mask is the caller's job; only bounds and occupancy are checked.
// Returns the number of flipped tokens.
func (s *Service) ApplyMove(color model.Color, pos model.Position, board *model.Board) (int, error) {
	if err := s.ValidatePlacement(board, pos); err != nil {
		return 0, err
	}

	token := color.Token()

	// Measure every direction before mutating so the placed token cannot anchor its own lines
	var lengths [len(directions)]int
	for i, dir := range directions {
		lengths[i] = captureLength(board, pos, dir, token)
	}

	board.Set(pos, token)

	flipped := 0
	for i, dir := range directions {
		for step := 1; step <= lengths[i]; step++ {
			board.Set(model.Position{Row: pos.Row + step*dir.dRow, Col: pos.Col + step*dir.dCol}, token)
			flipped++
		}
	}

	return flipped, nil
}

// ValidatePlacement checks if a position is on the board and empty
func (s *Service) ValidatePlacement(board *model.Board, pos model.Position) error {
	if !model.IsValidPosition(pos) {
		return model.ErrInvalidPosition
	}
	if !board.IsEmpty(pos) {
		return model.ErrCellOccupied
	}
	return nil
}

// IsTerminal reports whether the board is full.
// A position where neither side can move but empty cells remain is not terminal.
func (s *Service) IsTerminal(board *model.Board) bool {
	return board.EmptyCount() == 0
}

// captureLength walks from pos in dir and returns how many opponent tokens lie
// between pos and the first token of the mover. Hitting an empty cell or the
// edge before such an anchor, or having no opponent token adjacent, returns 0.
func captureLength(board *model.Board, pos model.Position, dir direction, token model.Cell) int {
	count := 0
	for step := 1; step < model.BoardSize; step++ {
		next := model.Position{Row: pos.Row + step*dir.dRow, Col: pos.Col + step*dir.dCol}
		if !model.IsValidPosition(next) {
			return 0
		}
		switch board.Get(next) {
		case model.CellEmpty:
			return 0
		case token:
			return count
		default:
			count++
		}
	}
	return 0
}

// Interface for dependency injection
type ServiceInterface interface {
	LegalMoves(color model.Color, board *model.Board) model.MoveMask
	ApplyMove(color model.Color, pos model.Position, board *model.Board) (int, error)
	ValidatePlacement(board *model.Board, pos model.Position) error
	IsTerminal(board *model.Board) bool
}

var _ ServiceInterface = (*Service)(nil)
