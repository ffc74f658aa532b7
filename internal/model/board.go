package model

// BoardSize is the dimension of the Othello grid
const BoardSize = 8

// Cell is the content of a single board square
type Cell string

const (
	CellEmpty Cell = " "
	CellWhite Cell = "w"
	CellBlack Cell = "b"
)

// Position identifies a cell on the board
type Position struct {
	Row int // 0-indexed from top
	Col int // 0-indexed from left
}

// Board is the 8x8 grid, row-major: Board[row][col]
type Board [BoardSize][BoardSize]Cell

// MoveMask marks the cells the next mover may play with that mover's token.
// Unmarked cells hold CellEmpty.
type MoveMask [BoardSize][BoardSize]Cell

// EmptyBoard returns a board with every cell empty
func EmptyBoard() Board {
	var b Board
	for row := range b {
		for col := range b[row] {
			b[row][col] = CellEmpty
		}
	}
	return b
}

// EmptyMask returns a mask with no cell marked
func EmptyMask() MoveMask {
	var m MoveMask
	for row := range m {
		for col := range m[row] {
			m[row][col] = CellEmpty
		}
	}
	return m
}

// IsValidPosition returns true if the position is within bounds
func IsValidPosition(pos Position) bool {
	return pos.Row >= 0 && pos.Row < BoardSize && pos.Col >= 0 && pos.Col < BoardSize
}

// Get returns the cell at the given position, or CellEmpty if off the board
func (b *Board) Get(pos Position) Cell {
	if !IsValidPosition(pos) {
		return CellEmpty
	}
	return b[pos.Row][pos.Col]
}

// Set places a token at the given position
func (b *Board) Set(pos Position, cell Cell) {
	if IsValidPosition(pos) {
		b[pos.Row][pos.Col] = cell
	}
}

// IsEmpty returns true if the cell at the given position is empty
func (b *Board) IsEmpty(pos Position) bool {
	return b.Get(pos) == CellEmpty
}

// EmptyCount returns the number of empty cells
func (b *Board) EmptyCount() int {
	return b.Count(CellEmpty)
}

// Count returns the number of cells holding the given value
func (b *Board) Count(cell Cell) int {
	count := 0
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if b[row][col] == cell {
				count++
			}
		}
	}
	return count
}

// Get returns the mark at the given position, or CellEmpty if off the board
func (m *MoveMask) Get(pos Position) Cell {
	if !IsValidPosition(pos) {
		return CellEmpty
	}
	return m[pos.Row][pos.Col]
}

// Count returns the number of marked cells
func (m *MoveMask) Count() int {
	count := 0
	for row := 0; row < BoardSize; row++ {
		for col := 0; col < BoardSize; col++ {
			if m[row][col] != CellEmpty {
				count++
			}
		}
	}
	return count
}
