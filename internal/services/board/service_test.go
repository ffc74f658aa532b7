package board

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/othellochat/internal/model"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New()
}

func startingBoard() model.Board {
	return model.NewGame("test", time.Unix(0, 0)).Board
}

// boardFromRows builds a board from 8 strings of 8 cells each ('.' for empty)
func boardFromRows(rows ...string) model.Board {
	b := model.EmptyBoard()
	for r, line := range rows {
		for c, ch := range line {
			switch ch {
			case 'w':
				b[r][c] = model.CellWhite
			case 'b':
				b[r][c] = model.CellBlack
			}
		}
	}
	return b
}

func markedPositions(mask model.MoveMask) []model.Position {
	var positions []model.Position
	for row := 0; row < model.BoardSize; row++ {
		for col := 0; col < model.BoardSize; col++ {
			if mask[row][col] != model.CellEmpty {
				positions = append(positions, model.Position{Row: row, Col: col})
			}
		}
	}
	return positions
}

// LegalMoves tests

func (s *ServiceSuite) TestLegalMovesForBlackAtStart() {
	board := startingBoard()

	mask := s.service.LegalMoves(model.ColorBlack, &board)

	s.ElementsMatch([]model.Position{
		{Row: 2, Col: 3}, {Row: 3, Col: 2}, {Row: 4, Col: 5}, {Row: 5, Col: 4},
	}, markedPositions(mask))
	s.Equal(model.CellBlack, mask[2][3])
}

func (s *ServiceSuite) TestLegalMovesForWhiteAtStart() {
	board := startingBoard()

	mask := s.service.LegalMoves(model.ColorWhite, &board)

	s.ElementsMatch([]model.Position{
		{Row: 2, Col: 4}, {Row: 3, Col: 5}, {Row: 4, Col: 2}, {Row: 5, Col: 3},
	}, markedPositions(mask))
	s.Equal(model.CellWhite, mask[2][4])
}

func (s *ServiceSuite) TestLegalMovesIsIdempotent() {
	board := startingBoard()
	_, err := s.service.ApplyMove(model.ColorBlack, model.Position{Row: 2, Col: 3}, &board)
	s.Require().NoError(err)
	before := board

	first := s.service.LegalMoves(model.ColorWhite, &board)
	second := s.service.LegalMoves(model.ColorWhite, &board)

	s.Equal(first, second)
	s.Equal(before, board)
}

func (s *ServiceSuite) TestLegalMovesRequiresAnchor() {
	// An opponent line running into the edge is not capturable
	board := boardFromRows(
		".wwwwwww",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
	)

	mask := s.service.LegalMoves(model.ColorBlack, &board)

	s.Empty(markedPositions(mask))
}

func (s *ServiceSuite) TestLegalMovesStopsAtEmptyGap() {
	board := boardFromRows(
		".w.b....",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
	)

	mask := s.service.LegalMoves(model.ColorBlack, &board)

	s.Empty(markedPositions(mask))
}

func (s *ServiceSuite) TestLegalMovesAdjacentSameColorIsNotSupport() {
	board := boardFromRows(
		".bw.....",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
	)

	mask := s.service.LegalMoves(model.ColorBlack, &board)

	s.Equal([]model.Position{{Row: 0, Col: 3}}, markedPositions(mask))
}

func (s *ServiceSuite) TestLegalMovesLongLine() {
	board := boardFromRows(
		".wwwwwwb",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
	)

	mask := s.service.LegalMoves(model.ColorBlack, &board)

	s.Equal(model.CellBlack, mask[0][0])
}

// ApplyMove tests

func (s *ServiceSuite) TestApplyMoveOpeningScenario() {
	board := startingBoard()

	flipped, err := s.service.ApplyMove(model.ColorBlack, model.Position{Row: 2, Col: 3}, &board)
	s.Require().NoError(err)

	s.Equal(1, flipped)
	s.Equal(model.CellBlack, board[2][3])
	s.Equal(model.CellBlack, board[3][3])
	s.Equal(model.CellBlack, board[3][4])
	s.Equal(model.CellBlack, board[4][3])
	s.Equal(model.CellWhite, board[4][4])
	s.Equal(4, board.Count(model.CellBlack))
	s.Equal(1, board.Count(model.CellWhite))
}

func (s *ServiceSuite) TestApplyMoveFlipsMultipleDirections() {
	board := boardFromRows(
		"b...b...",
		".w.w....",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
	)
	flipped, err := s.service.ApplyMove(model.ColorBlack, model.Position{Row: 2, Col: 2}, &board)
	s.Require().NoError(err)

	s.Equal(2, flipped)
	s.Equal(model.CellBlack, board[1][1])
	s.Equal(model.CellBlack, board[1][3])
}

func (s *ServiceSuite) TestApplyMoveDoesNotFlipUnanchoredDirection() {
	board := boardFromRows(
		"........",
		"........",
		"..wwwwww",
		".w......",
		"b.......",
		"........",
		"........",
		"........",
	)

	flipped, err := s.service.ApplyMove(model.ColorBlack, model.Position{Row: 2, Col: 1}, &board)
	s.Require().NoError(err)

	s.Equal(0, flipped)
	s.Equal(model.CellWhite, board[2][2])
	s.Equal(model.CellWhite, board[2][7])
	s.Equal(model.CellWhite, board[3][1])
}

func (s *ServiceSuite) TestApplyMoveRejectsOccupied() {
	board := startingBoard()
	before := board

	_, err := s.service.ApplyMove(model.ColorBlack, model.Position{Row: 3, Col: 3}, &board)

	s.ErrorIs(err, model.ErrCellOccupied)
	s.Equal(before, board)
}

func (s *ServiceSuite) TestApplyMoveRejectsOffBoard() {
	board := startingBoard()

	_, err := s.service.ApplyMove(model.ColorBlack, model.Position{Row: 8, Col: 0}, &board)
	s.ErrorIs(err, model.ErrInvalidPosition)

	_, err = s.service.ApplyMove(model.ColorBlack, model.Position{Row: 0, Col: -1}, &board)
	s.ErrorIs(err, model.ErrInvalidPosition)
}

// A cell flips in some direction exactly when the mask marked the move as legal.
func (s *ServiceSuite) TestFlipLegalityConsistency() {
	rng := rand.New(rand.NewSource(7))

	for game := 0; game < 50; game++ {
		board := startingBoard()
		color := model.ColorBlack

		for turn := 0; turn < 60; turn++ {
			mask := s.service.LegalMoves(color, &board)

			for row := 0; row < model.BoardSize; row++ {
				for col := 0; col < model.BoardSize; col++ {
					pos := model.Position{Row: row, Col: col}
					if !board.IsEmpty(pos) {
						continue
					}
					trial := board
					flipped, err := s.service.ApplyMove(color, pos, &trial)
					s.Require().NoError(err)
					s.Equal(mask[row][col] != model.CellEmpty, flipped > 0,
						"position %v for %s", pos, color)
				}
			}

			legal := markedPositions(mask)
			if len(legal) == 0 {
				color = color.Opponent()
				if len(markedPositions(s.service.LegalMoves(color, &board))) == 0 {
					break
				}
				continue
			}
			_, err := s.service.ApplyMove(color, legal[rng.Intn(len(legal))], &board)
			s.Require().NoError(err)
			color = color.Opponent()
		}
	}
}

// IsTerminal tests

func (s *ServiceSuite) TestIsTerminalOnFullBoard() {
	board := model.EmptyBoard()
	for row := 0; row < model.BoardSize; row++ {
		for col := 0; col < model.BoardSize; col++ {
			board[row][col] = model.CellWhite
		}
	}
	board[7][7] = model.CellBlack

	s.True(s.service.IsTerminal(&board))
}

func (s *ServiceSuite) TestIsTerminalFalseWithOneEmptyCell() {
	board := model.EmptyBoard()
	for row := 0; row < model.BoardSize; row++ {
		for col := 0; col < model.BoardSize; col++ {
			board[row][col] = model.CellBlack
		}
	}
	board[0][0] = model.CellEmpty

	s.False(s.service.IsTerminal(&board))
}

// Standard Othello ends when neither side can move. Only a full board counts here.
func (s *ServiceSuite) TestIsTerminalIgnoresBlockedPosition() {
	board := boardFromRows(
		"bbbbbbbb",
		"bbbbbbbb",
		"bbbbbbbb",
		"bbbbbbbb",
		"bbbbbbbb",
		"bbbbbbbb",
		"bbbbbbbb",
		"bbbbbbb.",
	)

	s.Empty(markedPositions(s.service.LegalMoves(model.ColorWhite, &board)))
	s.Empty(markedPositions(s.service.LegalMoves(model.ColorBlack, &board)))
	s.False(s.service.IsTerminal(&board))
}
