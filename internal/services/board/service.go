package board

import (
	"github.com/mcoot/tictacnet/internal/model"
)

// WinLength is the number of consecutive equal symbols that wins a match
const WinLength = 3

// Verdict is the outcome of scanning a board, independent of who holds each symbol
type Verdict struct {
	Outcome model.Outcome
	Symbol  int              // winning symbol, 0 unless Outcome is winner
	Cells   []model.Position // winning cells in scan order
}

// Service provides board operations
type Service struct{}

// New creates a new board Service
func New() *Service {
	return &Service{}
}

// CreateBoard returns an empty board sized for the given number of participants
func (s *Service) CreateBoard(participants int) *model.Board {
	return model.NewBoard(participants + 1)
}

// PlaceSymbol validates the position and writes the symbol
func (s *Service) PlaceSymbol(board *model.Board, symbol int, pos model.Position) error {
	if err := s.ValidatePlacement(board, pos); err != nil {
		return err
	}
	board.Set(pos, symbol)
	return nil
}

// ValidatePlacement checks if a position is valid and empty
func (s *Service) ValidatePlacement(board *model.Board, pos model.Position) error {
	if !board.IsValidPosition(pos) {
		return model.ErrInvalidPosition
	}
	if !board.IsEmpty(pos) {
		return model.ErrCellOccupied
	}
	return nil
}

// Evaluate scans the board for symbols 1..symbols in canonical order:
// per symbol, rows top to bottom, columns left to right, main diagonal, anti-diagonal.
// The first run of WinLength equal cells wins.
func (s *Service) Evaluate(board *model.Board, symbols int) Verdict {
	for symbol := 1; symbol <= symbols; symbol++ {
		for _, line := range lines(board) {
			if cells := findRun(board, line, symbol); cells != nil {
				return Verdict{Outcome: model.OutcomeWinner, Symbol: symbol, Cells: cells}
			}
		}
	}
	if board.IsFull() {
		return Verdict{Outcome: model.OutcomeDraw}
	}
	return Verdict{Outcome: model.OutcomeNone}
}

// lines returns every scanned line in canonical order
func lines(board *model.Board) [][]model.Position {
	result := make([][]model.Position, 0, 2*board.Size+2)
	for row := 0; row < board.Size; row++ {
		result = append(result, board.Row(row))
	}
	for col := 0; col < board.Size; col++ {
		result = append(result, board.Col(col))
	}
	return append(result, board.Diagonal(), board.AntiDiagonal())
}

// findRun returns the first WinLength consecutive cells of line holding symbol
func findRun(board *model.Board, line []model.Position, symbol int) []model.Position {
	streak := 0
	for i, pos := range line {
		if board.Get(pos) != symbol {
			streak = 0
			continue
		}
		streak++
		if streak == WinLength {
			return append([]model.Position(nil), line[i-WinLength+1:i+1]...)
		}
	}
	return nil
}

// Interface for dependency injection
type ServiceInterface interface {
	CreateBoard(participants int) *model.Board
	PlaceSymbol(board *model.Board, symbol int, pos model.Position) error
	ValidatePlacement(board *model.Board, pos model.Position) error
	Evaluate(board *model.Board, symbols int) Verdict
}

var _ ServiceInterface = (*Service)(nil)
