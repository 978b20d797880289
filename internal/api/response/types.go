package response

import (
	"time"

	"github.com/mcoot/tictacnet/internal/model"
)

// Health is the body of the health endpoint
type Health struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// SessionSummary represents one entry of the session listing
type SessionSummary struct {
	Name    string   `json:"name"`
	Players []string `json:"players"`
	Started bool     `json:"started"`
}

// SessionSummaryFromModel converts a model.Summary
func SessionSummaryFromModel(s model.Summary) SessionSummary {
	players := s.Players
	if players == nil {
		players = []string{}
	}
	return SessionSummary{
		Name:    string(s.Name),
		Players: players,
		Started: s.Started,
	}
}

// SessionList is the body of the session listing endpoint
type SessionList struct {
	Sessions []SessionSummary `json:"sessions"`
}

// Seat represents a present participant
type Seat struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Symbol      int    `json:"symbol"`
}

// SeatFromModel converts model.Seat
func SeatFromModel(s model.Seat) Seat {
	return Seat{
		ID:          string(s.ID),
		DisplayName: s.DisplayName,
		Symbol:      s.Symbol,
	}
}

// Result represents the outcome of a match
type Result struct {
	Outcome    string   `json:"outcome"`
	WinnerID   string   `json:"winner_id,omitempty"`
	WinnerName string   `json:"winner_name,omitempty"`
	Symbol     int      `json:"symbol,omitempty"`
	Cells      [][2]int `json:"cells"`
}

// Session is the detailed view of one session
type Session struct {
	Name      string         `json:"name"`
	Phase     string         `json:"phase"`
	Started   bool           `json:"started"`
	Board     [][]int        `json:"board"`
	Seats     []Seat         `json:"seats"`
	Symbols   map[string]int `json:"symbols"`
	Turn      *Seat          `json:"turn"`
	Result    Result         `json:"result"`
	CreatedAt time.Time      `json:"created_at"`
	StartedAt *time.Time     `json:"started_at,omitempty"`
}

// SessionFromSnapshot converts a model.Snapshot
func SessionFromSnapshot(snap model.Snapshot) Session {
	board := snap.Board
	if board == nil {
		board = [][]int{}
	}

	seats := make([]Seat, len(snap.Seats))
	for i, seat := range snap.Seats {
		seats[i] = SeatFromModel(seat)
	}

	var turn *Seat
	if snap.Turn != nil {
		t := SeatFromModel(*snap.Turn)
		turn = &t
	}

	cells := make([][2]int, len(snap.Result.Cells))
	for i, pos := range snap.Result.Cells {
		cells[i] = [2]int{pos.Row, pos.Col}
	}

	var startedAt *time.Time
	if !snap.StartedAt.IsZero() {
		t := snap.StartedAt
		startedAt = &t
	}

	return Session{
		Name:    string(snap.Name),
		Phase:   string(snap.Phase),
		Started: snap.Started,
		Board:   board,
		Seats:   seats,
		Symbols: snap.Symbols,
		Turn:    turn,
		Result: Result{
			Outcome:    string(snap.Result.Outcome),
			WinnerID:   string(snap.Result.WinnerID),
			WinnerName: snap.Result.WinnerName,
			Symbol:     snap.Result.Symbol,
			Cells:      cells,
		},
		CreatedAt: snap.CreatedAt,
		StartedAt: startedAt,
	}
}
