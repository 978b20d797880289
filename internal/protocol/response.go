package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/mcoot/tictacnet/internal/model"
)

// Response status values
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusError   = "error"
)

// Winner is encoded as [symbol, [[row, col], ...]], or [0, []] when nobody has won
type Winner struct {
	Symbol int
	Cells  []model.Position
}

// MarshalJSON encodes the winner as a two-element array
func (w Winner) MarshalJSON() ([]byte, error) {
	cells := make([][2]int, len(w.Cells))
	for i, c := range w.Cells {
		cells[i] = [2]int{c.Row, c.Col}
	}
	return json.Marshal([]any{w.Symbol, cells})
}

// UnmarshalJSON decodes the two-element array form
func (w *Winner) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("winner: want 2 elements, got %d", len(raw))
	}
	var cells [][2]int
	if err := json.Unmarshal(raw[0], &w.Symbol); err != nil {
		return fmt.Errorf("winner symbol: %w", err)
	}
	if err := json.Unmarshal(raw[1], &cells); err != nil {
		return fmt.Errorf("winner cells: %w", err)
	}
	w.Cells = make([]model.Position, len(cells))
	for i, c := range cells {
		w.Cells[i] = model.Position{Row: c[0], Col: c[1]}
	}
	return nil
}

// CreateResponse answers NEW_SERVER
type CreateResponse struct {
	Status  string   `json:"status"`
	Name    string   `json:"name,omitempty"`
	Players []string `json:"players,omitempty"`
	Msg     string   `json:"msg,omitempty"`
}

// ServerListEntry is one element of the GET_SERVERS_LIST array
type ServerListEntry struct {
	Name       string   `json:"name"`
	Players    []string `json:"players"`
	HasStarted bool     `json:"has_started"`
}

// ServerState answers GET_SERVER and MAKE_MOVE
type ServerState struct {
	Status            string         `json:"status"`
	Name              string         `json:"name"`
	Board             [][]int        `json:"board"`
	HasStarted        bool           `json:"has_started"`
	CurrentPlayer     int            `json:"current_player"`
	CurrentPlayerName string         `json:"current_player_name,omitempty"`
	Players           []string       `json:"players"`
	Symbols           map[string]int `json:"symbols,omitempty"`
	Winner            Winner         `json:"winner"`
	Draw              bool           `json:"draw"`
	Message           string         `json:"message,omitempty"`
}

// Decided returns true once the match has a winner or is drawn
func (s ServerState) Decided() bool {
	return s.Winner.Symbol != 0 || s.Draw
}

// JoinResponse answers JOIN_SERVER
type JoinResponse struct {
	Status  string   `json:"status"`
	Name    string   `json:"name,omitempty"`
	Players []string `json:"players,omitempty"`
	Message string   `json:"message,omitempty"`
}

// MessageResponse answers START_GAME and EXIT_SERVER
type MessageResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ServerList converts registry summaries into the list response
func ServerList(summaries []model.Summary) []ServerListEntry {
	entries := make([]ServerListEntry, len(summaries))
	for i, s := range summaries {
		entries[i] = ServerListEntry{
			Name:       string(s.Name),
			Players:    nonNil(s.Players),
			HasStarted: s.Started,
		}
	}
	return entries
}

// StateFromSnapshot converts a session snapshot into the state response
func StateFromSnapshot(status string, snap model.Snapshot) ServerState {
	state := ServerState{
		Status:     status,
		Name:       string(snap.Name),
		Board:      snap.Board,
		HasStarted: snap.Started,
		Players:    nonNil(snap.PlayerNames()),
		Symbols:    snap.Symbols,
		Winner:     Winner{Symbol: snap.Result.Symbol, Cells: snap.Result.Cells},
		Draw:       snap.Result.Outcome == model.OutcomeDraw,
	}
	if state.Board == nil {
		state.Board = [][]int{}
	}
	if state.Winner.Cells == nil {
		state.Winner.Cells = []model.Position{}
	}
	if snap.Turn != nil {
		state.CurrentPlayer = snap.Turn.Symbol
		state.CurrentPlayerName = snap.Turn.DisplayName
	}
	return state
}

// Encode serializes a response followed by a newline
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
