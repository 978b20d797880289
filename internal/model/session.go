package model

import "time"

// SessionName uniquely identifies a session in the registry
type SessionName string

// Phase represents the lifecycle stage of a session
type Phase string

const (
	PhaseLobby      Phase = "lobby"       // accepting joins, no board yet
	PhaseInProgress Phase = "in_progress" // match running
	PhaseFinished   Phase = "finished"    // match decided, board frozen
)

// Outcome tags a match result
type Outcome string

const (
	OutcomeNone   Outcome = "none"
	OutcomeWinner Outcome = "winner"
	OutcomeDraw   Outcome = "draw"
)

// Result is the outcome of a match after the last accepted move
type Result struct {
	Outcome Outcome
	Winner  *Participant // set only for OutcomeWinner; may have left the session
	Symbol  int          // winning symbol
	Cells   []Position   // winning cells in scan order
}

// NoResult returns the result of an undecided match
func NoResult() Result {
	return Result{Outcome: OutcomeNone}
}

// IsDecided returns true once the match has a winner or is drawn
func (r Result) IsDecided() bool {
	return r.Outcome == OutcomeWinner || r.Outcome == OutcomeDraw
}

// Seat is a present participant as seen from a session snapshot
type Seat struct {
	ID          ParticipantID
	DisplayName string
	Symbol      int
}

// ResultView is a self-contained copy of a Result
type ResultView struct {
	Outcome    Outcome
	WinnerID   ParticipantID
	WinnerName string
	Symbol     int
	Cells      []Position
}

// Snapshot is a consistent point-in-time copy of a session.
// It shares no memory with the live session.
type Snapshot struct {
	Name      SessionName
	Phase     Phase
	Started   bool
	Board     [][]int         // nil before the match starts
	Seats     []Seat          // present participants in join order
	Symbols   map[string]int  // display name to symbol, present participants only
	Turn      *Seat           // nil when nobody holds the turn
	Result    ResultView
	CreatedAt time.Time
	StartedAt time.Time // zero before the match starts
}

// PlayerNames returns the display names of present participants in join order
func (s Snapshot) PlayerNames() []string {
	names := make([]string, len(s.Seats))
	for i, seat := range s.Seats {
		names[i] = seat.DisplayName
	}
	return names
}

// Summary is the registry listing entry for one session
type Summary struct {
	Name    SessionName
	Players []string
	Started bool
}
