package session

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/mcoot/tictacnet/internal/dependencies/clock"
	"github.com/mcoot/tictacnet/internal/model"
	"github.com/mcoot/tictacnet/internal/services/board"
)

// MinPlayers is the number of present participants needed to start a match
const MinPlayers = 2

// Session is one lobby and match instance. Every operation holds mu for its full duration.
type Session struct {
	mu sync.Mutex

	name         model.SessionName
	participants []*model.Participant        // present participants, join order
	symbols      map[model.ParticipantID]int // assigned once, never reassigned
	holders      map[int]*model.Participant  // symbol to participant, including departed ones
	board        *model.Board                // nil until started
	started      bool
	turn         *model.Participant // nil when undefined
	result       model.Result
	closed       bool
	createdAt    time.Time
	startedAt    time.Time

	boardService board.ServiceInterface
	clock        clock.Clock
	logger       *slog.Logger
}

// New creates an empty session in the lobby phase
func New(name model.SessionName, boardService board.ServiceInterface, clock clock.Clock, logger *slog.Logger) *Session {
	return &Session{
		name:         name,
		symbols:      make(map[model.ParticipantID]int),
		holders:      make(map[int]*model.Participant),
		result:       model.NoResult(),
		createdAt:    clock.Now(),
		boardService: boardService,
		clock:        clock,
		logger:       logger.With(slog.String("session", string(name))),
	}
}

// Name returns the session name
func (s *Session) Name() model.SessionName {
	return s.name
}

// Join adds a participant to the lobby
func (s *Session) Join(p *model.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.ErrSessionNotFound
	}
	if s.started {
		return model.ErrGameInProgress
	}
	if s.indexOf(p.ID) >= 0 {
		return model.ErrAlreadyInSession
	}

	s.participants = append(s.participants, p)
	if _, ok := s.symbols[p.ID]; !ok {
		symbol := len(s.symbols) + 1
		s.symbols[p.ID] = symbol
		s.holders[symbol] = p
	}
	if s.turn == nil {
		s.turn = p
	}

	s.logger.Debug("participant joined",
		slog.String("participant", p.DisplayName),
		slog.Int("symbol", s.symbols[p.ID]),
		slog.Int("player_count", len(s.participants)),
	)
	return nil
}

// Leave removes a participant and returns how many remain.
// If the leaver held the turn it passes to the next participant in join order.
func (s *Session) Leave(id model.ParticipantID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return len(s.participants), model.ErrNotInSession
	}

	leaver := s.participants[idx]
	hadTurn := s.turn != nil && s.turn.ID == id
	s.participants = slices.Delete(s.participants, idx, idx+1)

	if hadTurn {
		if len(s.participants) == 0 {
			s.turn = nil
		} else {
			s.turn = s.participants[idx%len(s.participants)]
		}
	}

	s.logger.Debug("participant left",
		slog.String("participant", leaver.DisplayName),
		slog.Int("remaining", len(s.participants)),
	)
	return len(s.participants), nil
}

// Start begins the match. Only the first present participant may start it.
func (s *Session) Start(requester model.ParticipantID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return model.ErrSessionNotFound
	}
	if s.started {
		return model.ErrGameInProgress
	}
	if len(s.participants) < MinPlayers {
		return model.ErrInsufficientPlayers
	}
	if s.participants[0].ID != requester {
		return model.ErrNotHost
	}

	s.board = s.boardService.CreateBoard(len(s.participants))
	s.started = true
	s.startedAt = s.clock.Now()
	s.turn = s.participants[0]
	s.result = model.NoResult()

	s.logger.Info("match started",
		slog.Int("player_count", len(s.participants)),
		slog.Int("board_size", s.board.Size),
	)
	return nil
}

// Move places the mover's symbol at pos. Rejected moves leave the session unchanged.
func (s *Session) Move(id model.ParticipantID, pos model.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return model.ErrGameNotStarted
	}
	if s.result.IsDecided() {
		return model.ErrGameComplete
	}
	if s.turn == nil || s.turn.ID != id {
		return model.ErrNotPlayerTurn
	}
	if err := s.boardService.PlaceSymbol(s.board, s.symbols[id], pos); err != nil {
		return err
	}

	idx := s.indexOf(id)
	s.turn = s.participants[(idx+1)%len(s.participants)]
	s.result = s.evaluate()

	if s.result.IsDecided() {
		attrs := []any{
			slog.String("outcome", string(s.result.Outcome)),
			slog.Duration("duration", s.clock.Since(s.startedAt)),
		}
		if s.result.Winner != nil {
			attrs = append(attrs, slog.String("winner", s.result.Winner.DisplayName))
		}
		s.logger.Info("match decided", attrs...)
	}
	return nil
}

// Snapshot returns a deep copy of the session state
func (s *Session) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := model.Snapshot{
		Name:      s.name,
		Phase:     s.phase(),
		Started:   s.started,
		Board:     s.board.Grid(),
		Seats:     lo.Map(s.participants, func(p *model.Participant, _ int) model.Seat { return s.seat(p) }),
		Symbols:   make(map[string]int, len(s.participants)),
		Result:    model.ResultView{Outcome: s.result.Outcome, Symbol: s.result.Symbol},
		CreatedAt: s.createdAt,
		StartedAt: s.startedAt,
	}
	for _, seat := range snap.Seats {
		snap.Symbols[seat.DisplayName] = seat.Symbol
	}
	if s.turn != nil {
		turn := s.seat(s.turn)
		snap.Turn = &turn
	}
	if s.result.Winner != nil {
		snap.Result.WinnerID = s.result.Winner.ID
		snap.Result.WinnerName = s.result.Winner.DisplayName
	}
	snap.Result.Cells = append([]model.Position(nil), s.result.Cells...)
	return snap
}

// Summary returns the registry listing entry for this session
func (s *Session) Summary() model.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return model.Summary{
		Name:    s.name,
		Players: lo.Map(s.participants, func(p *model.Participant, _ int) string { return p.DisplayName }),
		Started: s.started,
	}
}

// Result returns the outcome after the last accepted move
func (s *Session) Result() model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Len returns the number of present participants
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants)
}

// CloseIfEmpty marks an empty session closed so later joins fail.
// The registry calls it without holding its own lock.
func (s *Session) CloseIfEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.participants) > 0 {
		return false
	}
	s.closed = true
	return true
}

func (s *Session) evaluate() model.Result {
	verdict := s.boardService.Evaluate(s.board, len(s.symbols))
	switch verdict.Outcome {
	case model.OutcomeWinner:
		return model.Result{
			Outcome: model.OutcomeWinner,
			Winner:  s.holders[verdict.Symbol],
			Symbol:  verdict.Symbol,
			Cells:   verdict.Cells,
		}
	case model.OutcomeDraw:
		return model.Result{Outcome: model.OutcomeDraw}
	default:
		return model.NoResult()
	}
}

func (s *Session) phase() model.Phase {
	switch {
	case !s.started:
		return model.PhaseLobby
	case s.result.IsDecided():
		return model.PhaseFinished
	default:
		return model.PhaseInProgress
	}
}

func (s *Session) seat(p *model.Participant) model.Seat {
	return model.Seat{ID: p.ID, DisplayName: p.DisplayName, Symbol: s.symbols[p.ID]}
}

func (s *Session) indexOf(id model.ParticipantID) int {
	return slices.IndexFunc(s.participants, func(p *model.Participant) bool { return p.ID == id })
}
