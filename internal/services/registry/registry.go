package registry

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/mcoot/tictacnet/internal/dependencies/clock"
	"github.com/mcoot/tictacnet/internal/model"
	"github.com/mcoot/tictacnet/internal/services/board"
	"github.com/mcoot/tictacnet/internal/services/session"
)

var validate = validator.New()

type createRequest struct {
	Name string `validate:"required,alphanum"`
}

// ValidateName checks that a session name is non-empty and alphanumeric
func ValidateName(name model.SessionName) error {
	if err := validate.Struct(createRequest{Name: string(name)}); err != nil {
		return fmt.Errorf("%w: %q", model.ErrInvalidSessionName, name)
	}
	return nil
}

// Registry is the shared directory of live sessions.
// mu guards only the map; session state is guarded by each session's own lock.
// CreateIfAbsent joins the founder while holding mu, so lock order is registry
// then session, never the reverse.
type Registry struct {
	mu       sync.Mutex
	sessions map[model.SessionName]*session.Session

	boardService board.ServiceInterface
	clock        clock.Clock
	logger       *slog.Logger
}

// New creates an empty Registry
func New(boardService board.ServiceInterface, clock clock.Clock, logger *slog.Logger) *Registry {
	return &Registry{
		sessions:     make(map[model.SessionName]*session.Session),
		boardService: boardService,
		clock:        clock,
		logger:       logger,
	}
}

// CreateIfAbsent creates a session unless the name is taken.
// A non-nil founder is joined before the session becomes visible to others.
func (r *Registry) CreateIfAbsent(name model.SessionName, founder *model.Participant) (*session.Session, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[name]; ok {
		return nil, model.ErrSessionExists
	}

	s := session.New(name, r.boardService, r.clock, r.logger)
	if founder != nil {
		if err := s.Join(founder); err != nil {
			return nil, fmt.Errorf("join founder: %w", err)
		}
	}
	r.sessions[name] = s

	attrs := []any{slog.String("session", string(name)), slog.Int("session_count", len(r.sessions))}
	if founder != nil {
		attrs = append(attrs, slog.String("founder", founder.DisplayName))
	}
	r.logger.Info("session created", attrs...)
	return s, nil
}

// Lookup returns the session with the given name
func (r *Registry) Lookup(name model.SessionName) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[name]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return s, nil
}

// Remove deletes the session if it has no participants. Returns true if removed.
// The emptiness check runs under the session lock only, so a busy session never
// blocks other registry callers.
func (r *Registry) Remove(name model.SessionName) bool {
	r.mu.Lock()
	s, ok := r.sessions[name]
	r.mu.Unlock()
	if !ok || !s.CloseIfEmpty() {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[name] != s {
		return false
	}
	delete(r.sessions, name)

	r.logger.Info("session removed",
		slog.String("session", string(name)),
		slog.Int("session_count", len(r.sessions)),
	)
	return true
}

// List returns a summary of every session, sorted by name
func (r *Registry) List() []model.Summary {
	r.mu.Lock()
	sessions := lo.Values(r.sessions)
	r.mu.Unlock()

	summaries := lo.Map(sessions, func(s *session.Session, _ int) model.Summary {
		return s.Summary()
	})
	slices.SortFunc(summaries, func(a, b model.Summary) int {
		return strings.Compare(string(a.Name), string(b.Name))
	})
	return summaries
}

// Count returns the number of live sessions
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Interface for dependency injection
type RegistryInterface interface {
	CreateIfAbsent(name model.SessionName, founder *model.Participant) (*session.Session, error)
	Lookup(name model.SessionName) (*session.Session, error)
	Remove(name model.SessionName) bool
	List() []model.Summary
	Count() int
}

var _ RegistryInterface = (*Registry)(nil)
