package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"runtime/debug"
	"time"

	"github.com/mcoot/tictacnet/internal/dependencies/clock"
	"github.com/mcoot/tictacnet/internal/model"
	"github.com/mcoot/tictacnet/internal/protocol"
	"github.com/mcoot/tictacnet/internal/services/names"
	"github.com/mcoot/tictacnet/internal/services/registry"
)

const releaseTimeout = 5 * time.Second

// Handler serves one client connection: it reads a request, applies it and replies
// before reading the next one
type Handler struct {
	conn           net.Conn
	registry       registry.RegistryInterface
	names          names.AllocatorInterface
	clock          clock.Clock
	logger         *slog.Logger
	maxRequestSize int

	participant *model.Participant
	state       State
}

// NewHandler creates a handler for conn
func NewHandler(
	conn net.Conn,
	registry registry.RegistryInterface,
	names names.AllocatorInterface,
	clock clock.Clock,
	logger *slog.Logger,
	maxRequestSize int,
) *Handler {
	return &Handler{
		conn:           conn,
		registry:       registry,
		names:          names,
		clock:          clock,
		logger:         logger,
		maxRequestSize: maxRequestSize,
		state:          StateAwaitName,
	}
}

// State returns the handler's current lifecycle stage
func (h *Handler) State() State {
	return h.state
}

// Participant returns the participant served by this handler, nil before a name is allocated
func (h *Handler) Participant() *model.Participant {
	return h.participant
}

// Run serves the connection until QUIT, an unknown verb or a transport error,
// then leaves any session, releases the name and closes the connection
func (h *Handler) Run(ctx context.Context) {
	name, err := h.names.Allocate(ctx)
	if err != nil {
		h.logger.Warn("rejecting connection", slog.String("error", err.Error()))
		_ = h.conn.Close()
		h.setState(StateClosed)
		return
	}

	h.participant = model.NewParticipant(model.NewParticipantID(), h.conn.RemoteAddr().String(), name, h.clock.Now())
	h.logger = h.logger.With(
		slog.String("participant_id", string(h.participant.ID)),
		slog.String("name", name),
	)
	h.setState(StateIdle)
	h.logger.Info("participant connected")

	defer h.cleanup(ctx)
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("connection handler panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	buf := make([]byte, h.maxRequestSize)
	for {
		raw, err := h.read(buf)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				h.logger.Debug("read failed", slog.String("error", err.Error()))
			}
			return
		}

		req := protocol.Parse(raw)
		if req.Verb == protocol.VerbQuit || req.Verb == protocol.VerbUnknown {
			h.logger.Debug("closing connection", slog.String("request", raw))
			return
		}

		resp, err := h.dispatch(req)
		if err != nil {
			h.logger.Error("failed to build response",
				slog.String("verb", string(req.Verb)),
				slog.String("error", err.Error()),
			)
			return
		}
		if _, err := h.conn.Write(resp); err != nil {
			h.logger.Debug("write failed", slog.String("error", err.Error()))
			return
		}
	}
}

// read performs one bounded read; a request never spans reads
func (h *Handler) read(buf []byte) (string, error) {
	n, err := h.conn.Read(buf)
	if n > 0 {
		return string(buf[:n]), nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return "", err
}

func (h *Handler) dispatch(req protocol.Request) ([]byte, error) {
	switch req.Verb {
	case protocol.VerbGetMyName:
		return []byte(h.participant.DisplayName + "\n"), nil
	case protocol.VerbNewServer:
		return protocol.Encode(h.createSession(req))
	case protocol.VerbGetServersList:
		return protocol.Encode(protocol.ServerList(h.registry.List()))
	case protocol.VerbGetServer:
		return protocol.Encode(h.describeSession(req))
	case protocol.VerbJoinServer:
		return protocol.Encode(h.joinSession(req))
	case protocol.VerbMakeMove:
		return protocol.Encode(h.makeMove(req))
	case protocol.VerbStartGame:
		return protocol.Encode(h.startGame(req))
	case protocol.VerbExitServer:
		return protocol.Encode(h.exitSession())
	default:
		return nil, fmt.Errorf("unhandled verb %q", req.Verb)
	}
}

func (h *Handler) createSession(req protocol.Request) protocol.CreateResponse {
	name, err := req.SessionName()
	if err == nil && h.participant.InSession() {
		err = model.ErrAlreadyInSession
	}
	if err == nil {
		_, err = h.registry.CreateIfAbsent(name, h.participant)
	}
	if err != nil {
		h.logger.Debug("create rejected", slog.String("session", string(name)), slog.String("error", err.Error()))
		return protocol.CreateResponse{Status: protocol.StatusFailed, Msg: protocol.MessageFor(err)}
	}

	h.enter(name)
	return protocol.CreateResponse{
		Status:  protocol.StatusSuccess,
		Name:    string(name),
		Players: []string{h.participant.DisplayName},
	}
}

func (h *Handler) describeSession(req protocol.Request) protocol.ServerState {
	name, err := req.SessionName()
	if err != nil {
		return failedState(name, err)
	}
	sess, err := h.registry.Lookup(name)
	if err != nil {
		return failedState(name, err)
	}

	snap := sess.Snapshot()
	h.observe(snap)
	return protocol.StateFromSnapshot(protocol.StatusSuccess, snap)
}

func (h *Handler) joinSession(req protocol.Request) protocol.JoinResponse {
	name, err := req.SessionName()
	if err == nil && h.participant.InSession() {
		err = model.ErrAlreadyInSession
	}
	var players []string
	if err == nil {
		players, err = h.join(name)
	}
	if err != nil {
		h.logger.Debug("join rejected", slog.String("session", string(name)), slog.String("error", err.Error()))
		return protocol.JoinResponse{Status: protocol.StatusFailed, Message: protocol.MessageFor(err)}
	}

	return protocol.JoinResponse{
		Status:  protocol.StatusSuccess,
		Name:    string(name),
		Players: players,
	}
}

// join adds the participant to the named session and returns who is present afterwards
func (h *Handler) join(name model.SessionName) ([]string, error) {
	sess, err := h.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	if err := sess.Join(h.participant); err != nil {
		return nil, err
	}
	h.enter(name)
	return sess.Summary().Players, nil
}

func (h *Handler) makeMove(req protocol.Request) protocol.ServerState {
	name, pos, err := req.Move()
	if err != nil {
		return failedState(name, err)
	}
	sess, err := h.registry.Lookup(name)
	if err != nil {
		return failedState(name, err)
	}

	moveErr := sess.Move(h.participant.ID, pos)
	snap := sess.Snapshot()
	h.observe(snap)
	if moveErr != nil {
		h.logger.Debug("move rejected",
			slog.String("session", string(name)),
			slog.Int("row", pos.Row),
			slog.Int("col", pos.Col),
			slog.String("error", moveErr.Error()),
		)
		state := protocol.StateFromSnapshot(protocol.StatusFailed, snap)
		state.Message = protocol.MessageFor(moveErr)
		return state
	}
	return protocol.StateFromSnapshot(protocol.StatusSuccess, snap)
}

func (h *Handler) startGame(req protocol.Request) protocol.MessageResponse {
	name, err := req.SessionName()
	if err == nil {
		err = h.start(name)
	}
	if err != nil {
		return protocol.MessageResponse{Status: protocol.StatusError, Message: protocol.MessageFor(err)}
	}
	return protocol.MessageResponse{Status: protocol.StatusSuccess, Message: "game started"}
}

func (h *Handler) start(name model.SessionName) error {
	sess, err := h.registry.Lookup(name)
	if err != nil {
		return err
	}
	if err := sess.Start(h.participant.ID); err != nil {
		return err
	}
	h.setState(StateInGame)
	return nil
}

func (h *Handler) exitSession() protocol.MessageResponse {
	name := h.participant.CurrentSession()
	if name == "" {
		return protocol.MessageResponse{Status: protocol.StatusSuccess, Message: "not in a session"}
	}
	h.leaveSession()
	return protocol.MessageResponse{Status: protocol.StatusSuccess, Message: fmt.Sprintf("left %s", name)}
}

// leaveSession removes the participant from its session and drops the session once empty
func (h *Handler) leaveSession() {
	name := h.participant.CurrentSession()
	if name == "" {
		return
	}
	defer h.setState(StateIdle)
	defer h.participant.Unbind()

	sess, err := h.registry.Lookup(name)
	if err != nil {
		return
	}
	remaining, err := sess.Leave(h.participant.ID)
	if err != nil {
		h.logger.Warn("leave failed", slog.String("session", string(name)), slog.String("error", err.Error()))
		return
	}
	if remaining == 0 {
		h.registry.Remove(name)
	}
}

func (h *Handler) cleanup(ctx context.Context) {
	h.leaveSession()

	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := h.names.Release(releaseCtx, h.participant.DisplayName); err != nil {
		h.logger.Warn("failed to release name", slog.String("error", err.Error()))
	}

	_ = h.conn.Close()
	h.setState(StateClosed)
	h.logger.Info("participant disconnected",
		slog.Duration("connected_for", h.clock.Since(h.participant.ConnectedAt)),
	)
}

// enter binds the participant to a session it just created or joined
func (h *Handler) enter(name model.SessionName) {
	h.participant.Bind(name)
	h.setState(StateInLobby)
}

// observe moves the handler into the game state once its own session has started
func (h *Handler) observe(snap model.Snapshot) {
	if snap.Started && snap.Name == h.participant.CurrentSession() {
		h.setState(StateInGame)
	}
}

func (h *Handler) setState(next State) {
	if h.state == next {
		return
	}
	h.logger.Debug("connection state changed",
		slog.String("from", h.state.String()),
		slog.String("to", next.String()),
	)
	h.state = next
}

func failedState(name model.SessionName, err error) protocol.ServerState {
	return protocol.ServerState{
		Status:  protocol.StatusFailed,
		Name:    string(name),
		Board:   [][]int{},
		Players: []string{},
		Winner:  protocol.Winner{Cells: []model.Position{}},
		Message: protocol.MessageFor(err),
	}
}
