package server

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictacnet/internal/client"
	"github.com/mcoot/tictacnet/internal/dependencies/clock"
	"github.com/mcoot/tictacnet/internal/dependencies/mocks"
	"github.com/mcoot/tictacnet/internal/model"
	"github.com/mcoot/tictacnet/internal/protocol"
	"github.com/mcoot/tictacnet/internal/services/board"
	"github.com/mcoot/tictacnet/internal/services/names"
	"github.com/mcoot/tictacnet/internal/services/registry"
	"github.com/mcoot/tictacnet/internal/storage/memory"
	"github.com/mcoot/tictacnet/internal/testutil"
)

var testNames = []string{"Ada", "Alan", "Grace", "Linus"}

type ServerSuite struct {
	suite.Suite
	names    *names.Allocator
	registry *registry.Registry
	server   *Server
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan error
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.names = names.New(memory.NewNamePool(mocks.NewMockRandom()), testutil.NopLogger())
	s.Require().NoError(s.names.Seed(s.ctx, testNames))
	s.registry = registry.New(board.New(), clock.New(), testutil.NopLogger())

	cfg := DefaultConfig()
	cfg.Port = 0
	cfg.ShutdownTimeout = 2 * time.Second
	s.server = New(cfg, s.registry, s.names, clock.New(), testutil.NopLogger())
	s.Require().NoError(s.server.Listen())

	s.done = make(chan error, 1)
	go func() {
		s.done <- s.server.Serve(s.ctx)
	}()
}

func (s *ServerSuite) TearDownTest() {
	s.NoError(s.server.Shutdown(context.Background()))
	s.cancel()
	s.NoError(<-s.done)
}

// dial connects a client and waits until the server has allocated its name
func (s *ServerSuite) dial() (*client.Client, string) {
	c, err := client.Dial(s.ctx, s.server.Addr(), client.WithTimeout(2*time.Second))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = c.Close() })

	name, err := c.Name()
	s.Require().NoError(err)
	return c, name
}

func (s *ServerSuite) available() int {
	n, err := s.names.Available(s.ctx)
	s.Require().NoError(err)
	return n
}

func (s *ServerSuite) eventually(cond func() bool) {
	s.Eventually(cond, 2*time.Second, 10*time.Millisecond)
}

// Name tests

func (s *ServerSuite) TestGetMyNameFromPool() {
	_, first := s.dial()
	_, second := s.dial()

	s.Contains(testNames, first)
	s.Contains(testNames, second)
	s.NotEqual(first, second)
	s.Equal(len(testNames)-2, s.available())
}

func (s *ServerSuite) TestPoolExhaustedClosesConnection() {
	for range testNames {
		s.dial()
	}

	c, err := client.Dial(s.ctx, s.server.Addr(), client.WithTimeout(2*time.Second))
	s.Require().NoError(err)
	defer c.Close()

	_, err = c.Name()
	s.Error(err)
}

// Session lifecycle tests

func (s *ServerSuite) TestCreateAndList() {
	a, nameA := s.dial()

	resp, err := a.CreateSession("Arena")
	s.Require().NoError(err)
	s.Equal(protocol.StatusSuccess, resp.Status)
	s.Equal("Arena", resp.Name)
	s.Equal([]string{nameA}, resp.Players)

	list, err := a.ListSessions()
	s.Require().NoError(err)
	s.Equal([]protocol.ServerListEntry{{Name: "Arena", Players: []string{nameA}, HasStarted: false}}, list)
}

func (s *ServerSuite) TestCreateInvalidName() {
	a, _ := s.dial()

	resp, err := a.CreateSession("bad name")
	s.Require().NoError(err)
	s.Equal(protocol.StatusFailed, resp.Status)
	s.Equal("server name must be alphanumeric", resp.Msg)
	s.Zero(s.registry.Count())
}

func (s *ServerSuite) TestCreateWhileInSessionRejected() {
	a, _ := s.dial()
	_, err := a.CreateSession("Arena")
	s.Require().NoError(err)

	resp, err := a.CreateSession("Other")
	s.Require().NoError(err)
	s.Equal(protocol.StatusFailed, resp.Status)
	s.Equal("already in a session", resp.Msg)
	s.Equal(1, s.registry.Count())
}

func (s *ServerSuite) TestJoinUnknownSessionFails() {
	a, _ := s.dial()

	resp, err := a.Join("Ghost")
	s.Require().NoError(err)
	s.Equal(protocol.StatusFailed, resp.Status)
	s.Equal("server not found", resp.Message)
	s.Zero(s.registry.Count())

	state, err := a.Session("Ghost")
	s.Require().NoError(err)
	s.Equal(protocol.StatusFailed, state.Status)

	// Still free to create afterwards
	created, err := a.CreateSession("Ghost")
	s.Require().NoError(err)
	s.Equal(protocol.StatusSuccess, created.Status)
}

func (s *ServerSuite) TestConcurrentCreateOneWins() {
	a, _ := s.dial()
	b, _ := s.dial()

	var wg sync.WaitGroup
	responses := make([]protocol.CreateResponse, 2)
	for i, c := range []*client.Client{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := c.CreateSession("Arena")
			s.NoError(err)
			responses[i] = resp
		}()
	}
	wg.Wait()

	statuses := []string{responses[0].Status, responses[1].Status}
	s.ElementsMatch([]string{protocol.StatusSuccess, protocol.StatusFailed}, statuses)
	for _, resp := range responses {
		if resp.Status == protocol.StatusFailed {
			s.Equal("name already exists", resp.Msg)
		}
	}

	list := s.registry.List()
	s.Require().Len(list, 1)
	s.Equal(model.SessionName("Arena"), list[0].Name)
	s.Len(list[0].Players, 1)
}

func (s *ServerSuite) TestJoinAfterStartRejected() {
	a, _ := s.dial()
	b, _ := s.dial()
	c, _ := s.dial()
	_, err := a.CreateSession("Arena")
	s.Require().NoError(err)
	_, err = b.Join("Arena")
	s.Require().NoError(err)
	_, err = a.Start("Arena")
	s.Require().NoError(err)

	resp, err := c.Join("Arena")
	s.Require().NoError(err)
	s.Equal(protocol.StatusFailed, resp.Status)
	s.Equal("game already started", resp.Message)
}

func (s *ServerSuite) TestStartRules() {
	a, _ := s.dial()
	b, _ := s.dial()

	resp, err := a.Start("Arena")
	s.Require().NoError(err)
	s.Equal(protocol.MessageResponse{Status: protocol.StatusError, Message: "server not found"}, resp)

	_, err = a.CreateSession("Arena")
	s.Require().NoError(err)
	resp, err = a.Start("Arena")
	s.Require().NoError(err)
	s.Equal(protocol.MessageResponse{Status: protocol.StatusError, Message: "need more participants"}, resp)

	_, err = b.Join("Arena")
	s.Require().NoError(err)
	resp, err = b.Start("Arena")
	s.Require().NoError(err)
	s.Equal(protocol.StatusError, resp.Status)

	resp, err = a.Start("Arena")
	s.Require().NoError(err)
	s.Equal(protocol.MessageResponse{Status: protocol.StatusSuccess, Message: "game started"}, resp)
}

func (s *ServerSuite) TestFullMatchRowWin() {
	a, nameA := s.dial()
	b, nameB := s.dial()
	_, err := a.CreateSession("Arena")
	s.Require().NoError(err)
	joined, err := b.Join("Arena")
	s.Require().NoError(err)
	s.Equal([]string{nameA, nameB}, joined.Players)
	_, err = a.Start("Arena")
	s.Require().NoError(err)

	state, err := b.Session("Arena")
	s.Require().NoError(err)
	s.True(state.HasStarted)
	s.Equal([][]int{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}}, state.Board)
	s.Equal(1, state.CurrentPlayer)
	s.Equal(nameA, state.CurrentPlayerName)

	state, err = a.Move("Arena", 0, 0)
	s.Require().NoError(err)
	s.Equal(protocol.StatusSuccess, state.Status)
	s.Equal(1, state.Board[0][0])
	s.Equal(2, state.CurrentPlayer)
	s.False(state.Decided())

	rejected, err := a.Move("Arena", 0, 1)
	s.Require().NoError(err)
	s.Equal(protocol.StatusFailed, rejected.Status)
	s.Equal("not your turn", rejected.Message)
	s.Equal(0, rejected.Board[0][1])

	for _, m := range []struct {
		c        *client.Client
		row, col int
	}{{b, 1, 1}, {a, 0, 1}, {b, 2, 2}, {a, 0, 2}} {
		state, err = m.c.Move("Arena", m.row, m.col)
		s.Require().NoError(err)
		s.Require().Equal(protocol.StatusSuccess, state.Status)
	}

	s.True(state.Decided())
	s.Equal(1, state.Winner.Symbol)
	s.Equal([]model.Position{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}}, state.Winner.Cells)

	after, err := b.Move("Arena", 2, 0)
	s.Require().NoError(err)
	s.Equal(protocol.StatusFailed, after.Status)
	s.Equal("game finished", after.Message)
	s.Equal(0, after.Board[2][0])
}

func (s *ServerSuite) TestMalformedMove() {
	a, _ := s.dial()

	data, err := a.Do("MAKE_MOVE/Arena/x/1")
	s.Require().NoError(err)

	var state protocol.ServerState
	s.Require().NoError(json.Unmarshal(data, &state))
	s.Equal(protocol.StatusFailed, state.Status)
	s.Equal("invalid request", state.Message)
}

func (s *ServerSuite) TestOutOfBoundsMove() {
	a, _ := s.dial()
	b, _ := s.dial()
	_, err := a.CreateSession("Arena")
	s.Require().NoError(err)
	_, err = b.Join("Arena")
	s.Require().NoError(err)
	_, err = a.Start("Arena")
	s.Require().NoError(err)

	state, err := a.Move("Arena", 3, 0)
	s.Require().NoError(err)
	s.Equal(protocol.StatusFailed, state.Status)
	s.Equal("invalid position", state.Message)
	s.Equal(1, state.CurrentPlayer)
}

func (s *ServerSuite) TestLowercaseAliases() {
	a, _ := s.dial()
	_, err := a.CreateSession("Arena")
	s.Require().NoError(err)

	data, err := a.Do("get_server_list")
	s.Require().NoError(err)
	var list []protocol.ServerListEntry
	s.Require().NoError(json.Unmarshal(data, &list))
	s.Len(list, 1)

	data, err = a.Do("start/Arena")
	s.Require().NoError(err)
	var resp protocol.MessageResponse
	s.Require().NoError(json.Unmarshal(data, &resp))
	s.Equal("need more participants", resp.Message)
}

// Leave and disconnect tests

func (s *ServerSuite) TestExitRemovesEmptySession() {
	a, _ := s.dial()
	_, err := a.CreateSession("Arena")
	s.Require().NoError(err)

	resp, err := a.Exit()
	s.Require().NoError(err)
	s.Equal(protocol.MessageResponse{Status: protocol.StatusSuccess, Message: "left Arena"}, resp)
	s.Zero(s.registry.Count())

	resp, err = a.Exit()
	s.Require().NoError(err)
	s.Equal("not in a session", resp.Message)
}

func (s *ServerSuite) TestExitKeepsOccupiedSession() {
	a, _ := s.dial()
	b, nameB := s.dial()
	_, err := a.CreateSession("Arena")
	s.Require().NoError(err)
	_, err = b.Join("Arena")
	s.Require().NoError(err)

	_, err = a.Exit()
	s.Require().NoError(err)

	state, err := b.Session("Arena")
	s.Require().NoError(err)
	s.Equal([]string{nameB}, state.Players)

	resp, err := b.Start("Arena")
	s.Require().NoError(err)
	s.Equal("need more participants", resp.Message)
}

func (s *ServerSuite) TestDisconnectCleansUp() {
	a, _ := s.dial()
	_, err := a.CreateSession("Arena")
	s.Require().NoError(err)
	s.Equal(len(testNames)-1, s.available())

	s.Require().NoError(a.Close())

	s.eventually(func() bool {
		return s.registry.Count() == 0 && s.available() == len(testNames)
	})
}

func (s *ServerSuite) TestDisconnectMidMatchPassesTurn() {
	a, _ := s.dial()
	b, nameB := s.dial()
	_, err := a.CreateSession("Arena")
	s.Require().NoError(err)
	_, err = b.Join("Arena")
	s.Require().NoError(err)
	_, err = a.Start("Arena")
	s.Require().NoError(err)

	s.Require().NoError(a.Quit())

	s.eventually(func() bool {
		state, err := b.Session("Arena")
		return err == nil && len(state.Players) == 1
	})
	state, err := b.Session("Arena")
	s.Require().NoError(err)
	s.Equal(nameB, state.CurrentPlayerName)
	s.Equal(2, state.CurrentPlayer)
	s.Equal(2, state.Symbols[nameB])
}

func (s *ServerSuite) TestUnknownVerbClosesConnection() {
	a, _ := s.dial()
	s.Equal(1, s.server.Connections())

	_, err := a.Do("DANCE/Arena")
	s.Error(err)

	s.eventually(func() bool {
		return s.server.Connections() == 0 && s.available() == len(testNames)
	})
}

// Polling tests

func (s *ServerSuite) TestPollDeliversUntilDecided() {
	a, _ := s.dial()
	b, _ := s.dial()
	watcher, _ := s.dial()
	_, err := a.CreateSession("Arena")
	s.Require().NoError(err)
	_, err = b.Join("Arena")
	s.Require().NoError(err)
	_, err = a.Start("Arena")
	s.Require().NoError(err)

	results := client.Poll(s.ctx, watcher, "Arena", 10*time.Millisecond)
	first := <-results
	s.Require().NoError(first.Err)
	s.False(first.State.Decided())

	for _, m := range []struct {
		c        *client.Client
		row, col int
	}{{a, 0, 0}, {b, 1, 0}, {a, 0, 1}, {b, 1, 1}, {a, 0, 2}} {
		_, err := m.c.Move("Arena", m.row, m.col)
		s.Require().NoError(err)
	}

	var last client.PollResult
	for result := range results {
		s.Require().NoError(result.Err)
		last = result
	}
	s.True(last.State.Decided())
	s.Equal(1, last.State.Winner.Symbol)
}

func (s *ServerSuite) TestPollStopsWhenSessionGone() {
	watcher, _ := s.dial()

	results := client.Poll(s.ctx, watcher, "Ghost", 10*time.Millisecond)

	result, ok := <-results
	s.Require().True(ok)
	s.ErrorIs(result.Err, model.ErrSessionNotFound)
	_, ok = <-results
	s.False(ok)
}

// Shutdown tests

func (s *ServerSuite) TestShutdownClosesConnections() {
	a, _ := s.dial()
	_, err := a.CreateSession("Arena")
	s.Require().NoError(err)

	s.Require().NoError(s.server.Shutdown(context.Background()))

	_, err = a.Name()
	s.Error(err)
	s.Zero(s.registry.Count())
	s.Equal(len(testNames), s.available())
}

// Handler tests over an in-memory pipe

func (s *ServerSuite) TestServeConnOverPipe() {
	serverEnd, clientEnd := net.Pipe()
	done := make(chan struct{})
	go func() {
		s.server.ServeConn(s.ctx, serverEnd)
		close(done)
	}()

	c := client.New(clientEnd, client.WithTimeout(2*time.Second))
	name, err := c.Name()
	s.Require().NoError(err)
	s.Contains(testNames, name)

	s.Require().NoError(c.Quit())
	<-done
	s.Zero(s.server.Connections())
}

func TestHandlerEndsClosed(t *testing.T) {
	ctx := context.Background()
	allocator := names.New(memory.NewNamePool(mocks.NewMockRandom()), testutil.NopLogger())
	if err := allocator.Seed(ctx, []string{"Ada"}); err != nil {
		t.Fatal(err)
	}
	reg := registry.New(board.New(), clock.New(), testutil.NopLogger())

	serverEnd, clientEnd := net.Pipe()
	h := NewHandler(serverEnd, reg, allocator, clock.New(), testutil.NopLogger(), protocol.MaxRequestSize)
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	c := client.New(clientEnd, client.WithTimeout(2*time.Second))
	if _, err := c.CreateSession("Arena"); err != nil {
		t.Fatal(err)
	}
	if err := c.Quit(); err != nil {
		t.Fatal(err)
	}
	<-done

	if h.State() != StateClosed {
		t.Fatalf("state = %s, want closed", h.State())
	}
	if h.Participant().InSession() {
		t.Fatal("participant still bound to a session")
	}
	if reg.Count() != 0 {
		t.Fatalf("registry has %d sessions, want 0", reg.Count())
	}
}
