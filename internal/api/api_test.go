package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tictacnet/internal/api"
	"github.com/mcoot/tictacnet/internal/api/apierr"
	"github.com/mcoot/tictacnet/internal/api/response"
	"github.com/mcoot/tictacnet/internal/factory"
	"github.com/mcoot/tictacnet/internal/model"
	"github.com/mcoot/tictacnet/internal/services/registry"
	"github.com/mcoot/tictacnet/internal/testutil"
)

// testServer creates a router over a test app
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app, err := factory.NewTestApp("Ada", "Alan", "Grace")
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:   testutil.NopLogger(),
		Registry: app.Registry,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) participant(t *testing.T, id string) *model.Participant {
	t.Helper()
	name, err := ts.app.Names.Allocate(context.Background())
	require.NoError(t, err)
	return model.NewParticipant(model.ParticipantID(id), "127.0.0.1:4000", name, ts.app.MockClock.Now())
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.app.Registry.CreateIfAbsent("Arena", ts.participant(t, "a"))
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/v1/health")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","sessions":1}`, rr.Body.String())
}

func TestListSessions(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/sessions")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"sessions":[]}`, rr.Body.String())

	host := ts.participant(t, "a")
	_, err := ts.app.Registry.CreateIfAbsent("Zeta", host)
	require.NoError(t, err)
	_, err = ts.app.Registry.CreateIfAbsent("Alpha", ts.participant(t, "b"))
	require.NoError(t, err)

	list := decode[response.SessionList](t, ts.request(http.MethodGet, "/api/v1/sessions"))
	require.Len(t, list.Sessions, 2)
	assert.Equal(t, "Alpha", list.Sessions[0].Name)
	assert.Equal(t, "Zeta", list.Sessions[1].Name)
	assert.Equal(t, []string{host.DisplayName}, list.Sessions[1].Players)
}

func TestGetSessionBeforeStart(t *testing.T) {
	ts := newTestServer(t)
	host := ts.participant(t, "a")
	_, err := ts.app.Registry.CreateIfAbsent("Arena", host)
	require.NoError(t, err)

	rr := ts.request(http.MethodGet, "/api/v1/sessions/Arena")
	require.Equal(t, http.StatusOK, rr.Code)

	sess := decode[response.Session](t, rr)
	assert.Equal(t, "Arena", sess.Name)
	assert.Equal(t, string(model.PhaseLobby), sess.Phase)
	assert.False(t, sess.Started)
	assert.Empty(t, sess.Board)
	assert.Nil(t, sess.Turn)
	assert.Nil(t, sess.StartedAt)
	require.Len(t, sess.Seats, 1)
	assert.Equal(t, response.Seat{ID: "a", DisplayName: host.DisplayName, Symbol: 1}, sess.Seats[0])
}

func TestGetSessionAfterWin(t *testing.T) {
	ts := newTestServer(t)
	host, guest := ts.participant(t, "a"), ts.participant(t, "b")
	sess, err := ts.app.Registry.CreateIfAbsent("Arena", host)
	require.NoError(t, err)
	require.NoError(t, sess.Join(guest))
	require.NoError(t, sess.Start(host.ID))
	for _, m := range []struct {
		id  model.ParticipantID
		pos model.Position
	}{
		{host.ID, model.Position{Row: 0, Col: 0}},
		{guest.ID, model.Position{Row: 1, Col: 0}},
		{host.ID, model.Position{Row: 0, Col: 1}},
		{guest.ID, model.Position{Row: 1, Col: 1}},
		{host.ID, model.Position{Row: 0, Col: 2}},
	} {
		require.NoError(t, sess.Move(m.id, m.pos))
	}

	view := decode[response.Session](t, ts.request(http.MethodGet, "/api/v1/sessions/Arena"))

	assert.Equal(t, string(model.PhaseFinished), view.Phase)
	assert.Equal(t, [][]int{{1, 1, 1}, {2, 2, 0}, {0, 0, 0}}, view.Board)
	assert.Equal(t, "winner", view.Result.Outcome)
	assert.Equal(t, "a", view.Result.WinnerID)
	assert.Equal(t, 1, view.Result.Symbol)
	assert.Equal(t, [][2]int{{0, 0}, {0, 1}, {0, 2}}, view.Result.Cells)
	assert.NotNil(t, view.StartedAt)
}

func TestGetSessionNotFound(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/sessions/Ghost")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	body := decode[apierr.ErrorResponse](t, rr)
	assert.Equal(t, apierr.CodeSessionNotFound, body.Error.Code)
}

func TestGetSessionInvalidName(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/sessions/bad-name")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidSessionName, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNotFound, decode[apierr.ErrorResponse](t, rr).Error.Code)

	rr = ts.request(http.MethodPost, "/api/v1/sessions")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, apierr.CodeMethodNotAllowed, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

// panickingRegistry blows up on List to exercise the recovery middleware
type panickingRegistry struct {
	registry.RegistryInterface
}

func (panickingRegistry) List() []model.Summary {
	panic("registry corrupted")
}

func TestPanicReturnsJSONError(t *testing.T) {
	router := api.NewRouter(api.RouterConfig{
		Logger:   testutil.NopLogger(),
		Registry: panickingRegistry{},
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, apierr.CodeInternalError, decode[apierr.ErrorResponse](t, rr).Error.Code)
}

func TestServerServesAndShutsDown(t *testing.T) {
	ts := newTestServer(t)
	cfg := api.DefaultServerConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := api.NewServer(ts.handler, cfg, testutil.NopLogger())
	require.NoError(t, srv.Listen())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	resp, err := http.Get("http://" + srv.Addr() + "/api/v1/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, <-errCh)
}
