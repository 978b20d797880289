package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"github.com/mcoot/tictacnet/internal/api/apierr"
	"github.com/mcoot/tictacnet/internal/api/response"
	"github.com/mcoot/tictacnet/internal/model"
	"github.com/mcoot/tictacnet/internal/services/registry"
)

// SessionHandler serves read-only views of the session registry
type SessionHandler struct {
	registry registry.RegistryInterface
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(registry registry.RegistryInterface) *SessionHandler {
	return &SessionHandler{registry: registry}
}

// Health handles GET /api/v1/health
func (h *SessionHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:   "ok",
		Sessions: h.registry.Count(),
	})
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, _ *http.Request) {
	sessions := lo.Map(h.registry.List(), func(s model.Summary, _ int) response.SessionSummary {
		return response.SessionSummaryFromModel(s)
	})
	response.JSON(w, http.StatusOK, response.SessionList{Sessions: sessions})
}

// Get handles GET /api/v1/sessions/{name}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := model.SessionName(mux.Vars(r)["name"])
	if err := registry.ValidateName(name); err != nil {
		apierr.WriteError(w, err)
		return
	}

	sess, err := h.registry.Lookup(name)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromSnapshot(sess.Snapshot()))
}
