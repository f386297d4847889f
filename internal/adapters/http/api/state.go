package api

import (
	"fmt"
	"net/http"
)

// StateHandler serves the machine state.
type StateHandler struct {
	deps StateProvider
}

// NewStateHandler creates a new state handler.
func NewStateHandler(deps StateProvider) *StateHandler {
	return &StateHandler{deps: deps}
}

// HandleState handles GET /state requests.
func (h *StateHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.State(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", fmt.Errorf("api.get_state: %w: %w", ErrUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, st)
}
