package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/bainoculars/internal/domain/kiosk"
	"github.com/okian/bainoculars/internal/domain/model"
)

// CommandHandler turns POSTs into queued kiosk commands.
type CommandHandler struct {
	deps Commander
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(deps Commander) *CommandHandler {
	return &CommandHandler{deps: deps}
}

// HandleEnter handles POST /mode/{mode}. Only explore and arcade can be
// entered; use /back for the menu.
func (h *CommandHandler) HandleEnter(w http.ResponseWriter, r *http.Request) {
	const op = "api.enter_mode"
	mode, err := model.ParseMode(chi.URLParam(r, "mode"))
	if err != nil || mode == model.ModeMenu {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%s: %w: %w", op, ErrBadRequest, kiosk.ErrUnknownMode))
		return
	}
	h.submit(w, r, op, model.Command{Kind: model.CommandEnter, Mode: mode})
}

// HandleBack handles POST /back.
func (h *CommandHandler) HandleBack(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "api.back", model.Command{Kind: model.CommandBack})
}

// HandleCapture handles POST /capture, the touch equivalent of the button.
func (h *CommandHandler) HandleCapture(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "api.capture", model.Command{Kind: model.CommandCapture})
}

// HandleQuit handles POST /quit.
func (h *CommandHandler) HandleQuit(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "api.quit", model.Command{Kind: model.CommandQuit})
}

func (h *CommandHandler) submit(w http.ResponseWriter, r *http.Request, op string, c model.Command) {
	if err := h.deps.Submit(r.Context(), c); err != nil {
		submitError(w, op, err)
		return
	}
	ack := ackResponse{Status: "accepted", Command: c.Kind.String()}
	if c.Kind == model.CommandEnter {
		ack.Mode = c.Mode.String()
	}
	writeJSON(w, http.StatusAccepted, ack)
}
