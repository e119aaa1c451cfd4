package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/utils"
	"github.com/havenmind/syncd/models"
)

func (h *Handler) offerHandoff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.offerHandoff").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	var msg models.HandoffMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		log.Err(err).Str("func", "*Handler.offerHandoff").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	offered, err := h.services.Handoff.Offer(userID, msg)
	if err != nil {
		log.Err(err).Str("func", "*Handler.offerHandoff").Msg("error offering handoff")
		http.Error(w, "error offering handoff", statusFromError(err))
		return
	}

	utils.WriteJSON(w, offered, http.StatusCreated)
}

// awaitHandoff blocks until the target device answers the offer or the
// broker times the session out, then reports the outcome to the source.
func (h *Handler) awaitHandoff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	sessionID := chi.URLParam(r, "sessionID")

	status, err := h.services.Handoff.Await(ctx, sessionID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.awaitHandoff").Msg("error awaiting handoff answer")
		http.Error(w, "error awaiting handoff answer", statusFromError(err))
		return
	}

	utils.WriteJSON(w, map[string]models.HandoffStatus{"status": status}, http.StatusOK)
}

func (h *Handler) acceptHandoff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	deviceID, found := utils.GetDeviceIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.acceptHandoff").Msg("no device ID was given")
		http.Error(w, "no device ID was given", http.StatusBadRequest)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Err(err).Str("func", "*Handler.acceptHandoff").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.Handoff.Accept(sessionID, deviceID, body.Token); err != nil {
		log.Err(err).Str("func", "*Handler.acceptHandoff").Msg("error accepting handoff")
		http.Error(w, "error accepting handoff", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rejectHandoff(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	sessionID := chi.URLParam(r, "sessionID")

	if err := h.services.Handoff.Reject(sessionID); err != nil {
		log.Err(err).Str("func", "*Handler.rejectHandoff").Msg("error rejecting handoff")
		http.Error(w, "error rejecting handoff", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
