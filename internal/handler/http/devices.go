package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/utils"
	"github.com/havenmind/syncd/models"
)

func (h *Handler) registerDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var registerRequest models.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&registerRequest); err != nil {
		log.Err(err).Str("func", "*Handler.registerDevice").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	response, err := h.services.Engine.RegisterDevice(ctx, registerRequest)
	if err != nil {
		log.Err(err).Str("func", "*Handler.registerDevice").Msg("error registering device")
		http.Error(w, "error registering device", statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusCreated)
}

func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.listDevices").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	devices := h.services.Registry.List(userID)
	utils.WriteJSON(w, devices, http.StatusOK)
}

func (h *Handler) removeDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.removeDevice").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	deviceID := chi.URLParam(r, "deviceID")
	if deviceID == "" {
		log.Error().Str("func", "*Handler.removeDevice").Msg("no device ID was given")
		http.Error(w, "no device ID was given", http.StatusBadRequest)
		return
	}

	h.services.Registry.Remove(userID, deviceID)
	w.WriteHeader(http.StatusNoContent)
}
