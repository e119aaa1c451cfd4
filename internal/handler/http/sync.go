package http

import (
	"encoding/json"
	"net/http"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/utils"
	"github.com/havenmind/syncd/models"
)

// submitEnvelope is the wire shape accepted by submitOperation: the
// operation descriptor plus the cleartext payload to sanitize and encrypt.
type submitEnvelope struct {
	Operation *models.SyncOperation `json:"operation"`
	Payload   map[string]any        `json:"payload"`
}

func (h *Handler) submitOperation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var envelope submitEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		log.Err(err).Str("func", "*Handler.submitOperation").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if envelope.Operation != nil {
		if userID, ok := utils.GetUserIDFromContext(ctx); ok {
			envelope.Operation.Metadata.UserID = userID
		}
		if deviceID, ok := utils.GetDeviceIDFromContext(ctx); ok {
			envelope.Operation.Metadata.DeviceID = deviceID
		}
	}

	if err := h.services.Engine.Submit(ctx, envelope.Operation, envelope.Payload); err != nil {
		log.Err(err).Str("func", "*Handler.submitOperation").Msg("error submitting operation")
		http.Error(w, "error submitting operation", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) pull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var pullRequest models.PullRequest
	if err := json.NewDecoder(r.Body).Decode(&pullRequest); err != nil {
		log.Err(err).Str("func", "*Handler.pull").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if userID, ok := utils.GetUserIDFromContext(ctx); ok {
		pullRequest.UserID = userID
	}
	if deviceID, ok := utils.GetDeviceIDFromContext(ctx); ok {
		pullRequest.DeviceID = deviceID
	}

	response, err := h.services.Engine.Pull(ctx, pullRequest)
	if err != nil {
		log.Err(err).Str("func", "*Handler.pull").Msg("error pulling operations")
		http.Error(w, "error pulling operations", statusFromError(err))
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}
