package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/havenmind/syncd/internal/audit"
	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/utils"
	"github.com/havenmind/syncd/models"
)

// listAudit serves the compliance trail for the requesting user, filtered
// by the optional query parameters device_id, outcome, since, until (RFC
// 3339) and limit.
func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.listAudit").Msg("no user ID was given")
		http.Error(w, "no user ID was given", http.StatusBadRequest)
		return
	}

	query := audit.Query{
		UserID:   userID,
		DeviceID: r.URL.Query().Get("device_id"),
		Outcome:  models.AuditOutcome(r.URL.Query().Get("outcome")),
	}

	if since := r.URL.Query().Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			http.Error(w, "invalid `since` timestamp", http.StatusBadRequest)
			return
		}
		query.Since = t
	}
	if until := r.URL.Query().Get("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			http.Error(w, "invalid `until` timestamp", http.StatusBadRequest)
			return
		}
		query.Until = t
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			http.Error(w, "invalid `limit` value", http.StatusBadRequest)
			return
		}
		query.Limit = n
	}

	entries, err := h.services.Recorder.List(ctx, query)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listAudit").Msg("error listing audit entries")
		http.Error(w, "error listing audit entries", statusFromError(err))
		return
	}

	utils.WriteJSON(w, entries, http.StatusOK)
}
