package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/utils"
)

const (
	userIDHeader   = "X-User-ID"
	deviceIDHeader = "X-Device-ID"
)

// identity is an HTTP middleware that establishes which user and device a
// request acts for.
//
// It reads the "X-User-ID" and "X-Device-ID" headers and stores them in the
// request context under [utils.UserIDCtxKey] and [utils.DeviceIDCtxKey]
// before delegating to the next handler. Requests missing either header are
// rejected with HTTP 401 Unauthorized.
func (h *Handler) identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		userID := strings.TrimSpace(r.Header.Get(userIDHeader))
		if userID == "" {
			log.Err(ErrMissingUserID).Send()
			http.Error(w, ErrMissingUserID.Error(), http.StatusUnauthorized)
			return
		}

		deviceID := strings.TrimSpace(r.Header.Get(deviceIDHeader))
		if deviceID == "" {
			log.Err(ErrMissingDeviceID).Send()
			http.Error(w, ErrMissingDeviceID.Error(), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), utils.UserIDCtxKey, userID)
		ctx = context.WithValue(ctx, utils.DeviceIDCtxKey, deviceID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
