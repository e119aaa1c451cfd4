package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/havenmind/syncd/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentity_StoresUserAndDeviceInContext(t *testing.T) {
	h := newBareHandler()

	var gotUser, gotDevice string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = utils.GetUserIDFromContext(r.Context())
		gotDevice, _ = utils.GetDeviceIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(userIDHeader, "user-1")
	req.Header.Set(deviceIDHeader, "phone")
	resp := httptest.NewRecorder()

	h.identity(next).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "user-1", gotUser)
	assert.Equal(t, "phone", gotDevice)
}

func TestIdentity_Rejections(t *testing.T) {
	h := newBareHandler()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without identity")
	})

	tests := []struct {
		name    string
		headers map[string]string
		wantErr string
	}{
		{
			name:    "no headers at all",
			headers: nil,
			wantErr: ErrMissingUserID.Error(),
		},
		{
			name:    "device id only",
			headers: map[string]string{deviceIDHeader: "phone"},
			wantErr: ErrMissingUserID.Error(),
		},
		{
			name:    "user id only",
			headers: map[string]string{userIDHeader: "user-1"},
			wantErr: ErrMissingDeviceID.Error(),
		},
		{
			name:    "whitespace user id",
			headers: map[string]string{userIDHeader: "   ", deviceIDHeader: "phone"},
			wantErr: ErrMissingUserID.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			resp := httptest.NewRecorder()

			h.identity(next).ServeHTTP(resp, req)

			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			assert.Contains(t, resp.Body.String(), tt.wantErr)
		})
	}
}
