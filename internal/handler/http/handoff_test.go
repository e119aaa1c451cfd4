package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/havenmind/syncd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func handoffCapable() models.DeviceCapabilities {
	return models.DeviceCapabilities{
		CanOriginateHandoff: true,
		CanAcceptHandoff:    true,
		SupportsPush:        true,
	}
}

func TestOfferHandoff_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newHandlerFixture(t, ctrl)

	f.registerDevice(t, "phone", handoffCapable())
	f.registerDevice(t, "tablet", handoffCapable())

	body := models.HandoffMessage{
		SessionID:      "session-1",
		SourceDeviceID: "phone",
		TargetDeviceID: "tablet",
	}

	resp := f.serve(t, http.MethodPost, "/api/handoff/offer", body, true)

	require.Equal(t, http.StatusCreated, resp.Code)

	var offered models.HandoffMessage
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &offered))
	assert.NotEmpty(t, offered.Token)
	assert.False(t, offered.OfferedAt.IsZero())
}

func TestOfferHandoff_UnregisteredTarget(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newHandlerFixture(t, ctrl)

	f.registerDevice(t, "phone", handoffCapable())

	body := models.HandoffMessage{
		SessionID:      "session-1",
		SourceDeviceID: "phone",
		TargetDeviceID: "ghost",
	}

	resp := f.serve(t, http.MethodPost, "/api/handoff/offer", body, true)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHandoff_AcceptRoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newHandlerFixture(t, ctrl)

	f.registerDevice(t, "phone", handoffCapable())
	f.registerDevice(t, "tablet", handoffCapable())

	offerResp := f.serve(t, http.MethodPost, "/api/handoff/offer", models.HandoffMessage{
		SessionID:      "session-2",
		SourceDeviceID: "phone",
		TargetDeviceID: "tablet",
	}, true)
	require.Equal(t, http.StatusCreated, offerResp.Code)

	var offered models.HandoffMessage
	require.NoError(t, json.Unmarshal(offerResp.Body.Bytes(), &offered))

	// The target accepts while the source awaits the answer.
	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- f.serve(t, http.MethodGet, "/api/handoff/session-2", nil, true)
	}()

	var acceptResp *httptest.ResponseRecorder
	require.Eventually(t, func() bool {
		encoded, err := json.Marshal(map[string]string{"token": offered.Token})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/handoff/session-2/accept", bytes.NewReader(encoded))
		req.Header.Set(userIDHeader, "user-1")
		req.Header.Set(deviceIDHeader, "tablet")

		acceptResp = httptest.NewRecorder()
		f.router.ServeHTTP(acceptResp, req)
		return acceptResp.Code == http.StatusNoContent
	}, 2*time.Second, 10*time.Millisecond)

	awaitResp := <-done
	require.Equal(t, http.StatusOK, awaitResp.Code)
	assert.Contains(t, awaitResp.Body.String(), string(models.HandoffAccepted))
}

func TestHandoff_RejectUnknownSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newHandlerFixture(t, ctrl)

	resp := f.serve(t, http.MethodPost, "/api/handoff/ghost-session/reject", nil, true)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAcceptHandoff_WrongDevice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newHandlerFixture(t, ctrl)

	f.registerDevice(t, "phone", handoffCapable())
	f.registerDevice(t, "tablet", handoffCapable())

	offerResp := f.serve(t, http.MethodPost, "/api/handoff/offer", models.HandoffMessage{
		SessionID:      "session-3",
		SourceDeviceID: "phone",
		TargetDeviceID: "tablet",
	}, true)
	require.Equal(t, http.StatusCreated, offerResp.Code)

	var offered models.HandoffMessage
	require.NoError(t, json.Unmarshal(offerResp.Body.Bytes(), &offered))

	// The identity headers say "phone", but the token was minted for
	// "tablet": the broker must refuse.
	resp := f.serve(t, http.MethodPost, "/api/handoff/session-3/accept",
		map[string]string{"token": offered.Token}, true)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
