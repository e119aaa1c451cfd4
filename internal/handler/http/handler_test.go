package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/havenmind/syncd/internal/audit"
	"github.com/havenmind/syncd/internal/device"
	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/mock"
	"github.com/havenmind/syncd/internal/service"
	"github.com/havenmind/syncd/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type handlerFixture struct {
	handler  *Handler
	router   http.Handler
	engine   *mock.MockSyncEngine
	registry *device.Registry
	handoff  *device.HandoffBroker
	recorder audit.Recorder
}

func newHandlerFixture(t *testing.T, ctrl *gomock.Controller) *handlerFixture {
	t.Helper()
	log := logger.Nop()

	engine := mock.NewMockSyncEngine(ctrl)
	registry := device.NewRegistry(log)
	broker := device.NewHandoffBroker(registry, "syncd-test", "test-sign-key", time.Second, log)
	recorder := audit.NewMemoryRecorder(log)

	handler := NewHandler(&service.Services{
		Engine:   engine,
		Registry: registry,
		Handoff:  broker,
		Recorder: recorder,
	}, log)

	return &handlerFixture{
		handler:  handler,
		router:   handler.Init(),
		engine:   engine,
		registry: registry,
		handoff:  broker,
		recorder: recorder,
	}
}

// serve runs one request through the full router, with identity headers for
// user-1/phone unless withIdentity is false.
func (f *handlerFixture) serve(t *testing.T, method, target string, body any, withIdentity bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, target, reader)
	if withIdentity {
		req.Header.Set(userIDHeader, "user-1")
		req.Header.Set(deviceIDHeader, "phone")
	}

	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func (f *handlerFixture) registerDevice(t *testing.T, id string, caps models.DeviceCapabilities) {
	t.Helper()
	_, err := f.registry.Register(models.TierPremium, models.DeviceRecord{
		ID:           id,
		UserID:       "user-1",
		Capabilities: caps,
	})
	require.NoError(t, err)
}
