package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/havenmind/syncd/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func seedAuditEntries(t *testing.T, f *handlerFixture) {
	t.Helper()
	entries := []models.AuditEntry{
		{OperationID: "op-1", UserID: "user-1", DeviceID: "phone", Outcome: models.OutcomeCompleted},
		{OperationID: "op-2", UserID: "user-1", DeviceID: "tablet", Outcome: models.OutcomeFailed},
		{OperationID: "op-3", UserID: "user-2", DeviceID: "phone", Outcome: models.OutcomeCompleted},
	}
	for _, entry := range entries {
		_, err := f.recorder.Record(context.Background(), entry)
		require.NoError(t, err)
	}
}

func TestListAudit_FiltersByUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newHandlerFixture(t, ctrl)
	seedAuditEntries(t, f)

	resp := f.serve(t, http.MethodGet, "/api/audit", nil, true)

	require.Equal(t, http.StatusOK, resp.Code)

	var entries []models.AuditEntry
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, "user-1", entry.UserID)
	}
}

func TestListAudit_DeviceAndOutcomeFilters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newHandlerFixture(t, ctrl)
	seedAuditEntries(t, f)

	resp := f.serve(t, http.MethodGet, "/api/audit?device_id=tablet&outcome=failed", nil, true)

	require.Equal(t, http.StatusOK, resp.Code)

	var entries []models.AuditEntry
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "op-2", entries[0].OperationID)
}

func TestListAudit_InvalidQueryParams(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	f := newHandlerFixture(t, ctrl)

	tests := []struct {
		name   string
		target string
	}{
		{"bad since", "/api/audit?since=yesterday"},
		{"bad until", "/api/audit?until=tomorrow"},
		{"bad limit", "/api/audit?limit=many"},
		{"negative limit", "/api/audit?limit=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.serve(t, http.MethodGet, tt.target, nil, true)
			assert.Equal(t, http.StatusBadRequest, resp.Code)
		})
	}
}
