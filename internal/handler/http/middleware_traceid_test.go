// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBareHandler() *Handler {
	return NewHandler(&service.Services{}, logger.Nop())
}

func TestWithTraceID_GeneratesWhenAbsent(t *testing.T) {
	h := newBareHandler()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()

	h.withTraceID(next).ServeHTTP(resp, req)

	traceID := resp.Header().Get(traceIDHeader)
	require.NotEmpty(t, traceID)
	_, err := uuid.Parse(traceID)
	assert.NoError(t, err)
}

func TestWithTraceID_PropagatesIncoming(t *testing.T) {
	h := newBareHandler()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(traceIDHeader, "trace-from-upstream")
	resp := httptest.NewRecorder()

	h.withTraceID(next).ServeHTTP(resp, req)

	assert.Equal(t, "trace-from-upstream", resp.Header().Get(traceIDHeader))
}
