// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logLine redirects the logger into a buffer, emits one entry, and decodes it.
func logLine(t *testing.T, l *Logger, msg string) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	l.Logger = l.Output(&buf)
	l.Info().Msg(msg)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_EntryShape(t *testing.T) {
	l := NewLogger("engine")
	require.NotNil(t, l)

	entry := logLine(t, l, "pipeline started")
	assert.Equal(t, "engine", entry["role"])
	assert.Equal(t, "pipeline started", entry["message"])
	assert.Contains(t, entry, "time")

	assert.Equal(t, "func", zerolog.CallerFieldName)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestNop_DiscardsOutput(t *testing.T) {
	var buf bytes.Buffer
	l := Nop()
	require.NotNil(t, l)

	l.Logger = l.Output(&buf)
	l.Error().Msg("dropped")

	assert.Empty(t, buf.String())
}

func TestGetChildLogger_InheritsRole(t *testing.T) {
	parent := NewLogger("scheduler")
	child := parent.GetChildLogger()
	require.NotNil(t, child)
	assert.NotSame(t, parent, child)

	entry := logLine(t, child, "lane drained")
	assert.Equal(t, "scheduler", entry["role"])
}

func TestFromContext(t *testing.T) {
	// Never nil, even on a bare context.
	require.NotNil(t, FromContext(context.Background()))

	var buf bytes.Buffer
	zl := zerolog.New(&buf).With().Str("trace_id", "t-1").Logger()
	ctx := zl.WithContext(context.Background())

	FromContext(ctx).Info().Msg("scoped")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "t-1", entry["trace_id"])
}

func TestFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/sync/pull", nil)
	require.NotNil(t, FromRequest(req))

	var buf bytes.Buffer
	zl := zerolog.New(&buf).With().Str("device_id", "phone").Logger()
	req = req.WithContext(zl.WithContext(req.Context()))

	FromRequest(req).Info().Msg("request scoped")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "phone", entry["device_id"])
}
