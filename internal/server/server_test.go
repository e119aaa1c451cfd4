package server

import (
	"testing"

	"github.com/havenmind/syncd/internal/config"
	"github.com/havenmind/syncd/internal/handler"
	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_HTTP(t *testing.T) {
	log := logger.Nop()
	cfg := config.Server{HTTPAddress: "localhost:0"}

	handlers, err := handler.NewHandlers(&service.Services{}, cfg, log)
	require.NoError(t, err)

	srv, err := NewServer(handlers, cfg, log)
	require.NoError(t, err)
	assert.NotNil(t, srv)
}

func TestNewServer_NoTransportConfigured(t *testing.T) {
	srv, err := NewServer(&handler.Handlers{}, config.Server{}, logger.Nop())

	assert.ErrorIs(t, err, errNoServersAreCreated)
	assert.Nil(t, srv)
}
