// Package handler aggregates the transport handlers exposed by the sync
// engine. Only HTTP is served today; the aggregate keeps startup wiring in
// one place should another transport be added.
package handler

import (
	"github.com/havenmind/syncd/internal/config"
	"github.com/havenmind/syncd/internal/handler/http"
	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
}

func NewHandlers(services *service.Services, cfg config.Server, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	handlers := &Handlers{}

	if cfg.HTTPAddress != "" {
		handlers.HTTP = http.NewHandler(services, logger)
	}

	if handlers.HTTP == nil {
		return nil, errNoHandlersAreCreated
	}

	return handlers, nil
}
