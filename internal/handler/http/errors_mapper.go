package http

import (
	"errors"
	"net/http"

	"github.com/havenmind/syncd/internal/adapter"
	"github.com/havenmind/syncd/internal/service"
	"github.com/havenmind/syncd/models"
)

var errorStatusMap = map[error]int{
	models.ErrValidation:         http.StatusBadRequest,
	models.ErrPIIViolation:       http.StatusUnprocessableEntity,
	models.ErrEncryption:         http.StatusInternalServerError,
	models.ErrCompliance:         http.StatusForbidden,
	models.ErrConflictUnresolved: http.StatusConflict,
	models.ErrNetwork:            http.StatusBadGateway,

	service.ErrEngineClosed:                http.StatusServiceUnavailable,
	service.ErrValidationNoOperation:       http.StatusBadRequest,
	service.ErrValidationNoPayloadProvided: http.StatusBadRequest,

	adapter.ErrBadRequest:          http.StatusBadRequest,
	adapter.ErrUnauthorized:        http.StatusUnauthorized,
	adapter.ErrForbidden:           http.StatusForbidden,
	adapter.ErrNotFound:            http.StatusNotFound,
	adapter.ErrConflict:            http.StatusConflict,
	adapter.ErrBadGateway:          http.StatusBadGateway,
	adapter.ErrInternalServerError: http.StatusBadGateway,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
