package adapter

import "errors"

var (
	// ErrBadRequest maps HTTP 400 responses.
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized maps HTTP 401 responses.
	ErrUnauthorized = errors.New("client unauthorized")

	// ErrForbidden maps HTTP 403 responses.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound maps HTTP 404 responses.
	ErrNotFound = errors.New("not found")

	// ErrConflict maps HTTP 409 responses. The backend holds a version the
	// pushed batch did not supersede.
	ErrConflict = errors.New("version conflict")

	// ErrBadGateway maps HTTP 502 responses.
	ErrBadGateway = errors.New("bad gateway")

	// ErrInternalServerError maps HTTP 500 responses.
	ErrInternalServerError = errors.New("internal server error")
)
