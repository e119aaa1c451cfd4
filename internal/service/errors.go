package service

import "errors"

var (
	ErrEngineClosed = errors.New("sync engine is closed")

	ErrValidationNoPayloadProvided = errors.New("no payload provided")
	ErrValidationNoOperation       = errors.New("no operation provided")
)
