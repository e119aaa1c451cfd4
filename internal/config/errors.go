package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidAppConfigs indicates invalid application-level settings
	// (for example, missing master secret or hash key).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidSchedulerConfigs indicates invalid scheduler sizing
	// (for example, a negative worker count).
	ErrInvalidSchedulerConfigs = errors.New("invalid scheduler configuration")
	// ErrInvalidAdapterConfigs indicates invalid backend adapter settings
	// (for example, missing address with a configured timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
)
