// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors used by the identity middleware when reading the device
// identity headers. Callers can match against them with [errors.Is].
var (
	// ErrMissingUserID is returned when the incoming request carries no
	// "X-User-ID" header.
	ErrMissingUserID = errors.New("missing `X-User-ID` header")

	// ErrMissingDeviceID is returned when the incoming request carries no
	// "X-Device-ID" header.
	ErrMissingDeviceID = errors.New("missing `X-Device-ID` header")
)
