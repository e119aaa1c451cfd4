package audit

import "errors"

// Sentinel errors returned by recorder implementations. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrInvalidEntry is returned when an entry is missing the fields the
	// compliance log cannot derive itself (operation, user and device ids,
	// outcome).
	ErrInvalidEntry = errors.New("audit entry is missing required fields")

	// ErrDuplicateEntry is returned when an entry with the same id has
	// already been recorded. The log is append-only, so the original entry
	// stands.
	ErrDuplicateEntry = errors.New("audit entry already recorded")

	// ErrEntryNotRecorded is returned when an INSERT completes without
	// error but the number of affected rows is zero, indicating that no
	// entry was actually persisted.
	ErrEntryNotRecorded = errors.New("audit entry was not recorded")
)
