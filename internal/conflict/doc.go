// Package conflict implements cross-device conflict detection and
// resolution for sync operations.
//
// A conflict exists when an incoming operation's version for an entity key
// is not the strict successor of the last version applied locally, meaning
// two writers advanced the same logical record from the same base. Detected
// conflicts are classified by therapeutic impact and resolved by the
// first applicable strategy, in order: crisis_priority,
// therapeutic_priority, assisted merge (when an advisor is configured and
// its confidence clears the threshold), and timestamp_priority as the
// deterministic default.
//
// Resolution is deterministic: identical versions and context always
// produce the same strategy and winner. Every tie-break chain ends in a
// total order (device id), so no outcome ever depends on map iteration or
// wall-clock time.
package conflict
