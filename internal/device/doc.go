// Package device tracks the registry of a user's devices, transfers
// in-progress sessions between them, and fans crisis alerts out to the
// ones that opted in.
package device
