// Package http implements the HTTP surface of the sync engine.
//
// It exposes route wiring, request handlers, and middleware for the local
// REST API. Cross-cutting concerns such as device identity, request
// tracing, access logging, response compression, and payload integrity
// checks are handled in this package before requests are delegated to the
// service layer.
package http
