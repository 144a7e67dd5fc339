// Package daemon coordinates the long-running Cuadrilla attendance server.
//
// It owns the attendance store for the lifetime of the process, takes a
// flock-based lock in the data directory so only one writer daemon runs at a
// time, and serves the JSON API that dictation clients and the CLI talk to.
//
// HTTP handlers stay thin: they decode requests, delegate to the services in
// internal/api and translate service errors into status codes through
// statusForError.
package daemon
