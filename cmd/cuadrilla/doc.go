// Command cuadrilla is the operator CLI for the attendance daemon.
//
// It runs the daemon in the foreground (serve), feeds recognized speech to the
// dictation parser and submission queue (dictate), inspects the parser offline
// (parse), and wraps the HTTP API for manual marks, daily listings, exports
// and roster administration.
package main
