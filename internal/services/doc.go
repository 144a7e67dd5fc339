// Package services defines shared utilities consumed by the API handlers and
// the attendance store.
//
// Key responsibilities:
//   - Context helpers that stamp site IDs, operation names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that let the HTTP layer map
//     failures onto status codes without string matching.
package services
