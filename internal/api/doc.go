// Package api defines the wire-format types exchanged with cuadrillad, the
// services that implement its attendance and roster operations on top of the
// attendance store, and an HTTP client for the CLI.
//
// # Key Types
//
// MarkRequest/MarkResponse: single manual entry.
//
// BulkRequest/BulkResponse: dictated batches sent by the submission queue.
// Items are processed independently; a bad item is skipped and counted,
// never failing the batch.
//
// DayEntry, Summary, Site, Worker: read models for listings.
//
// # Design Notes
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Document IDs are normalized server-side with dictation.NormalizeDocument, so
// "12.345.678-k" and "12345678K" resolve to the same worker.
package api
