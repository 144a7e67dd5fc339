// Package submission batches dictated attendance pairs on the client side.
//
// A Queue collects pairs per document ID (last status wins) and sends them as
// one bulk request once input has been quiet for the flush delay. Only entries
// confirmed by a successful send are cleared, and only when their status did
// not change while the request was in flight; failures keep everything queued
// and retry later. Switching sites discards unsent work for the previous site.
//
// Each dictation session owns its own Queue; there is no package-level state.
package submission
