// Package attendance persists sites, workers and daily attendance records in
// SQLite.
//
// The store is the single source of truth behind the daemon's HTTP API. Worker
// identity is the composite (site, document ID) pair; ResolveWorker creates
// unseen workers race-safely with INSERT ... ON CONFLICT DO NOTHING followed by
// a re-read, and Upsert keeps exactly one record per worker and day, with later
// writes replacing earlier ones. All writes go through the busy-retry helpers
// so concurrent request handlers tolerate transient SQLITE_BUSY errors.
package attendance
