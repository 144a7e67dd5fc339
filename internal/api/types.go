package api

import "cuadrilla/internal/attendance"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Site describes a work site.
type Site struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Worker describes a worker registered at a site.
type Worker struct {
	ID         int64  `json:"id"`
	SiteID     int64  `json:"siteId"`
	FullName   string `json:"fullName"`
	DocumentID string `json:"documentId"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"createdAt,omitempty"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
}

// MarkRequest records one worker's attendance.
type MarkRequest struct {
	SiteID     int64  `json:"siteId"`
	DocumentID string `json:"documentId"`
	Status     string `json:"status"`
	FullName   string `json:"fullName,omitempty"`
	Date       string `json:"date,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// MarkResponse confirms a single entry.
type MarkResponse struct {
	OK           bool   `json:"ok"`
	AttendanceID int64  `json:"attendanceId"`
	Date         string `json:"date"`
	Status       string `json:"status"`
	Worker       Worker `json:"worker"`
}

// BulkItem is one dictated pair inside a BulkRequest.
type BulkItem struct {
	DocumentID string `json:"documentId"`
	Status     string `json:"status"`
	FullName   string `json:"fullName,omitempty"`
	Date       string `json:"date,omitempty"`
	Notes      string `json:"notes,omitempty"`

	malformed string
}

// BulkRequest records many entries for one site.
type BulkRequest struct {
	SiteID int64      `json:"siteId"`
	Items  []BulkItem `json:"items"`
}

// SkippedItem explains why a bulk item was not recorded.
type SkippedItem struct {
	Index      int    `json:"index"`
	DocumentID string `json:"documentId,omitempty"`
	Reason     string `json:"reason"`
}

// BulkResponse reports how many items were recorded and skipped.
type BulkResponse struct {
	OK            bool          `json:"ok"`
	AcceptedCount int           `json:"acceptedCount"`
	SkippedCount  int           `json:"skippedCount"`
	Skipped       []SkippedItem `json:"skipped,omitempty"`
}

// DayEntry is one row of a site's daily listing.
type DayEntry struct {
	AttendanceID int64  `json:"attendanceId"`
	WorkerID     int64  `json:"workerId"`
	DocumentID   string `json:"documentId"`
	FullName     string `json:"fullName"`
	Status       string `json:"status"`
	Date         string `json:"date"`
	Notes        string `json:"notes,omitempty"`
}

// Summary counts a site's attendance for a day.
type Summary = attendance.Summary

// CreateSiteRequest creates a site.
type CreateSiteRequest struct {
	Name string `json:"name"`
}

// UpdateSiteRequest renames a site.
type UpdateSiteRequest struct {
	Name string `json:"name"`
}

// DeleteSiteResponse reports what was removed along with a site.
type DeleteSiteResponse struct {
	OK         bool  `json:"ok"`
	SiteID     int64 `json:"siteId"`
	Workers    int   `json:"workers"`
	Records    int   `json:"records"`
	Activities int   `json:"activities"`
}

// Activity is one entry of a site's daily work log.
type Activity struct {
	ID          int64  `json:"id"`
	SiteID      int64  `json:"siteId"`
	Date        string `json:"date"`
	Description string `json:"description"`
	OrderIndex  int    `json:"orderIndex"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// ActivityItem is one activity inside an AddActivitiesRequest.
type ActivityItem struct {
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
}

// AddActivitiesRequest appends either a single Description or a list of
// Items. Date applies to every item that does not carry its own.
type AddActivitiesRequest struct {
	Description string         `json:"description,omitempty"`
	Date        string         `json:"date,omitempty"`
	Items       []ActivityItem `json:"items,omitempty"`
}

// UpdateActivityRequest changes the fields that are present.
type UpdateActivityRequest struct {
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
	OrderIndex  *int    `json:"orderIndex,omitempty"`
}

// RegisterWorkerRequest registers (or reactivates) a worker.
type RegisterWorkerRequest struct {
	SiteID     int64  `json:"siteId"`
	DocumentID string `json:"documentId"`
	FullName   string `json:"fullName"`
}

// RegisterWorkerResponse reports whether a new worker row was created.
type RegisterWorkerResponse struct {
	Created bool   `json:"created"`
	Worker  Worker `json:"worker"`
}

// UpdateWorkerRequest renames a worker.
type UpdateWorkerRequest struct {
	FullName string `json:"fullName"`
}

// DeleteResponse reports whether a delete removed anything.
type DeleteResponse struct {
	OK bool `json:"ok"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool   `json:"running"`
	PID          int    `json:"pid"`
	RunID        string `json:"runId,omitempty"`
	StartedAt    string `json:"startedAt,omitempty"`
	DatabasePath string `json:"databasePath"`
	LockFilePath string `json:"lockFilePath"`
	LogPath      string `json:"logPath,omitempty"`
	Sites        int    `json:"sites"`
	AuthRequired bool   `json:"authRequired"`
}

// HealthResponse reports database diagnostics.
type HealthResponse struct {
	Status   string                    `json:"status"`
	Database attendance.DatabaseHealth `json:"database"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}
