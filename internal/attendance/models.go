package attendance

import (
	"strings"
	"time"
)

// Status is the attendance state recorded for a worker on a given day.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// ParseStatus accepts the wire spelling of a status, ignoring case and
// surrounding whitespace.
func ParseStatus(value string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(value)))
	return status, status.Valid()
}

// Site groups the workers of one crew or work location.
type Site struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// SiteRemoval reports what DeleteSite removed along with the site.
type SiteRemoval struct {
	SiteID     int64 `json:"siteId"`
	Workers    int   `json:"workers"`
	Records    int   `json:"records"`
	Activities int   `json:"activities"`
}

// Activity is one entry in a site's daily work log.
type Activity struct {
	ID          int64     `json:"id"`
	SiteID      int64     `json:"siteId"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	OrderIndex  int       `json:"orderIndex"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ActivityInput describes an activity to append. A blank Date means today.
type ActivityInput struct {
	Description string
	Date        string
}

// ActivityUpdate lists the fields to change on an activity; nil fields are
// left alone.
type ActivityUpdate struct {
	Description *string
	Date        *string
	OrderIndex  *int
}

// Worker is identified by its document ID within a site.
type Worker struct {
	ID         int64     `json:"id"`
	SiteID     int64     `json:"siteId"`
	FullName   string    `json:"fullName"`
	DocumentID string    `json:"documentId"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Record is a single worker's attendance for one calendar day.
type Record struct {
	ID        int64     `json:"id"`
	WorkerID  int64     `json:"workerId"`
	Date      string    `json:"date"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DayEntry joins a record with the worker it belongs to.
type DayEntry struct {
	AttendanceID int64  `json:"attendanceId"`
	WorkerID     int64  `json:"workerId"`
	DocumentID   string `json:"documentId"`
	FullName     string `json:"fullName"`
	Date         string `json:"date"`
	Status       Status `json:"status"`
	Notes        string `json:"notes,omitempty"`
}

// Summary counts a site's attendance for one day.
type Summary struct {
	SiteID        int64  `json:"siteId"`
	Date          string `json:"date"`
	Present       int    `json:"present"`
	Absent        int    `json:"absent"`
	Unmarked      int    `json:"unmarked"`
	ActiveWorkers int    `json:"activeWorkers"`
}

// DatabaseHealth describes the state of the attendance database.
type DatabaseHealth struct {
	DBPath           string         `json:"dbPath"`
	DatabaseExists   bool           `json:"databaseExists"`
	DatabaseReadable bool           `json:"databaseReadable"`
	SchemaVersion    int            `json:"schemaVersion"`
	MissingTables    []string       `json:"missingTables,omitempty"`
	IntegrityCheck   bool           `json:"integrityCheck"`
	RowCounts        map[string]int `json:"rowCounts,omitempty"`
	Error            string         `json:"error,omitempty"`
}
