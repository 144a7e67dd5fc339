package attendance

import (
	"database/sql"
	"time"
)

const (
	siteColumns   = "id, name, created_at"
	workerColumns = "id, site_id, full_name, document_id, active, created_at, updated_at"
	recordColumns = "id, worker_id, date, status, notes, created_at, updated_at"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(scanner rowScanner) (*Site, error) {
	var (
		site       Site
		createdRaw sql.NullString
	)
	if err := scanner.Scan(&site.ID, &site.Name, &createdRaw); err != nil {
		return nil, err
	}
	site.CreatedAt = parseTimestamp(createdRaw)
	return &site, nil
}

func scanWorker(scanner rowScanner) (*Worker, error) {
	var (
		worker     Worker
		active     int64
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&worker.ID,
		&worker.SiteID,
		&worker.FullName,
		&worker.DocumentID,
		&active,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	worker.Active = active != 0
	worker.CreatedAt = parseTimestamp(createdRaw)
	worker.UpdatedAt = parseTimestamp(updatedRaw)
	return &worker, nil
}

func scanRecord(scanner rowScanner) (*Record, error) {
	var (
		record     Record
		statusStr  string
		notes      sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&record.ID,
		&record.WorkerID,
		&record.Date,
		&statusStr,
		&notes,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	record.Status = Status(statusStr)
	record.Notes = notes.String
	record.CreatedAt = parseTimestamp(createdRaw)
	record.UpdatedAt = parseTimestamp(updatedRaw)
	return &record, nil
}

func parseTimestamp(raw sql.NullString) time.Time {
	if !raw.Valid || raw.String == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw.String)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
