package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cuadrilla/internal/services"
)

// Upsert records status for a worker on date, replacing any earlier record
// for the same day. A blank date means the server's local day.
func (s *Store) Upsert(ctx context.Context, workerID int64, date string, status Status, notes string) (*Record, error) {
	if workerID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "attendance", "upsert", "worker id is required", nil)
	}
	if !status.Valid() {
		return nil, services.Wrap(services.ErrValidation, "attendance", "upsert", fmt.Sprintf("invalid status %q", status), nil)
	}
	day, err := ResolveDate(date, s.now())
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	var id int64
	err = s.queryRowWithRetry(ctx, func(row *sql.Row) error {
		return row.Scan(&id)
	}, `INSERT INTO attendance (worker_id, date, status, notes, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT (worker_id, date) DO UPDATE SET
            status = excluded.status,
            notes = excluded.notes,
            updated_at = excluded.updated_at
        RETURNING id`,
		workerID, day, string(status), nullableString(strings.TrimSpace(notes)), now, now,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, services.Wrap(services.ErrNotFound, "attendance", "upsert", fmt.Sprintf("worker %d does not exist", workerID), nil)
		}
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return s.GetRecord(ctx, id)
}

// GetRecord fetches an attendance record by ID.
func (s *Store) GetRecord(ctx context.Context, id int64) (*Record, error) {
	var record *Record
	err := s.queryRowWithRetry(ctx, func(row *sql.Row) error {
		var scanErr error
		record, scanErr = scanRecord(row)
		return scanErr
	}, `SELECT `+recordColumns+` FROM attendance WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "attendance", "get record", fmt.Sprintf("record %d does not exist", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return record, nil
}

// DeleteRecord removes one attendance record and reports whether it existed.
func (s *Store) DeleteRecord(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM attendance WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete record %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Day lists a site's attendance for date ordered by worker name.
func (s *Store) Day(ctx context.Context, siteID int64, date string) ([]DayEntry, error) {
	ctx = ensureContext(ctx)
	day, err := ResolveDate(date, s.now())
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT a.id, w.id, w.document_id, w.full_name, a.date, a.status, a.notes
         FROM attendance a
         JOIN workers w ON w.id = a.worker_id
         WHERE w.site_id = ? AND a.date = ?
         ORDER BY w.full_name COLLATE NOCASE, a.id`,
		siteID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("list day: %w", err)
	}
	defer rows.Close()

	entries := make([]DayEntry, 0)
	for rows.Next() {
		var (
			entry     DayEntry
			statusStr string
			notes     sql.NullString
		)
		if err := rows.Scan(&entry.AttendanceID, &entry.WorkerID, &entry.DocumentID, &entry.FullName, &entry.Date, &statusStr, &notes); err != nil {
			return nil, fmt.Errorf("scan day entry: %w", err)
		}
		entry.Status = Status(statusStr)
		entry.Notes = notes.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Summary counts present, absent and unmarked active workers for a site's day.
func (s *Store) Summary(ctx context.Context, siteID int64, date string) (Summary, error) {
	day, err := ResolveDate(date, s.now())
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{SiteID: siteID, Date: day}
	err = s.queryRowWithRetry(ctx, func(row *sql.Row) error {
		return row.Scan(&summary.Present, &summary.Absent, &summary.ActiveWorkers, &summary.Unmarked)
	}, `SELECT
            COALESCE(SUM(CASE WHEN a.status = 'present' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN a.status = 'absent' THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN w.active = 1 THEN 1 ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN w.active = 1 AND a.id IS NULL THEN 1 ELSE 0 END), 0)
        FROM workers w
        LEFT JOIN attendance a ON a.worker_id = w.id AND a.date = ?
        WHERE w.site_id = ?`,
		day, siteID,
	)
	if err != nil {
		return Summary{}, fmt.Errorf("summary: %w", err)
	}
	return summary, nil
}
