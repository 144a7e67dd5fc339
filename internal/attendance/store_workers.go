package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cuadrilla/internal/logging"
	"cuadrilla/internal/services"
	"cuadrilla/internal/textutil"
)

// ResolveWorker returns the worker identified by (siteID, documentID),
// creating it on first reference. A blank fullName defaults to the document
// ID. Concurrent callers racing on the same identifier all observe the same
// worker row.
func (s *Store) ResolveWorker(ctx context.Context, siteID int64, documentID, fullName string) (*Worker, error) {
	documentID = strings.TrimSpace(documentID)
	if siteID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "attendance", "resolve worker", "site id is required", nil)
	}
	if documentID == "" {
		return nil, services.Wrap(services.ErrValidation, "attendance", "resolve worker", "document id is required", nil)
	}

	worker, err := s.findWorker(ctx, siteID, documentID)
	if err != nil {
		return nil, err
	}
	if worker != nil {
		return worker, nil
	}

	name := textutil.DisplayName(fullName)
	if name == "" {
		name = documentID
	}
	now := s.timestamp()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO workers (site_id, full_name, document_id, active, created_at, updated_at)
         VALUES (?, ?, ?, 1, ?, ?)
         ON CONFLICT (site_id, document_id) DO NOTHING`,
		siteID, name, documentID, now, now,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, services.Wrap(services.ErrNotFound, "attendance", "resolve worker", fmt.Sprintf("site %d does not exist", siteID), nil)
		}
		return nil, fmt.Errorf("insert worker: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.logger.Debug("worker created", logging.SiteID(siteID), logging.DocumentID(documentID))
	}

	// Re-read: another writer may have inserted the row first.
	worker, err = s.findWorker(ctx, siteID, documentID)
	if err != nil {
		return nil, err
	}
	if worker == nil {
		return nil, fmt.Errorf("resolve worker %s: row missing after insert", documentID)
	}
	return worker, nil
}

// RegisterWorker creates a worker explicitly. An inactive worker with the same
// identifier is reactivated and renamed instead; an active one is a conflict.
// The boolean result reports whether a new row was inserted.
func (s *Store) RegisterWorker(ctx context.Context, siteID int64, documentID, fullName string) (*Worker, bool, error) {
	existing, err := s.findWorker(ctx, siteID, strings.TrimSpace(documentID))
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		worker, err := s.ResolveWorker(ctx, siteID, documentID, fullName)
		if err != nil {
			return nil, false, err
		}
		return worker, true, nil
	}
	if existing.Active {
		return nil, false, services.Wrap(services.ErrConflict, "attendance", "register worker",
			fmt.Sprintf("document %s already registered at site %d", existing.DocumentID, siteID), nil)
	}

	name := textutil.DisplayName(fullName)
	if name == "" {
		name = existing.FullName
	}
	if _, err := s.execWithRetry(ctx,
		`UPDATE workers SET active = 1, full_name = ?, updated_at = ? WHERE id = ?`,
		name, s.timestamp(), existing.ID,
	); err != nil {
		return nil, false, fmt.Errorf("reactivate worker %d: %w", existing.ID, err)
	}
	worker, err := s.GetWorker(ctx, existing.ID)
	return worker, false, err
}

// GetWorker fetches a worker by ID, returning services.ErrNotFound when absent.
func (s *Store) GetWorker(ctx context.Context, id int64) (*Worker, error) {
	var worker *Worker
	err := s.queryRowWithRetry(ctx, func(row *sql.Row) error {
		var scanErr error
		worker, scanErr = scanWorker(row)
		return scanErr
	}, `SELECT `+workerColumns+` FROM workers WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "attendance", "get worker", fmt.Sprintf("worker %d does not exist", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get worker %d: %w", id, err)
	}
	return worker, nil
}

// ListWorkers returns a site's workers ordered by name.
func (s *Store) ListWorkers(ctx context.Context, siteID int64, includeInactive bool) ([]Worker, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + workerColumns + ` FROM workers WHERE site_id = ?`
	if !includeInactive {
		query += ` AND active = 1`
	}
	query += ` ORDER BY full_name COLLATE NOCASE, id`

	rows, err := s.db.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	defer rows.Close()

	var workers []Worker
	for rows.Next() {
		worker, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan worker: %w", err)
		}
		workers = append(workers, *worker)
	}
	return workers, rows.Err()
}

// RenameWorker updates a worker's display name.
func (s *Store) RenameWorker(ctx context.Context, id int64, fullName string) (*Worker, error) {
	name := textutil.DisplayName(fullName)
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "attendance", "rename worker", "full name is required", nil)
	}
	return s.updateWorker(ctx, id, "rename worker", `UPDATE workers SET full_name = ?, updated_at = ? WHERE id = ?`, name)
}

// DeactivateWorker marks a worker inactive. Workers are never hard-deleted so
// their attendance history stays intact.
func (s *Store) DeactivateWorker(ctx context.Context, id int64) (*Worker, error) {
	return s.updateWorker(ctx, id, "deactivate worker", `UPDATE workers SET active = ?, updated_at = ? WHERE id = ?`, boolToInt(false))
}

func (s *Store) updateWorker(ctx context.Context, id int64, operation, query string, value any) (*Worker, error) {
	res, err := s.execWithRetry(ctx, query, value, s.timestamp(), id)
	if err != nil {
		return nil, fmt.Errorf("%s %d: %w", operation, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, services.Wrap(services.ErrNotFound, "attendance", operation, fmt.Sprintf("worker %d does not exist", id), nil)
	}
	return s.GetWorker(ctx, id)
}

func (s *Store) findWorker(ctx context.Context, siteID int64, documentID string) (*Worker, error) {
	var worker *Worker
	err := s.queryRowWithRetry(ctx, func(row *sql.Row) error {
		var scanErr error
		worker, scanErr = scanWorker(row)
		return scanErr
	}, `SELECT `+workerColumns+` FROM workers WHERE site_id = ? AND document_id = ?`, siteID, documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find worker %s: %w", documentID, err)
	}
	return worker, nil
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
