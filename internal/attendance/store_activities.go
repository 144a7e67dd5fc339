package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"cuadrilla/internal/logging"
	"cuadrilla/internal/services"
)

const (
	minActivityText = 2
	maxActivityText = 240
	maxOrderIndex   = 1000
	activityColumns = "id, site_id, date, description, order_index, created_at, updated_at"
)

func activityText(operation, value string) (string, error) {
	value = strings.TrimSpace(value)
	if n := utf8.RuneCountInString(value); n < minActivityText || n > maxActivityText {
		return "", services.Wrap(services.ErrValidation, "attendance", operation,
			fmt.Sprintf("description must be %d-%d characters", minActivityText, maxActivityText), nil)
	}
	return value, nil
}

// AddActivities appends items to a site's activity log. Each item goes to the
// end of its day's list. Every item is validated before anything is written;
// one bad item rejects the call.
func (s *Store) AddActivities(ctx context.Context, siteID int64, items []ActivityInput) ([]Activity, error) {
	if len(items) == 0 {
		return nil, services.Wrap(services.ErrValidation, "attendance", "add activities", "at least one activity is required", nil)
	}
	type pending struct {
		description string
		date        string
	}
	rows := make([]pending, 0, len(items))
	for i, item := range items {
		description, err := activityText("add activities", item.Description)
		if err != nil {
			return nil, fmt.Errorf("activity %d: %w", i, err)
		}
		date, err := ResolveDate(item.Date, s.now())
		if err != nil {
			return nil, fmt.Errorf("activity %d: %w", i, err)
		}
		rows = append(rows, pending{description: description, date: date})
	}
	if _, err := s.GetSite(ctx, siteID); err != nil {
		return nil, err
	}

	var ids []int64
	now := s.timestamp()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		ids = ids[:0]
		for _, row := range rows {
			var last int
			if err := tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(order_index), 0) FROM site_activities WHERE site_id = ? AND date = ?`,
				siteID, row.date,
			).Scan(&last); err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx,
				`INSERT INTO site_activities (site_id, date, description, order_index, created_at, updated_at)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				siteID, row.date, row.description, last+1, now, now,
			)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add activities for site %d: %w", siteID, err)
	}

	added := make([]Activity, 0, len(ids))
	for _, id := range ids {
		activity, err := s.getActivity(ctx, id)
		if err != nil {
			return nil, err
		}
		added = append(added, *activity)
	}
	s.logger.Debug("activities added", logging.SiteID(siteID), logging.Int("count", len(added)))
	return added, nil
}

// ListActivities returns a site's activities for date (blank means today) in
// log order.
func (s *Store) ListActivities(ctx context.Context, siteID int64, date string) ([]Activity, error) {
	ctx = ensureContext(ctx)
	day, err := ResolveDate(date, s.now())
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+activityColumns+` FROM site_activities
         WHERE site_id = ? AND date = ?
         ORDER BY order_index, id`,
		siteID, day,
	)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, *activity)
	}
	return activities, rows.Err()
}

// UpdateActivity edits an activity that belongs to siteID. A blank Date keeps
// the current day.
func (s *Store) UpdateActivity(ctx context.Context, siteID, id int64, update ActivityUpdate) (*Activity, error) {
	const operation = "update activity"
	existing, err := s.getActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.SiteID != siteID {
		return nil, activityNotFound(operation, id)
	}

	var (
		sets []string
		args []any
	)
	if update.Description != nil {
		description, err := activityText(operation, *update.Description)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "description = ?")
		args = append(args, description)
	}
	if update.Date != nil && strings.TrimSpace(*update.Date) != "" {
		date, err := ResolveDate(*update.Date, s.now())
		if err != nil {
			return nil, err
		}
		sets = append(sets, "date = ?")
		args = append(args, date)
	}
	if update.OrderIndex != nil {
		if oi := *update.OrderIndex; oi < 1 || oi > maxOrderIndex {
			return nil, services.Wrap(services.ErrValidation, "attendance", operation,
				fmt.Sprintf("order index must be 1-%d", maxOrderIndex), nil)
		}
		sets = append(sets, "order_index = ?")
		args = append(args, *update.OrderIndex)
	}
	if len(sets) == 0 {
		return nil, services.Wrap(services.ErrValidation, "attendance", operation, "nothing to change", nil)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, s.timestamp(), id, siteID)
	if _, err := s.execWithRetry(ctx,
		`UPDATE site_activities SET `+strings.Join(sets, ", ")+` WHERE id = ? AND site_id = ?`,
		args...,
	); err != nil {
		return nil, fmt.Errorf("update activity %d: %w", id, err)
	}
	return s.getActivity(ctx, id)
}

// DeleteActivity removes an activity that belongs to siteID.
func (s *Store) DeleteActivity(ctx context.Context, siteID, id int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM site_activities WHERE id = ? AND site_id = ?`, id, siteID)
	if err != nil {
		return fmt.Errorf("delete activity %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return activityNotFound("delete activity", id)
	}
	return nil
}

func (s *Store) getActivity(ctx context.Context, id int64) (*Activity, error) {
	var activity *Activity
	err := s.queryRowWithRetry(ctx, func(row *sql.Row) error {
		var scanErr error
		activity, scanErr = scanActivity(row)
		return scanErr
	}, `SELECT `+activityColumns+` FROM site_activities WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, activityNotFound("get activity", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get activity %d: %w", id, err)
	}
	return activity, nil
}

func activityNotFound(operation string, id int64) error {
	return services.Wrap(services.ErrNotFound, "attendance", operation, fmt.Sprintf("activity %d does not exist", id), nil)
}

func scanActivity(scanner rowScanner) (*Activity, error) {
	var (
		activity   Activity
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&activity.ID,
		&activity.SiteID,
		&activity.Date,
		&activity.Description,
		&activity.OrderIndex,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	activity.CreatedAt = parseTimestamp(createdRaw)
	activity.UpdatedAt = parseTimestamp(updatedRaw)
	return &activity, nil
}
