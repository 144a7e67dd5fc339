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
	minSiteName = 2
	maxSiteName = 80
)

// siteName collapses internal whitespace and enforces the name length bounds.
func siteName(operation, name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if n := utf8.RuneCountInString(name); n < minSiteName || n > maxSiteName {
		return "", services.Wrap(services.ErrValidation, "attendance", operation,
			fmt.Sprintf("site name must be %d-%d characters", minSiteName, maxSiteName), nil)
	}
	return name, nil
}

// CreateSite registers a new site. Names are unique ignoring case.
func (s *Store) CreateSite(ctx context.Context, name string) (*Site, error) {
	name, err := siteName("create site", name)
	if err != nil {
		return nil, err
	}

	var id int64
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureSiteNameFree(ctx, tx, "create site", name, 0); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO sites (name, created_at) VALUES (?, ?)`, name, s.timestamp())
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		if services.IsClientError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("insert site: %w", err)
	}
	s.logger.Info("site created", logging.SiteID(id), logging.String("name", name))
	return s.GetSite(ctx, id)
}

// RenameSite changes a site's name under the same rules as CreateSite.
func (s *Store) RenameSite(ctx context.Context, id int64, name string) (*Site, error) {
	name, err := siteName("rename site", name)
	if err != nil {
		return nil, err
	}
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if err := ensureSiteNameFree(ctx, tx, "rename site", name, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE sites SET name = ? WHERE id = ?`, name, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return services.Wrap(services.ErrNotFound, "attendance", "rename site", fmt.Sprintf("site %d does not exist", id), nil)
		}
		return nil
	})
	if err != nil {
		if services.IsClientError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("rename site %d: %w", id, err)
	}
	s.logger.Info("site renamed", logging.SiteID(id), logging.String("name", name))
	return s.GetSite(ctx, id)
}

// ensureSiteNameFree reports a conflict when a site other than excludeID
// already uses name, compared with Unicode case folding.
func ensureSiteNameFree(ctx context.Context, tx *sql.Tx, operation, name string, excludeID int64) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM sites WHERE id <> ?`, excludeID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id       int64
			existing string
		)
		if err := rows.Scan(&id, &existing); err != nil {
			return err
		}
		if strings.EqualFold(existing, name) {
			return services.Wrap(services.ErrConflict, "attendance", operation,
				fmt.Sprintf("a site named %q already exists", existing), nil)
		}
	}
	return rows.Err()
}

// DeleteSite removes a site together with its workers, their attendance and
// the site's activity log, all in one transaction.
func (s *Store) DeleteSite(ctx context.Context, id int64) (SiteRemoval, error) {
	removal := SiteRemoval{SiteID: id}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		removal = SiteRemoval{SiteID: id}
		steps := []struct {
			query string
			count *int
		}{
			{`DELETE FROM attendance WHERE worker_id IN (SELECT id FROM workers WHERE site_id = ?)`, &removal.Records},
			{`DELETE FROM workers WHERE site_id = ?`, &removal.Workers},
			{`DELETE FROM site_activities WHERE site_id = ?`, &removal.Activities},
		}
		for _, step := range steps {
			res, err := tx.ExecContext(ctx, step.query, id)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			*step.count = int(n)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return services.Wrap(services.ErrNotFound, "attendance", "delete site", fmt.Sprintf("site %d does not exist", id), nil)
		}
		return nil
	})
	if err != nil {
		if services.IsClientError(err) {
			return SiteRemoval{}, err
		}
		return SiteRemoval{}, fmt.Errorf("delete site %d: %w", id, err)
	}
	s.logger.Info("site deleted",
		logging.SiteID(id),
		logging.Int("workers", removal.Workers),
		logging.Int("records", removal.Records),
		logging.Int("activities", removal.Activities),
	)
	return removal, nil
}

// GetSite fetches a site by ID, returning services.ErrNotFound when absent.
func (s *Store) GetSite(ctx context.Context, id int64) (*Site, error) {
	var site *Site
	err := s.queryRowWithRetry(ctx, func(row *sql.Row) error {
		var scanErr error
		site, scanErr = scanSite(row)
		return scanErr
	}, `SELECT `+siteColumns+` FROM sites WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "attendance", "get site", fmt.Sprintf("site %d does not exist", id), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get site %d: %w", id, err)
	}
	return site, nil
}

// ListSites returns every site ordered by ID.
func (s *Store) ListSites(ctx context.Context) ([]Site, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+siteColumns+` FROM sites ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, *site)
	}
	return sites, rows.Err()
}
