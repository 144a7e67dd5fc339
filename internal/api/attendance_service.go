package api

import (
	"context"
	"fmt"
	"log/slog"

	"cuadrilla/internal/attendance"
	"cuadrilla/internal/dictation"
	"cuadrilla/internal/export"
	"cuadrilla/internal/logging"
	"cuadrilla/internal/services"
)

// AttendanceStore abstracts the persistence operations behind attendance intake.
type AttendanceStore interface {
	GetSite(ctx context.Context, id int64) (*attendance.Site, error)
	ResolveWorker(ctx context.Context, siteID int64, documentID, fullName string) (*attendance.Worker, error)
	Upsert(ctx context.Context, workerID int64, date string, status attendance.Status, notes string) (*attendance.Record, error)
	Day(ctx context.Context, siteID int64, date string) ([]attendance.DayEntry, error)
	Summary(ctx context.Context, siteID int64, date string) (attendance.Summary, error)
	DeleteRecord(ctx context.Context, id int64) (bool, error)
}

// AttendanceService validates attendance requests and applies them to the store.
type AttendanceService struct {
	store  AttendanceStore
	logger *slog.Logger
}

// NewAttendanceService constructs an AttendanceService around store.
func NewAttendanceService(store AttendanceStore, logger *slog.Logger) *AttendanceService {
	if store == nil {
		return nil
	}
	return &AttendanceService{store: store, logger: logging.NewComponentLogger(logger, "attendance")}
}

// Mark records a single entry. Missing or invalid site, document or status
// values are validation errors; an unknown site is not found.
func (s *AttendanceService) Mark(ctx context.Context, req MarkRequest) (MarkResponse, error) {
	if req.SiteID <= 0 {
		return MarkResponse{}, services.Wrap(services.ErrValidation, "attendance", "mark", "siteId is required", nil)
	}
	documentID, ok := dictation.NormalizeDocument(req.DocumentID)
	if !ok {
		return MarkResponse{}, services.Wrap(services.ErrValidation, "attendance", "mark",
			fmt.Sprintf("documentId %q is missing or invalid", req.DocumentID), nil)
	}
	status, ok := attendance.ParseStatus(req.Status)
	if !ok {
		return MarkResponse{}, services.Wrap(services.ErrValidation, "attendance", "mark",
			fmt.Sprintf("status %q must be present or absent", req.Status), nil)
	}
	if _, err := s.store.GetSite(ctx, req.SiteID); err != nil {
		return MarkResponse{}, err
	}

	worker, err := s.store.ResolveWorker(ctx, req.SiteID, documentID, req.FullName)
	if err != nil {
		return MarkResponse{}, err
	}
	record, err := s.store.Upsert(ctx, worker.ID, req.Date, status, req.Notes)
	if err != nil {
		return MarkResponse{}, err
	}

	logging.WithContext(ctx, s.logger).Info("attendance recorded",
		logging.DocumentID(documentID),
		logging.String("status", string(status)),
		logging.String("date", record.Date),
	)
	return MarkResponse{
		OK:           true,
		AttendanceID: record.ID,
		Date:         record.Date,
		Status:       string(record.Status),
		Worker:       FromWorker(worker),
	}, nil
}

// Bulk records a batch of entries for one site. Only a missing siteId (400)
// or an unknown site (404) fail the request; every item is applied on its own
// and problems are reported as skipped.
func (s *AttendanceService) Bulk(ctx context.Context, req BulkRequest) (BulkResponse, error) {
	if req.SiteID <= 0 {
		return BulkResponse{}, services.Wrap(services.ErrValidation, "attendance", "bulk", "siteId is required", nil)
	}
	if _, err := s.store.GetSite(ctx, req.SiteID); err != nil {
		return BulkResponse{}, err
	}

	logger := logging.WithContext(ctx, s.logger)
	resp := BulkResponse{OK: true}
	for i, item := range req.Items {
		if reason := s.applyItem(ctx, req.SiteID, item); reason != "" {
			resp.SkippedCount++
			resp.Skipped = append(resp.Skipped, SkippedItem{Index: i, DocumentID: item.DocumentID, Reason: reason})
			continue
		}
		resp.AcceptedCount++
	}

	if resp.SkippedCount > 0 {
		logging.WarnWithContext(logger, "bulk attendance skipped items", "bulk_items_skipped",
			logging.Int("accepted", resp.AcceptedCount),
			logging.Int("skipped", resp.SkippedCount),
			logging.String(logging.FieldErrorHint, "inspect the skipped reasons in the response"),
			logging.String(logging.FieldImpact, "skipped workers have no attendance for the day"),
		)
	} else {
		logger.Info("bulk attendance recorded", logging.Int("accepted", resp.AcceptedCount))
	}
	return resp, nil
}

// applyItem records one bulk item and returns a skip reason, or "" on success.
func (s *AttendanceService) applyItem(ctx context.Context, siteID int64, item BulkItem) string {
	if reason := item.Malformed(); reason != "" {
		return reason
	}
	documentID, ok := dictation.NormalizeDocument(item.DocumentID)
	if !ok {
		return "invalid documentId"
	}
	status, ok := attendance.ParseStatus(item.Status)
	if !ok {
		return "invalid status"
	}
	worker, err := s.store.ResolveWorker(ctx, siteID, documentID, item.FullName)
	if err != nil {
		s.logItemFailure(ctx, documentID, err)
		return "worker could not be resolved"
	}
	if _, err := s.store.Upsert(ctx, worker.ID, item.Date, status, item.Notes); err != nil {
		s.logItemFailure(ctx, documentID, err)
		if services.IsClientError(err) {
			return "invalid item: " + err.Error()
		}
		return "attendance could not be stored"
	}
	return ""
}

func (s *AttendanceService) logItemFailure(ctx context.Context, documentID string, err error) {
	if services.IsClientError(err) {
		return
	}
	logging.ErrorWithContext(logging.WithContext(ctx, s.logger), "bulk item failed", "bulk_item_failed",
		logging.DocumentID(documentID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check database health with cuadrilla status"),
	)
}

// Day lists a site's attendance for date (blank means today).
func (s *AttendanceService) Day(ctx context.Context, siteID int64, date string) ([]DayEntry, error) {
	if err := s.requireSite(ctx, siteID, "day"); err != nil {
		return nil, err
	}
	entries, err := s.store.Day(ctx, siteID, date)
	if err != nil {
		return nil, err
	}
	return FromDayEntries(entries), nil
}

// Summary counts a site's attendance for date.
func (s *AttendanceService) Summary(ctx context.Context, siteID int64, date string) (Summary, error) {
	if err := s.requireSite(ctx, siteID, "summary"); err != nil {
		return Summary{}, err
	}
	return s.store.Summary(ctx, siteID, date)
}

// Sheet assembles the exportable day sheet for a site.
func (s *AttendanceService) Sheet(ctx context.Context, siteID int64, date string) (export.Sheet, error) {
	if siteID <= 0 {
		return export.Sheet{}, services.Wrap(services.ErrValidation, "attendance", "export", "siteId is required", nil)
	}
	site, err := s.store.GetSite(ctx, siteID)
	if err != nil {
		return export.Sheet{}, err
	}
	day, err := attendance.ResolveDate(date, timeNow())
	if err != nil {
		return export.Sheet{}, err
	}
	entries, err := s.store.Day(ctx, siteID, day)
	if err != nil {
		return export.Sheet{}, err
	}
	return export.Sheet{SiteID: site.ID, SiteName: site.Name, Date: day, Entries: entries}, nil
}

// DeleteRecord removes an attendance record by ID.
func (s *AttendanceService) DeleteRecord(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, services.Wrap(services.ErrValidation, "attendance", "delete", "attendance id is required", nil)
	}
	return s.store.DeleteRecord(ctx, id)
}

func (s *AttendanceService) requireSite(ctx context.Context, siteID int64, operation string) error {
	if siteID <= 0 {
		return services.Wrap(services.ErrValidation, "attendance", operation, "siteId is required", nil)
	}
	_, err := s.store.GetSite(ctx, siteID)
	return err
}
