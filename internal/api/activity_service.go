package api

import (
	"context"
	"log/slog"

	"cuadrilla/internal/attendance"
	"cuadrilla/internal/logging"
	"cuadrilla/internal/services"
)

// ActivityStore abstracts a site's daily activity log.
type ActivityStore interface {
	GetSite(ctx context.Context, id int64) (*attendance.Site, error)
	AddActivities(ctx context.Context, siteID int64, items []attendance.ActivityInput) ([]attendance.Activity, error)
	ListActivities(ctx context.Context, siteID int64, date string) ([]attendance.Activity, error)
	UpdateActivity(ctx context.Context, siteID, id int64, update attendance.ActivityUpdate) (*attendance.Activity, error)
	DeleteActivity(ctx context.Context, siteID, id int64) error
}

// ActivityService manages the work log kept for each site and day.
type ActivityService struct {
	store  ActivityStore
	logger *slog.Logger
}

// NewActivityService constructs an ActivityService around store.
func NewActivityService(store ActivityStore, logger *slog.Logger) *ActivityService {
	if store == nil {
		return nil
	}
	return &ActivityService{store: store, logger: logging.NewComponentLogger(logger, "activities")}
}

// List returns a site's activities for date (blank means today).
func (s *ActivityService) List(ctx context.Context, siteID int64, date string) ([]Activity, error) {
	if err := s.requireSite(ctx, siteID, "list activities"); err != nil {
		return nil, err
	}
	activities, err := s.store.ListActivities(ctx, siteID, date)
	if err != nil {
		return nil, err
	}
	return FromActivities(activities), nil
}

// Add appends the request's activities. Items win over Description when both
// are given.
func (s *ActivityService) Add(ctx context.Context, siteID int64, req AddActivitiesRequest) ([]Activity, error) {
	if siteID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "activities", "add", "site id is required", nil)
	}
	var inputs []attendance.ActivityInput
	if len(req.Items) > 0 {
		inputs = make([]attendance.ActivityInput, 0, len(req.Items))
		for _, item := range req.Items {
			date := item.Date
			if date == "" {
				date = req.Date
			}
			inputs = append(inputs, attendance.ActivityInput{Description: item.Description, Date: date})
		}
	} else {
		inputs = []attendance.ActivityInput{{Description: req.Description, Date: req.Date}}
	}

	added, err := s.store.AddActivities(ctx, siteID, inputs)
	if err != nil {
		return nil, err
	}
	logging.WithContext(ctx, s.logger).Info("activities logged", logging.SiteID(siteID), logging.Int("count", len(added)))
	return FromActivities(added), nil
}

// Update edits one activity of a site.
func (s *ActivityService) Update(ctx context.Context, siteID, id int64, req UpdateActivityRequest) (Activity, error) {
	if err := s.requireSite(ctx, siteID, "update activity"); err != nil {
		return Activity{}, err
	}
	activity, err := s.store.UpdateActivity(ctx, siteID, id, attendance.ActivityUpdate{
		Description: req.Description,
		Date:        req.Date,
		OrderIndex:  req.OrderIndex,
	})
	if err != nil {
		return Activity{}, err
	}
	return FromActivity(activity), nil
}

// Delete removes one activity of a site.
func (s *ActivityService) Delete(ctx context.Context, siteID, id int64) error {
	if err := s.requireSite(ctx, siteID, "delete activity"); err != nil {
		return err
	}
	return s.store.DeleteActivity(ctx, siteID, id)
}

func (s *ActivityService) requireSite(ctx context.Context, siteID int64, operation string) error {
	if siteID <= 0 {
		return services.Wrap(services.ErrValidation, "activities", operation, "site id is required", nil)
	}
	_, err := s.store.GetSite(ctx, siteID)
	return err
}
