package api

import (
	"time"

	"cuadrilla/internal/attendance"
)

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(dateTimeFormat)
}

// FromSite converts a stored site to its API representation.
func FromSite(site *attendance.Site) Site {
	if site == nil {
		return Site{}
	}
	return Site{ID: site.ID, Name: site.Name, CreatedAt: formatTime(site.CreatedAt)}
}

// FromSites converts a slice of stored sites.
func FromSites(sites []attendance.Site) []Site {
	out := make([]Site, 0, len(sites))
	for i := range sites {
		out = append(out, FromSite(&sites[i]))
	}
	return out
}

// FromActivity converts a stored activity to its API representation.
func FromActivity(activity *attendance.Activity) Activity {
	if activity == nil {
		return Activity{}
	}
	return Activity{
		ID:          activity.ID,
		SiteID:      activity.SiteID,
		Date:        activity.Date,
		Description: activity.Description,
		OrderIndex:  activity.OrderIndex,
		CreatedAt:   formatTime(activity.CreatedAt),
		UpdatedAt:   formatTime(activity.UpdatedAt),
	}
}

// FromActivities converts a slice of stored activities.
func FromActivities(activities []attendance.Activity) []Activity {
	out := make([]Activity, 0, len(activities))
	for i := range activities {
		out = append(out, FromActivity(&activities[i]))
	}
	return out
}

// FromWorker converts a stored worker to its API representation.
func FromWorker(worker *attendance.Worker) Worker {
	if worker == nil {
		return Worker{}
	}
	return Worker{
		ID:         worker.ID,
		SiteID:     worker.SiteID,
		FullName:   worker.FullName,
		DocumentID: worker.DocumentID,
		Active:     worker.Active,
		CreatedAt:  formatTime(worker.CreatedAt),
		UpdatedAt:  formatTime(worker.UpdatedAt),
	}
}

// FromWorkers converts a slice of stored workers.
func FromWorkers(workers []attendance.Worker) []Worker {
	out := make([]Worker, 0, len(workers))
	for i := range workers {
		out = append(out, FromWorker(&workers[i]))
	}
	return out
}

// FromDayEntries converts joined day rows.
func FromDayEntries(entries []attendance.DayEntry) []DayEntry {
	out := make([]DayEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, DayEntry{
			AttendanceID: e.AttendanceID,
			WorkerID:     e.WorkerID,
			DocumentID:   e.DocumentID,
			FullName:     e.FullName,
			Status:       string(e.Status),
			Date:         e.Date,
			Notes:        e.Notes,
		})
	}
	return out
}
