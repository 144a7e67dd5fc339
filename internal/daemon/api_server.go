package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cuadrilla/internal/api"
	"cuadrilla/internal/config"
	"cuadrilla/internal/export"
	"cuadrilla/internal/logging"
	"cuadrilla/internal/services"
)

const maxRequestBody = 1 << 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	attendanceSvc *api.AttendanceService
	rosterSvc     *api.RosterService
	activitySvc   *api.ActivityService

	handler  http.Handler
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:          strings.TrimSpace(cfg.Paths.APIBind),
		logger:        logging.NewComponentLogger(logger, "api-server"),
		daemon:        d,
		attendanceSvc: api.NewAttendanceService(d.store, logger),
		rosterSvc:     api.NewRosterService(d.store, logger),
		activitySvc:   api.NewActivityService(d.store, logger),
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/attendance", srv.handleMark)
	mux.HandleFunc("POST /api/attendance/bulk", srv.handleBulk)
	mux.HandleFunc("GET /api/attendance/today", srv.handleDay)
	mux.HandleFunc("GET /api/attendance/summary", srv.handleSummary)
	mux.HandleFunc("GET /api/attendance/export", authMiddleware(token, srv.handleExport))
	mux.HandleFunc("DELETE /api/attendance/{id}", authMiddleware(token, srv.handleDeleteRecord))
	mux.HandleFunc("GET /api/sites", srv.handleSites)
	mux.HandleFunc("POST /api/sites", authMiddleware(token, srv.handleCreateSite))
	mux.HandleFunc("PATCH /api/sites/{id}", authMiddleware(token, srv.handleRenameSite))
	mux.HandleFunc("DELETE /api/sites/{id}", authMiddleware(token, srv.handleDeleteSite))
	mux.HandleFunc("GET /api/sites/{id}/activities", srv.handleActivities)
	mux.HandleFunc("POST /api/sites/{id}/activities", authMiddleware(token, srv.handleAddActivities))
	mux.HandleFunc("PATCH /api/sites/{id}/activities/{activityId}", authMiddleware(token, srv.handleUpdateActivity))
	mux.HandleFunc("DELETE /api/sites/{id}/activities/{activityId}", authMiddleware(token, srv.handleDeleteActivity))
	mux.HandleFunc("GET /api/workers", srv.handleWorkers)
	mux.HandleFunc("POST /api/workers", authMiddleware(token, srv.handleRegisterWorker))
	mux.HandleFunc("PATCH /api/workers/{id}", authMiddleware(token, srv.handleRenameWorker))
	mux.HandleFunc("DELETE /api/workers/{id}", authMiddleware(token, srv.handleDeactivateWorker))
	mux.HandleFunc("GET /api/status", srv.handleStatus)
	mux.HandleFunc("GET /api/health", srv.handleHealth)

	srv.handler = srv.withRequestID(mux)
	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleMark(w http.ResponseWriter, r *http.Request) {
	var req api.MarkRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := services.WithSiteID(r.Context(), req.SiteID)
	resp, err := s.attendanceSvc.Mark(services.WithOperation(ctx, "mark"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req api.BulkRequest
	if !s.decode(w, r, &req) {
		return
	}
	ctx := services.WithSiteID(r.Context(), req.SiteID)
	resp, err := s.attendanceSvc.Bulk(services.WithOperation(ctx, "bulk"), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleDay(w http.ResponseWriter, r *http.Request) {
	siteID, ok := s.querySiteID(w, r)
	if !ok {
		return
	}
	entries, err := s.attendanceSvc.Day(r.Context(), siteID, r.URL.Query().Get("date"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *apiServer) handleSummary(w http.ResponseWriter, r *http.Request) {
	siteID, ok := s.querySiteID(w, r)
	if !ok {
		return
	}
	summary, err := s.attendanceSvc.Summary(r.Context(), siteID, r.URL.Query().Get("date"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *apiServer) handleExport(w http.ResponseWriter, r *http.Request) {
	siteID, ok := s.querySiteID(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeServiceError(w, r, services.Wrap(services.ErrValidation, "export", "parse format", err.Error(), nil))
		return
	}
	sheet, err := s.attendanceSvc.Sheet(r.Context(), siteID, r.URL.Query().Get("date"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, sheet, format); err != nil {
		s.writeServiceError(w, r, fmt.Errorf("render export: %w", err))
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sheet.FileName(format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *apiServer) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	removed, err := s.attendanceSvc.DeleteRecord(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !removed {
		s.writeError(w, r, http.StatusNotFound, fmt.Sprintf("attendance record %d not found", id))
		return
	}
	s.writeJSON(w, http.StatusOK, api.DeleteResponse{OK: true})
}

func (s *apiServer) handleSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.rosterSvc.Sites(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sites)
}

func (s *apiServer) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var req api.CreateSiteRequest
	if !s.decode(w, r, &req) {
		return
	}
	site, err := s.rosterSvc.CreateSite(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, site)
}

func (s *apiServer) handleRenameSite(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req api.UpdateSiteRequest
	if !s.decode(w, r, &req) {
		return
	}
	site, err := s.rosterSvc.RenameSite(services.WithSiteID(r.Context(), id), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, site)
}

func (s *apiServer) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	resp, err := s.rosterSvc.DeleteSite(services.WithSiteID(r.Context(), id), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleActivities(w http.ResponseWriter, r *http.Request) {
	siteID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	activities, err := s.activitySvc.List(r.Context(), siteID, r.URL.Query().Get("date"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, activities)
}

func (s *apiServer) handleAddActivities(w http.ResponseWriter, r *http.Request) {
	siteID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req api.AddActivitiesRequest
	if !s.decode(w, r, &req) {
		return
	}
	added, err := s.activitySvc.Add(services.WithSiteID(r.Context(), siteID), siteID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, added)
}

func (s *apiServer) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	siteID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	activityID, ok := s.pathInt(w, r, "activityId")
	if !ok {
		return
	}
	var req api.UpdateActivityRequest
	if !s.decode(w, r, &req) {
		return
	}
	activity, err := s.activitySvc.Update(r.Context(), siteID, activityID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, activity)
}

func (s *apiServer) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	siteID, ok := s.pathID(w, r)
	if !ok {
		return
	}
	activityID, ok := s.pathInt(w, r, "activityId")
	if !ok {
		return
	}
	if err := s.activitySvc.Delete(r.Context(), siteID, activityID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.DeleteResponse{OK: true})
}

func (s *apiServer) handleWorkers(w http.ResponseWriter, r *http.Request) {
	siteID, ok := s.querySiteID(w, r)
	if !ok {
		return
	}
	includeInactive := parseBool(r.URL.Query().Get("all"))
	workers, err := s.rosterSvc.Workers(r.Context(), siteID, includeInactive)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, workers)
}

func (s *apiServer) handleRegisterWorker(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterWorkerRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.rosterSvc.RegisterWorker(services.WithSiteID(r.Context(), req.SiteID), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, resp)
}

func (s *apiServer) handleRenameWorker(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var req api.UpdateWorkerRequest
	if !s.decode(w, r, &req) {
		return
	}
	worker, err := s.rosterSvc.RenameWorker(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, worker)
}

func (s *apiServer) handleDeactivateWorker(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	worker, err := s.rosterSvc.DeactivateWorker(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, worker)
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		RunID:        status.RunID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		LogPath:      status.LogPath,
		Sites:        status.Sites,
		AuthRequired: status.AuthRequired,
	}
	if !status.StartedAt.IsZero() {
		payload.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.daemon.DatabaseHealth(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp := api.HealthResponse{Status: "ok", Database: health}
	code := http.StatusOK
	if !health.DatabaseReadable || !health.IntegrityCheck || len(health.MissingTables) > 0 {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, resp)
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// querySiteID parses the siteId query parameter. A missing value is passed
// through as zero so the services report it consistently.
func (s *apiServer) querySiteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("siteId"))
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid siteId %q", raw))
		return 0, false
	}
	return id, true
}

func (s *apiServer) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return s.pathInt(w, r, "id")
}

// pathInt parses the positive integer path wildcard name.
func (s *apiServer) pathInt(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, raw))
		return 0, false
	}
	return id, true
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// statusForError maps service error markers onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "request failed", "api_request_failed",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check database health with cuadrilla status"),
		)
		s.writeError(w, r, status, "internal server error")
		return
	}
	s.writeError(w, r, status, err.Error())
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	requestID, _ := services.RequestIDFromContext(r.Context())
	s.writeJSON(w, status, api.ErrorResponse{Error: message, RequestID: requestID})
}
