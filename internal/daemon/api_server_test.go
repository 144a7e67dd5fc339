package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cuadrilla/internal/api"
	"cuadrilla/internal/attendance"
	"cuadrilla/internal/services"
	"cuadrilla/internal/testsupport"
)

func newTestServer(t *testing.T, token string) (*apiServer, *attendance.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken(token))
	store := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, store, nil, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d.api, store
}

func serve(srv *apiServer, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range header {
		for _, value := range v {
			req.Header.Add(k, value)
		}
	}
	w := httptest.NewRecorder()
	srv.handler.ServeHTTP(w, req)
	return w
}

func TestMarkEndpoint(t *testing.T) {
	srv, store := newTestServer(t, "")
	site := testsupport.MustCreateSite(t, store, "Obra Norte")

	w := serve(srv, http.MethodPost, "/api/attendance",
		fmt.Sprintf(`{"siteId":%d,"documentId":"12.345.678-k","status":"present"}`, site.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.MarkResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || resp.Worker.DocumentID != "12345678K" {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("missing request id header")
	}
}

func TestMarkEndpointErrors(t *testing.T) {
	srv, store := newTestServer(t, "")
	site := testsupport.MustCreateSite(t, store, "Obra Norte")

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "malformed json", body: `{"siteId":`, want: http.StatusBadRequest},
		{name: "missing site", body: `{"documentId":"12345","status":"present"}`, want: http.StatusBadRequest},
		{name: "missing document", body: fmt.Sprintf(`{"siteId":%d,"status":"present"}`, site.ID), want: http.StatusBadRequest},
		{name: "bad status", body: fmt.Sprintf(`{"siteId":%d,"documentId":"12345","status":"late"}`, site.ID), want: http.StatusBadRequest},
		{name: "unknown site", body: `{"siteId":404,"documentId":"12345","status":"present"}`, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(srv, http.MethodPost, "/api/attendance", tt.body, nil)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
			var resp api.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error == "" || resp.RequestID == "" {
				t.Fatalf("unexpected error body: %#v", resp)
			}
		})
	}
}

func TestBulkEndpointSkipsBadItems(t *testing.T) {
	srv, store := newTestServer(t, "")
	site := testsupport.MustCreateSite(t, store, "Obra Norte")

	body := fmt.Sprintf(`{"siteId":%d,"items":[{"documentId":"12345","status":"present"},{"documentId":"x","status":"present"},{"documentId":"99999","status":"absent"}]}`, site.ID)
	w := serve(srv, http.MethodPost, "/api/attendance/bulk", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.BulkResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AcceptedCount != 2 || resp.SkippedCount != 1 {
		t.Fatalf("unexpected counts: %#v", resp)
	}

	mixed := fmt.Sprintf(`{"siteId":%d,"items":[{"documentId":"55555","status":"present"},{"documentId":77777,"status":"absent"},{"documentId":"88888","status":true},"junk"]}`, site.ID)
	w = serve(srv, http.MethodPost, "/api/attendance/bulk", mixed, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mixed types: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = api.BulkResponse{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AcceptedCount != 2 || resp.SkippedCount != 2 {
		t.Fatalf("mixed types: unexpected counts: %#v", resp)
	}
	if resp.Skipped[0].Index != 2 || resp.Skipped[0].Reason != "malformed status" {
		t.Fatalf("unexpected first skip: %#v", resp.Skipped[0])
	}
	if resp.Skipped[1].Index != 3 || resp.Skipped[1].Reason != "malformed item" {
		t.Fatalf("unexpected second skip: %#v", resp.Skipped[1])
	}
	day, err := store.Day(context.Background(), site.ID, "")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	recorded := map[string]bool{}
	for _, entry := range day {
		recorded[entry.DocumentID] = true
	}
	if !recorded["55555"] || !recorded["77777"] {
		t.Fatalf("expected numeric and string documents recorded, got %v", recorded)
	}

	if w := serve(srv, http.MethodPost, "/api/attendance/bulk", `{"items":[]}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing site: expected 400, got %d", w.Code)
	}
	if w := serve(srv, http.MethodPost, "/api/attendance/bulk", `{"siteId":77,"items":[]}`, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown site: expected 404, got %d", w.Code)
	}
}

func TestTodayEndpoint(t *testing.T) {
	srv, store := newTestServer(t, "")
	site := testsupport.MustCreateSite(t, store, "Obra Norte")
	serve(srv, http.MethodPost, "/api/attendance",
		fmt.Sprintf(`{"siteId":%d,"documentId":"12345","status":"absent","fullName":"ana rojas","date":"2026-03-02"}`, site.ID), nil)

	w := serve(srv, http.MethodGet, fmt.Sprintf("/api/attendance/today?siteId=%d&date=2026-03-02", site.ID), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var entries []api.DayEntry
	if err := json.Unmarshal(w.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != "absent" || entries[0].DocumentID != "12345" {
		t.Fatalf("unexpected entries: %#v", entries)
	}

	if w := serve(srv, http.MethodGet, "/api/attendance/today?siteId=abc", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad siteId: expected 400, got %d", w.Code)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	srv, store := newTestServer(t, "s3cret")
	site := testsupport.MustCreateSite(t, store, "Obra Norte")

	if w := serve(srv, http.MethodPost, "/api/sites", `{"name":"Obra Sur"}`, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	wrong := http.Header{"Authorization": []string{"Bearer nope"}}
	if w := serve(srv, http.MethodPost, "/api/sites", `{"name":"Obra Sur"}`, wrong); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	good := http.Header{"Authorization": []string{"Bearer s3cret"}}
	if w := serve(srv, http.MethodPost, "/api/sites", `{"name":"Obra Sur"}`, good); w.Code != http.StatusCreated {
		t.Fatalf("expected 201 with token, got %d: %s", w.Code, w.Body.String())
	}

	// Intake stays open so dictation clients need no credentials.
	body := fmt.Sprintf(`{"siteId":%d,"documentId":"12345","status":"present"}`, site.ID)
	if w := serve(srv, http.MethodPost, "/api/attendance", body, nil); w.Code != http.StatusOK {
		t.Fatalf("expected intake without token, got %d", w.Code)
	}
	if w := serve(srv, http.MethodGet, fmt.Sprintf("/api/attendance/export?siteId=%d", site.ID), "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected export to require token, got %d", w.Code)
	}
}

func TestWorkerRoutes(t *testing.T) {
	srv, store := newTestServer(t, "")
	site := testsupport.MustCreateSite(t, store, "Obra Norte")

	w := serve(srv, http.MethodPost, "/api/workers",
		fmt.Sprintf(`{"siteId":%d,"documentId":"55555","fullName":"luis mora"}`, site.ID), nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var registered api.RegisterWorkerResponse
	if err := json.Unmarshal(w.Body.Bytes(), &registered); err != nil {
		t.Fatalf("decode: %v", err)
	}

	dup := serve(srv, http.MethodPost, "/api/workers", fmt.Sprintf(`{"siteId":%d,"documentId":"55555"}`, site.ID), nil)
	if dup.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", dup.Code)
	}

	path := fmt.Sprintf("/api/workers/%d", registered.Worker.ID)
	if w := serve(srv, http.MethodPatch, path, `{"fullName":"Luis Mora Díaz"}`, nil); w.Code != http.StatusOK {
		t.Fatalf("rename: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := serve(srv, http.MethodDelete, path, "", nil); w.Code != http.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d", w.Code)
	}
	if w := serve(srv, http.MethodDelete, "/api/workers/abc", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", w.Code)
	}

	w = serve(srv, http.MethodGet, fmt.Sprintf("/api/workers?siteId=%d&all=1", site.ID), "", nil)
	var workers []api.Worker
	if err := json.Unmarshal(w.Body.Bytes(), &workers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(workers) != 1 || workers[0].Active || workers[0].FullName != "Luis Mora Díaz" {
		t.Fatalf("unexpected workers: %#v", workers)
	}
}

func TestSiteAdminRoutes(t *testing.T) {
	srv, store := newTestServer(t, "s3cret")
	north := testsupport.MustCreateSite(t, store, "Obra Norte")
	testsupport.MustCreateSite(t, store, "Obra Sur")
	auth := http.Header{"Authorization": []string{"Bearer s3cret"}}
	target := fmt.Sprintf("/api/sites/%d", north.ID)

	if w := serve(srv, http.MethodPatch, target, `{"name":"Obra Centro"}`, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("rename without token: expected 401, got %d", w.Code)
	}
	w := serve(srv, http.MethodPatch, target, `{"name":"Obra Centro"}`, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("rename: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := serve(srv, http.MethodPatch, target, `{"name":"obra sur"}`, auth); w.Code != http.StatusConflict {
		t.Fatalf("duplicate rename: expected 409, got %d", w.Code)
	}
	if w := serve(srv, http.MethodPost, "/api/sites", `{"name":"OBRA CENTRO"}`, auth); w.Code != http.StatusConflict {
		t.Fatalf("duplicate create: expected 409, got %d", w.Code)
	}
	if w := serve(srv, http.MethodPatch, target, `{"name":"x"}`, auth); w.Code != http.StatusBadRequest {
		t.Fatalf("short name: expected 400, got %d", w.Code)
	}

	serve(srv, http.MethodPost, "/api/attendance",
		fmt.Sprintf(`{"siteId":%d,"documentId":"12345","status":"present"}`, north.ID), nil)
	w = serve(srv, http.MethodDelete, target, "", auth)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var removed api.DeleteSiteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &removed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !removed.OK || removed.Workers != 1 || removed.Records != 1 {
		t.Fatalf("unexpected delete response %#v", removed)
	}
	if w := serve(srv, http.MethodDelete, target, "", auth); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestActivityRoutes(t *testing.T) {
	srv, store := newTestServer(t, "")
	site := testsupport.MustCreateSite(t, store, "Obra Norte")
	base := fmt.Sprintf("/api/sites/%d/activities", site.ID)

	w := serve(srv, http.MethodPost, base, `{"date":"2026-03-02","items":[{"description":"poda"},{"description":"riego"}]}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var added []api.Activity
	if err := json.Unmarshal(w.Body.Bytes(), &added); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(added) != 2 || added[1].OrderIndex != 2 {
		t.Fatalf("unexpected activities %#v", added)
	}
	if w := serve(srv, http.MethodPost, base, `{"description":"x"}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("short description: expected 400, got %d", w.Code)
	}

	item := fmt.Sprintf("%s/%d", base, added[0].ID)
	w = serve(srv, http.MethodPatch, item, `{"description":"poda de parras","orderIndex":5}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := serve(srv, http.MethodPatch, item, `{}`, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("empty update: expected 400, got %d", w.Code)
	}

	w = serve(srv, http.MethodGet, base+"?date=2026-03-02", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var listed []api.Activity
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listed) != 2 || listed[0].Description != "riego" || listed[1].Description != "poda de parras" {
		t.Fatalf("unexpected order %#v", listed)
	}

	if w := serve(srv, http.MethodDelete, item, "", nil); w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	if w := serve(srv, http.MethodDelete, item, "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
	if w := serve(srv, http.MethodGet, "/api/sites/999/activities", "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown site: expected 404, got %d", w.Code)
	}
	if w := serve(srv, http.MethodDelete, base+"/abc", "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad activity id: expected 400, got %d", w.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	srv, store := newTestServer(t, "")
	site := testsupport.MustCreateSite(t, store, "Obra Norte")
	serve(srv, http.MethodPost, "/api/attendance",
		fmt.Sprintf(`{"siteId":%d,"documentId":"12345","status":"present","date":"2026-03-02"}`, site.ID), nil)

	w := serve(srv, http.MethodGet, fmt.Sprintf("/api/attendance/export?siteId=%d&date=2026-03-02&format=csv", site.ID), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "2026-03-02.csv") {
		t.Fatalf("unexpected disposition %q", got)
	}
	if !strings.Contains(w.Body.String(), "12345") {
		t.Fatalf("export missing record: %q", w.Body.String())
	}

	if w := serve(srv, http.MethodGet, fmt.Sprintf("/api/attendance/export?siteId=%d&format=pdf", site.ID), "", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad format: expected 400, got %d", w.Code)
	}
}

func TestDeleteRecordEndpoint(t *testing.T) {
	srv, store := newTestServer(t, "")
	site := testsupport.MustCreateSite(t, store, "Obra Norte")
	w := serve(srv, http.MethodPost, "/api/attendance",
		fmt.Sprintf(`{"siteId":%d,"documentId":"12345","status":"present"}`, site.ID), nil)
	var mark api.MarkResponse
	if err := json.Unmarshal(w.Body.Bytes(), &mark); err != nil {
		t.Fatalf("decode: %v", err)
	}

	path := fmt.Sprintf("/api/attendance/%d", mark.AttendanceID)
	if w := serve(srv, http.MethodDelete, path, "", nil); w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	if w := serve(srv, http.MethodDelete, path, "", nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", w.Code)
	}
}

func TestStatusAndHealthEndpoints(t *testing.T) {
	srv, store := newTestServer(t, "")
	testsupport.MustCreateSite(t, store, "Obra Norte")

	w := serve(srv, http.MethodGet, "/api/status", "", nil)
	var status api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Sites != 1 || status.DatabasePath == "" || status.PID == 0 {
		t.Fatalf("unexpected status: %#v", status)
	}

	w = serve(srv, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequestIDPropagation(t *testing.T) {
	srv, _ := newTestServer(t, "")
	const id = "0b7f1c3e-2d4a-4e5f-9a6b-7c8d9e0f1a2b"
	w := serve(srv, http.MethodGet, "/api/sites", "", http.Header{requestIDHeader: []string{id}})
	if got := w.Header().Get(requestIDHeader); got != id {
		t.Fatalf("request id = %q, want %q", got, id)
	}
	w = serve(srv, http.MethodGet, "/api/sites", "", http.Header{requestIDHeader: []string{"not a uuid"}})
	if got := w.Header().Get(requestIDHeader); got == "not a uuid" || got == "" {
		t.Fatalf("expected generated request id, got %q", got)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: services.Wrap(services.ErrValidation, "x", "y", "bad", nil), want: http.StatusBadRequest},
		{err: services.Wrap(services.ErrNotFound, "x", "y", "missing", nil), want: http.StatusNotFound},
		{err: fmt.Errorf("outer: %w", services.Wrap(services.ErrConflict, "x", "y", "dup", nil)), want: http.StatusConflict},
		{err: errors.New("disk full"), want: http.StatusInternalServerError},
		{err: context.Canceled, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForError(tt.err); got != tt.want {
			t.Fatalf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
