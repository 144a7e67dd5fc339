package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cuadrilla/internal/dictation"
	"cuadrilla/internal/services"
)

const defaultClientTimeout = 10 * time.Second

// ErrAPIUnavailable reports that no attendance server could be reached.
var ErrAPIUnavailable = errors.New("attendance API unavailable")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
	RequestID  string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.RequestID != "" {
		return fmt.Sprintf("api: http %d: %s (request %s)", e.StatusCode, msg, e.RequestID)
	}
	return fmt.Sprintf("api: http %d: %s", e.StatusCode, msg)
}

// Unwrap maps the status code back onto the service error markers.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusBadRequest:
		return services.ErrValidation
	case e.StatusCode == http.StatusNotFound:
		return services.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return services.ErrConflict
	case e.StatusCode >= http.StatusInternalServerError:
		return services.ErrTransient
	default:
		return nil
	}
}

// Client talks to the attendance HTTP API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithToken sends token as a bearer credential on every request.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// NewClient builds a client for the server at serverURL. A bare host:port is
// treated as http.
func NewClient(serverURL string, opts ...ClientOption) (*Client, error) {
	serverURL = strings.TrimSpace(serverURL)
	if serverURL == "" {
		return nil, ErrAPIUnavailable
	}
	if !strings.Contains(serverURL, "://") {
		serverURL = "http://" + serverURL
	}
	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	c := &Client{base: base, http: &http.Client{Timeout: defaultClientTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server root the client targets.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Mark records a single attendance entry.
func (c *Client) Mark(ctx context.Context, req MarkRequest) (MarkResponse, error) {
	var resp MarkResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/attendance", nil, req, &resp)
	return resp, err
}

// Bulk records a batch of entries for one site.
func (c *Client) Bulk(ctx context.Context, req BulkRequest) (BulkResponse, error) {
	var resp BulkResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/attendance/bulk", nil, req, &resp)
	return resp, err
}

// SendBatch submits dictated pairs through the bulk endpoint.
func (c *Client) SendBatch(ctx context.Context, siteID int64, pairs []dictation.Pair) error {
	req := BulkRequest{SiteID: siteID, Items: make([]BulkItem, 0, len(pairs))}
	for _, p := range pairs {
		req.Items = append(req.Items, BulkItem{DocumentID: p.DocumentID, Status: string(p.Status)})
	}
	_, err := c.Bulk(ctx, req)
	return err
}

// Day lists a site's entries for date (blank means the server's today).
func (c *Client) Day(ctx context.Context, siteID int64, date string) ([]DayEntry, error) {
	var resp []DayEntry
	err := c.doJSON(ctx, http.MethodGet, "/api/attendance/today", siteDateQuery(siteID, date), nil, &resp)
	return resp, err
}

// Summary counts a site's entries for date.
func (c *Client) Summary(ctx context.Context, siteID int64, date string) (Summary, error) {
	var resp Summary
	err := c.doJSON(ctx, http.MethodGet, "/api/attendance/summary", siteDateQuery(siteID, date), nil, &resp)
	return resp, err
}

// DeleteRecord removes an attendance record.
func (c *Client) DeleteRecord(ctx context.Context, id int64) (bool, error) {
	var resp DeleteResponse
	err := c.doJSON(ctx, http.MethodDelete, "/api/attendance/"+strconv.FormatInt(id, 10), nil, nil, &resp)
	return resp.OK, err
}

// Export downloads a day sheet and returns its bytes and suggested file name.
func (c *Client) Export(ctx context.Context, siteID int64, date, format string) ([]byte, string, error) {
	query := siteDateQuery(siteID, date)
	if format = strings.TrimSpace(format); format != "" {
		query.Set("format", format)
	}
	resp, err := c.do(ctx, http.MethodGet, "/api/attendance/export", query, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read export: %w", err)
	}
	name := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	return data, name, nil
}

// Sites lists every site.
func (c *Client) Sites(ctx context.Context) ([]Site, error) {
	var resp []Site
	err := c.doJSON(ctx, http.MethodGet, "/api/sites", nil, nil, &resp)
	return resp, err
}

// CreateSite registers a site.
func (c *Client) CreateSite(ctx context.Context, name string) (Site, error) {
	var resp Site
	err := c.doJSON(ctx, http.MethodPost, "/api/sites", nil, CreateSiteRequest{Name: name}, &resp)
	return resp, err
}

// RenameSite changes a site's name.
func (c *Client) RenameSite(ctx context.Context, id int64, name string) (Site, error) {
	var resp Site
	err := c.doJSON(ctx, http.MethodPatch, sitePath(id), nil, UpdateSiteRequest{Name: name}, &resp)
	return resp, err
}

// DeleteSite removes a site with its workers, attendance and activity log.
func (c *Client) DeleteSite(ctx context.Context, id int64) (DeleteSiteResponse, error) {
	var resp DeleteSiteResponse
	err := c.doJSON(ctx, http.MethodDelete, sitePath(id), nil, nil, &resp)
	return resp, err
}

// Activities lists a site's activity log for date (blank means today).
func (c *Client) Activities(ctx context.Context, siteID int64, date string) ([]Activity, error) {
	var query url.Values
	if date != "" {
		query = url.Values{"date": []string{date}}
	}
	var resp []Activity
	err := c.doJSON(ctx, http.MethodGet, sitePath(siteID)+"/activities", query, nil, &resp)
	return resp, err
}

// AddActivities appends entries to a site's activity log.
func (c *Client) AddActivities(ctx context.Context, siteID int64, req AddActivitiesRequest) ([]Activity, error) {
	var resp []Activity
	err := c.doJSON(ctx, http.MethodPost, sitePath(siteID)+"/activities", nil, req, &resp)
	return resp, err
}

// UpdateActivity edits one activity.
func (c *Client) UpdateActivity(ctx context.Context, siteID, id int64, req UpdateActivityRequest) (Activity, error) {
	var resp Activity
	err := c.doJSON(ctx, http.MethodPatch, activityPath(siteID, id), nil, req, &resp)
	return resp, err
}

// DeleteActivity removes one activity.
func (c *Client) DeleteActivity(ctx context.Context, siteID, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, activityPath(siteID, id), nil, nil, nil)
}

func sitePath(id int64) string {
	return "/api/sites/" + strconv.FormatInt(id, 10)
}

func activityPath(siteID, id int64) string {
	return sitePath(siteID) + "/activities/" + strconv.FormatInt(id, 10)
}

// Workers lists a site's workers.
func (c *Client) Workers(ctx context.Context, siteID int64, includeInactive bool) ([]Worker, error) {
	query := url.Values{}
	query.Set("siteId", strconv.FormatInt(siteID, 10))
	if includeInactive {
		query.Set("all", "1")
	}
	var resp []Worker
	err := c.doJSON(ctx, http.MethodGet, "/api/workers", query, nil, &resp)
	return resp, err
}

// RegisterWorker creates or reactivates a worker.
func (c *Client) RegisterWorker(ctx context.Context, req RegisterWorkerRequest) (RegisterWorkerResponse, error) {
	var resp RegisterWorkerResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/workers", nil, req, &resp)
	return resp, err
}

// RenameWorker updates a worker's display name.
func (c *Client) RenameWorker(ctx context.Context, id int64, fullName string) (Worker, error) {
	var resp Worker
	err := c.doJSON(ctx, http.MethodPatch, "/api/workers/"+strconv.FormatInt(id, 10), nil, UpdateWorkerRequest{FullName: fullName}, &resp)
	return resp, err
}

// DeactivateWorker hides a worker from active listings.
func (c *Client) DeactivateWorker(ctx context.Context, id int64) (Worker, error) {
	var resp Worker
	err := c.doJSON(ctx, http.MethodDelete, "/api/workers/"+strconv.FormatInt(id, 10), nil, nil, &resp)
	return resp, err
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var resp DaemonStatus
	err := c.doJSON(ctx, http.MethodGet, "/api/status", nil, nil, &resp)
	return resp, err
}

// Health fetches database diagnostics.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, nil, &resp)
	return resp, err
}

func siteDateQuery(siteID int64, date string) url.Values {
	query := url.Values{}
	query.Set("siteId", strconv.FormatInt(siteID, 10))
	if date = strings.TrimSpace(date); date != "" {
		query.Set("date", date)
	}
	return query
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// do issues the request and returns the response for 2xx statuses. The caller
// closes the body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	if c == nil {
		return nil, ErrAPIUnavailable
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeStatusError(resp)
	}
	return resp, nil
}

func decodeStatusError(resp *http.Response) error {
	statusErr := &StatusError{StatusCode: resp.StatusCode, RequestID: resp.Header.Get("X-Request-ID")}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload ErrorResponse
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		statusErr.Message = payload.Error
		if payload.RequestID != "" {
			statusErr.RequestID = payload.RequestID
		}
	} else {
		statusErr.Message = strings.TrimSpace(string(raw))
	}
	return statusErr
}

// IsAPIUnavailable reports whether err means the server could not be reached.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.Is(err, ErrAPIUnavailable) || errors.As(err, &opErr)
}
