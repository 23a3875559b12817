package voiceapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultRecentLimit = 10
	defaultPerPage     = 50
	defaultSlotMinutes = 30
	defaultTrendDays   = 7
)

// Fetcher is the read side of the backend API used by the dashboard views.
// *Client implements it; tests substitute fakes.
type Fetcher interface {
	DashboardMetrics(ctx context.Context) (*DashboardMetrics, error)
	RecentCalls(ctx context.Context, limit int) (*RecentCalls, error)
	SystemStatus(ctx context.Context) (*SystemStatus, error)
	Calls(ctx context.Context, query CallQuery) (*CallPage, error)
	CallDetail(ctx context.Context, id int64) (*CallDetail, error)
	Appointments(ctx context.Context, page, perPage int) (*AppointmentPage, error)
	LiveStats(ctx context.Context) (*LiveStats, error)
	CallTrends(ctx context.Context, days int) (*CallTrends, error)
	Health(ctx context.Context) (*Health, error)
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

// DashboardMetrics retrieves aggregate call and appointment counters.
func (c *Client) DashboardMetrics(ctx context.Context) (*DashboardMetrics, error) {
	return fetchPtr[DashboardMetrics](ctx, c, Get("/api/dashboard/metrics", nil))
}

// RecentCalls retrieves the latest call summaries.
func (c *Client) RecentCalls(ctx context.Context, limit int) (*RecentCalls, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	return fetchPtr[RecentCalls](ctx, c, Get("/api/dashboard/recent-calls", q))
}

// SystemStatus retrieves per-subsystem operational flags.
func (c *Client) SystemStatus(ctx context.Context) (*SystemStatus, error) {
	return fetchPtr[SystemStatus](ctx, c, Get("/api/dashboard/system-status", nil))
}

// CallQuery configures /api/calls requests.
type CallQuery struct {
	Page    int
	PerPage int
	Status  string
}

func (q CallQuery) values() url.Values {
	page, perPage := normalizePage(q.Page, q.PerPage)
	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	values.Set("per_page", strconv.Itoa(perPage))
	if status := strings.TrimSpace(q.Status); status != "" {
		values.Set("status", status)
	}
	return values
}

// Calls retrieves one page of call records.
func (c *Client) Calls(ctx context.Context, query CallQuery) (*CallPage, error) {
	return fetchPtr[CallPage](ctx, c, Get("/api/calls", query.values()))
}

// CallDetail retrieves a call with its transcripts, interactions and appointments.
func (c *Client) CallDetail(ctx context.Context, id int64) (*CallDetail, error) {
	if id <= 0 {
		return nil, fmt.Errorf("call id required")
	}
	ep := Get("/api/calls/"+strconv.FormatInt(id, 10), nil).Named("/api/calls/{id}")
	return fetchPtr[CallDetail](ctx, c, ep)
}

// Appointments retrieves one page of appointments.
func (c *Client) Appointments(ctx context.Context, page, perPage int) (*AppointmentPage, error) {
	page, perPage = normalizePage(page, perPage)
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	return fetchPtr[AppointmentPage](ctx, c, Get("/api/appointments", q))
}

// BookAppointment creates an appointment.
func (c *Client) BookAppointment(ctx context.Context, req AppointmentRequest) (*BookedAppointment, error) {
	if err := req.check(); err != nil {
		return nil, fmt.Errorf("book appointment: %w", err)
	}
	return fetchPtr[BookedAppointment](ctx, c, Post("/api/book-appointment", req))
}

// AvailableSlots lists open slots on date (YYYY-MM-DD) of the given length in minutes.
func (c *Client) AvailableSlots(ctx context.Context, date string, duration int) (*AvailableSlots, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, fmt.Errorf("date required")
	}
	if duration <= 0 {
		duration = defaultSlotMinutes
	}
	q := url.Values{}
	q.Set("date", date)
	q.Set("duration", strconv.Itoa(duration))
	return fetchPtr[AvailableSlots](ctx, c, Get("/api/available-slots", q))
}

// TriggerCRM asks the backend to forward payload to a CRM webhook.
func (c *Client) TriggerCRM(ctx context.Context, req CRMRequest) (*CRMResult, error) {
	if strings.TrimSpace(req.WebhookURL) == "" {
		return nil, fmt.Errorf("webhook url required")
	}
	return fetchPtr[CRMResult](ctx, c, Post("/api/crm-trigger", req))
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	return fetchPtr[Health](ctx, c, Get("/health", nil))
}

// LiveStats retrieves short-window live counters.
func (c *Client) LiveStats(ctx context.Context) (*LiveStats, error) {
	return fetchPtr[LiveStats](ctx, c, Get("/api/dashboard/live-stats", nil))
}

// CallTrends retrieves per-day call and appointment counts.
func (c *Client) CallTrends(ctx context.Context, days int) (*CallTrends, error) {
	if days <= 0 {
		days = defaultTrendDays
	}
	q := url.Values{}
	q.Set("days", strconv.Itoa(days))
	return fetchPtr[CallTrends](ctx, c, Get("/api/dashboard/call-trends", q))
}

func fetchPtr[T any](ctx context.Context, c *Client, ep Endpoint) (*T, error) {
	var payload T
	if err := c.Do(ctx, ep, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func normalizePage(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	return page, perPage
}
