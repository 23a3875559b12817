package voiceapi

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const backendTimestampLayout = "2006-01-02 15:04:05"

// Validator is implemented by response schemas that check required fields
// after decoding. A failing Validate turns the response into a parse error.
type Validator interface {
	Validate() error
}

func missing(field string) error {
	return fmt.Errorf("missing required field %q", field)
}

// CountMetric is a counter with its change versus the previous period.
type CountMetric struct {
	Value  int     `json:"value"`
	Change float64 `json:"change"`
}

// DurationMetric is a preformatted duration with its change.
type DurationMetric struct {
	Value  string  `json:"value"`
	Change float64 `json:"change"`
}

// DashboardCounters aggregates call and appointment counters.
type DashboardCounters struct {
	TotalCalls         CountMetric    `json:"total_calls"`
	AppointmentsBooked CountMetric    `json:"appointments_booked"`
	AvgCallDuration    DurationMetric `json:"avg_call_duration"`
	LiveCalls          struct {
		Value int `json:"value"`
	} `json:"live_calls"`
}

// Performance holds percentage rates.
type Performance struct {
	AnswerRate  float64 `json:"answer_rate"`
	BookingRate float64 `json:"booking_rate"`
	MissRate    float64 `json:"miss_rate"`
}

// DashboardMetrics mirrors /api/dashboard/metrics.
type DashboardMetrics struct {
	Metrics     *DashboardCounters `json:"metrics"`
	Performance Performance        `json:"performance"`
}

func (m *DashboardMetrics) Validate() error {
	if m.Metrics == nil {
		return missing("metrics")
	}
	return nil
}

// RecentCall is one row of /api/dashboard/recent-calls.
type RecentCall struct {
	ID       int64  `json:"id"`
	Caller   string `json:"caller"`
	Time     string `json:"time"`
	Duration string `json:"duration"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	CallSID  string `json:"call_sid"`
}

// RecentCalls mirrors /api/dashboard/recent-calls.
type RecentCalls struct {
	RecentCalls []RecentCall `json:"recent_calls"`
}

func (r *RecentCalls) Validate() error {
	if r.RecentCalls == nil {
		return missing("recent_calls")
	}
	return nil
}

// SubsystemStatus is the state of one backend subsystem.
type SubsystemStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Operational reports whether the subsystem has no open issue.
func (s SubsystemStatus) Operational() bool {
	return strings.EqualFold(strings.TrimSpace(s.Status), "operational")
}

// Subsystems lists the subsystems the dashboard tracks.
type Subsystems struct {
	VoiceAI       SubsystemStatus `json:"voice_ai"`
	CallRecording SubsystemStatus `json:"call_recording"`
	CalendarSync  SubsystemStatus `json:"calendar_sync"`
}

// SystemStatus mirrors /api/dashboard/system-status.
type SystemStatus struct {
	SystemStatus *Subsystems `json:"system_status"`
}

func (s *SystemStatus) Validate() error {
	if s.SystemStatus == nil {
		return missing("system_status")
	}
	return nil
}

// CallSummary is one call record in a page of calls.
type CallSummary struct {
	ID               int64  `json:"id"`
	CallSID          string `json:"call_sid"`
	FromNumber       string `json:"from_number"`
	ToNumber         string `json:"to_number"`
	Status           string `json:"status"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time,omitempty"`
	Duration         *int   `json:"duration,omitempty"`
	CallType         string `json:"call_type"`
	TranscriptCount  int    `json:"transcript_count"`
	InteractionCount int    `json:"interaction_count"`
}

// ParsedStartTime returns StartTime as time.Time when possible.
func (c CallSummary) ParsedStartTime() time.Time {
	return parseTime(c.StartTime)
}

// DurationValue returns the call duration, zero when unknown.
func (c CallSummary) DurationValue() time.Duration {
	if c.Duration == nil {
		return 0
	}
	return time.Duration(*c.Duration) * time.Second
}

// CallPage mirrors /api/calls.
type CallPage struct {
	Calls       []CallSummary `json:"calls"`
	Total       int           `json:"total"`
	Pages       int           `json:"pages"`
	CurrentPage int           `json:"current_page"`
}

func (p *CallPage) Validate() error {
	if p.Calls == nil {
		return missing("calls")
	}
	return nil
}

// Transcript is one utterance of a call.
type Transcript struct {
	ID         int64   `json:"id"`
	Timestamp  string  `json:"timestamp"`
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	IsFinal    bool    `json:"is_final"`
}

// Interaction is one intent/answer exchange handled by the AI.
type Interaction struct {
	ID          int64   `json:"id"`
	Timestamp   string  `json:"timestamp"`
	Intent      string  `json:"intent"`
	Confidence  float64 `json:"confidence"`
	UserInput   string  `json:"user_input"`
	AIResponse  string  `json:"ai_response"`
	ActionTaken string  `json:"action_taken,omitempty"`
}

// Appointment is an appointment record.
type Appointment struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	AttendeeEmail string `json:"attendee_email,omitempty"`
	AttendeePhone string `json:"attendee_phone,omitempty"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at,omitempty"`
	GoogleEventID string `json:"google_event_id,omitempty"`
}

// ParsedStartTime returns StartTime as time.Time when possible.
func (a Appointment) ParsedStartTime() time.Time {
	return parseTime(a.StartTime)
}

// CallDetail mirrors /api/calls/{id}.
type CallDetail struct {
	CallSummary
	Transcripts  []Transcript  `json:"transcripts"`
	Interactions []Interaction `json:"interactions"`
	Appointments []Appointment `json:"appointments"`
	Summary      string        `json:"summary,omitempty"`
}

func (d *CallDetail) Validate() error {
	if d.ID == 0 {
		return missing("id")
	}
	return nil
}

// AppointmentPage mirrors /api/appointments.
type AppointmentPage struct {
	Appointments []Appointment `json:"appointments"`
	Total        int           `json:"total"`
	Pages        int           `json:"pages"`
	CurrentPage  int           `json:"current_page"`
}

func (p *AppointmentPage) Validate() error {
	if p.Appointments == nil {
		return missing("appointments")
	}
	return nil
}

// AppointmentRequest is the body of POST /api/book-appointment.
type AppointmentRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	AttendeeEmail string `json:"attendee_email,omitempty"`
	AttendeePhone string `json:"attendee_phone,omitempty"`
}

func (r AppointmentRequest) check() error {
	var errs []error
	if strings.TrimSpace(r.Title) == "" {
		errs = append(errs, errors.New("title required"))
	}
	if strings.TrimSpace(r.StartTime) == "" {
		errs = append(errs, errors.New("start_time required"))
	}
	if strings.TrimSpace(r.EndTime) == "" {
		errs = append(errs, errors.New("end_time required"))
	}
	return errors.Join(errs...)
}

// BookedAppointment is the created appointment.
type BookedAppointment struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

func (b *BookedAppointment) Validate() error {
	if b.ID == 0 {
		return missing("id")
	}
	return nil
}

// Slot is an open calendar slot.
type Slot struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Duration int    `json:"duration"`
}

// AvailableSlots mirrors /api/available-slots.
type AvailableSlots struct {
	AvailableSlots []Slot `json:"available_slots"`
}

func (s *AvailableSlots) Validate() error {
	if s.AvailableSlots == nil {
		return missing("available_slots")
	}
	return nil
}

// CRMRequest is the body of POST /api/crm-trigger.
type CRMRequest struct {
	WebhookURL string `json:"webhook_url"`
	Payload    any    `json:"payload"`
	CallID     *int64 `json:"call_id,omitempty"`
}

// CRMResult is the forwarding result of a CRM trigger.
type CRMResult struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code,omitempty"`
	WebhookID  int64  `json:"webhook_id,omitempty"`
	Response   string `json:"response,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Health mirrors /health.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (h *Health) Validate() error {
	if strings.TrimSpace(h.Status) == "" {
		return missing("status")
	}
	return nil
}

// LiveCounters are the short-window counters of the live monitor.
type LiveCounters struct {
	RecentCalls           int `json:"recent_calls"`
	ActiveCalls           int `json:"active_calls"`
	TodayAppointments     int `json:"today_appointments"`
	RecentWebhookFailures int `json:"recent_webhook_failures"`
	TotalErrors           int `json:"total_errors"`
}

// LiveStats mirrors /api/dashboard/live-stats.
type LiveStats struct {
	LiveStats *LiveCounters `json:"live_stats"`
	Timestamp string        `json:"timestamp"`
}

func (l *LiveStats) Validate() error {
	if l.LiveStats == nil {
		return missing("live_stats")
	}
	return nil
}

// TrendPoint is one day of call trends.
type TrendPoint struct {
	Date         string `json:"date"`
	Calls        int    `json:"calls"`
	Appointments int    `json:"appointments"`
}

// CallTrends mirrors /api/dashboard/call-trends.
type CallTrends struct {
	Trends    []TrendPoint `json:"trends"`
	Period    string       `json:"period"`
	StartDate string       `json:"start_date"`
	EndDate   string       `json:"end_date"`
}

func (c *CallTrends) Validate() error {
	if c.Trends == nil {
		return missing("trends")
	}
	return nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.ParseInLocation(backendTimestampLayout, value, time.Local); err == nil {
		return t
	}
	return time.Time{}
}
