package mockapi

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"

	"github.com/voicedesk/callwatch/internal/voiceapi"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, voiceapi.Health{
		Status:    "healthy",
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.data.Calls)
	var seconds, finished int
	for _, c := range s.data.Calls {
		if c.Duration != nil {
			seconds += *c.Duration
			finished++
		}
	}
	avg := 0
	if finished > 0 {
		avg = seconds / finished
	}

	counters := &voiceapi.DashboardCounters{
		TotalCalls:         voiceapi.CountMetric{Value: total, Change: 12},
		AppointmentsBooked: voiceapi.CountMetric{Value: len(s.data.Appointments), Change: 33},
		AvgCallDuration:    voiceapi.DurationMetric{Value: fmt.Sprintf("%d:%02d", avg/60, avg%60), Change: -8},
	}
	counters.LiveCalls.Value = s.data.count("in-progress")

	writeJSON(w, http.StatusOK, voiceapi.DashboardMetrics{
		Metrics: counters,
		Performance: voiceapi.Performance{
			AnswerRate:  percent(s.data.count("completed"), total),
			BookingRate: percent(len(s.data.Appointments), total),
			MissRate:    percent(s.data.count("failed"), total),
		},
	})
}

func (s *Server) handleRecentCalls(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 10)

	s.mu.Lock()
	calls := s.data.callsWithStatus("")
	booked := make(map[int64]bool)
	for _, c := range s.data.Calls {
		booked[c.ID] = len(c.Appointments) > 0
	}
	s.mu.Unlock()

	if len(calls) > limit {
		calls = calls[:limit]
	}
	now := s.now()
	out := voiceapi.RecentCalls{RecentCalls: make([]voiceapi.RecentCall, 0, len(calls))}
	for _, c := range calls {
		out.RecentCalls = append(out.RecentCalls, voiceapi.RecentCall{
			ID:       c.ID,
			Caller:   c.FromNumber,
			Time:     humanize.RelTime(c.ParsedStartTime(), now, "ago", "from now"),
			Duration: clockDuration(c.DurationValue()),
			Type:     c.CallType,
			Status:   displayStatus(c.Status, booked[c.ID]),
			CallSID:  c.CallSID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, voiceapi.SystemStatus{
		SystemStatus: &voiceapi.Subsystems{
			VoiceAI:       voiceapi.SubsystemStatus{Status: "operational", Message: "Voice AI is operational"},
			CallRecording: voiceapi.SubsystemStatus{Status: "operational", Message: "Call recording is operational"},
			CalendarSync:  voiceapi.SubsystemStatus{Status: "operational", Message: "Calendar sync is operational"},
		},
	})
}

func (s *Server) handleLiveStats(w http.ResponseWriter, r *http.Request) {
	now := s.now()

	s.mu.Lock()
	counters := &voiceapi.LiveCounters{
		ActiveCalls:           s.data.count("in-progress"),
		RecentWebhookFailures: 0,
		TotalErrors:           s.data.count("failed"),
	}
	for _, c := range s.data.Calls {
		if now.Sub(c.ParsedStartTime()) <= time.Hour {
			counters.RecentCalls++
		}
	}
	today := now.Format("2006-01-02")
	for _, a := range s.data.Appointments {
		if strings.HasPrefix(a.StartTime, today) {
			counters.TodayAppointments++
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, voiceapi.LiveStats{
		LiveStats: counters,
		Timestamp: now.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleCallTrends(w http.ResponseWriter, r *http.Request) {
	days := intParam(r, "days", 7)
	now := s.now()
	start := now.AddDate(0, 0, -(days - 1))

	index := make(map[string]int, days)
	trends := make([]voiceapi.TrendPoint, 0, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		index[date] = i
		trends = append(trends, voiceapi.TrendPoint{Date: date})
	}

	s.mu.Lock()
	for _, c := range s.data.Calls {
		if i, ok := index[datePart(c.StartTime)]; ok {
			trends[i].Calls++
		}
	}
	for _, a := range s.data.Appointments {
		if i, ok := index[datePart(a.CreatedAt)]; ok {
			trends[i].Appointments++
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, voiceapi.CallTrends{
		Trends:    trends,
		Period:    fmt.Sprintf("%d days", days),
		StartDate: start.Format("2006-01-02"),
		EndDate:   now.Format("2006-01-02"),
	})
}

func (s *Server) handleCalls(w http.ResponseWriter, r *http.Request) {
	page := intParam(r, "page", 1)
	perPage := min(intParam(r, "per_page", 50), 100)

	s.mu.Lock()
	calls := s.data.callsWithStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	s.mu.Unlock()

	items, pages := paginate(calls, page, perPage)
	writeJSON(w, http.StatusOK, voiceapi.CallPage{
		Calls:       items,
		Total:       len(calls),
		Pages:       pages,
		CurrentPage: page,
	})
}

func (s *Server) handleCallDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid call id")
		return
	}

	s.mu.Lock()
	call, ok := s.data.call(id)
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Call not found")
		return
	}
	writeJSON(w, http.StatusOK, call)
}

func (s *Server) handleAppointments(w http.ResponseWriter, r *http.Request) {
	page := intParam(r, "page", 1)
	perPage := min(intParam(r, "per_page", 50), 100)

	s.mu.Lock()
	all := append([]voiceapi.Appointment(nil), s.data.Appointments...)
	s.mu.Unlock()

	items, pages := paginate(all, page, perPage)
	writeJSON(w, http.StatusOK, voiceapi.AppointmentPage{
		Appointments: items,
		Total:        len(all),
		Pages:        pages,
		CurrentPage:  page,
	})
}

func (s *Server) handleBookAppointment(w http.ResponseWriter, r *http.Request) {
	var req voiceapi.AppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	required := []struct{ field, value string }{
		{"title", req.Title},
		{"start_time", req.StartTime},
		{"end_time", req.EndTime},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			writeError(w, http.StatusBadRequest, "Missing required field: "+f.field)
			return
		}
	}

	s.mu.Lock()
	appt := voiceapi.Appointment{
		ID:            int64(len(s.data.Appointments) + 1),
		Title:         req.Title,
		Description:   req.Description,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		AttendeeEmail: req.AttendeeEmail,
		AttendeePhone: req.AttendeePhone,
		Status:        "scheduled",
		CreatedAt:     s.now().Format(timestampLayout),
	}
	s.data.Appointments = append(s.data.Appointments, appt)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, voiceapi.BookedAppointment{
		ID:        appt.ID,
		Title:     appt.Title,
		StartTime: appt.StartTime,
		EndTime:   appt.EndTime,
		Status:    appt.Status,
	})
}

func (s *Server) handleAvailableSlots(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Date parameter is required")
		return
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}
	duration := intParam(r, "duration", 30)
	step := time.Duration(duration) * time.Minute

	s.mu.Lock()
	taken := make(map[string]bool)
	for _, a := range s.data.Appointments {
		taken[a.StartTime] = true
	}
	s.mu.Unlock()

	slots := make([]voiceapi.Slot, 0)
	open := day.Add(9 * time.Hour)
	closing := day.Add(17 * time.Hour)
	for t := open; !t.Add(step).After(closing); t = t.Add(step) {
		start := t.Format(timestampLayout)
		if taken[start] {
			continue
		}
		slots = append(slots, voiceapi.Slot{
			Start:    start,
			End:      t.Add(step).Format(timestampLayout),
			Duration: duration,
		})
	}
	writeJSON(w, http.StatusOK, voiceapi.AvailableSlots{AvailableSlots: slots})
}

func (s *Server) handleCRMTrigger(w http.ResponseWriter, r *http.Request) {
	var req voiceapi.CRMRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.WebhookURL) == "" {
		writeError(w, http.StatusBadRequest, "webhook_url is required")
		return
	}

	s.mu.Lock()
	s.webhook++
	id := s.webhook
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, voiceapi.CRMResult{
		Success:    true,
		StatusCode: http.StatusOK,
		WebhookID:  id,
		Response:   "accepted",
	})
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

func clockDuration(d time.Duration) string {
	secs := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func displayStatus(status string, booked bool) string {
	switch {
	case booked:
		return "booked"
	case status == "completed":
		return "answered"
	case status == "failed":
		return "missed"
	default:
		return status
	}
}

func datePart(ts string) string {
	if len(ts) < len("2006-01-02") {
		return ""
	}
	return ts[:len("2006-01-02")]
}
