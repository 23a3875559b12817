package mockapi

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voicedesk/callwatch/internal/voiceapi"
)

const timestampLayout = "2006-01-02T15:04:05"

type demoCall struct {
	caller   string
	ago      time.Duration
	seconds  int
	callType string
	status   string
	booked   bool
	opening  string
}

// The demo call log of the web dashboard. Ages are relative to the server
// clock so the data always looks recent.
var demoCalls = []demoCall{
	{"+1 (555) 123-4567", 10 * time.Minute, 154, "AI", "completed", false, "Hi, I'm calling to schedule an appointment for..."},
	{"+1 (555) 987-6543", 32 * time.Minute, 252, "AI", "completed", true, "Yes, I'd like to book a consultation for next week..."},
	{"+1 (555) 456-7890", time.Hour, 65, "Human-Human", "failed", false, "This is John from Acme Corp, I wanted to discuss..."},
	{"+1 (555) 234-5678", 3 * time.Hour, 347, "AI", "completed", false, "I'm interested in your services. Can you tell me more about..."},
	{"+1 (555) 345-6789", 4 * time.Hour, 318, "Human-Human", "completed", true, "I saw your website and wanted to inquire about pricing..."},
	{"+1 (555) 876-5432", 5 * time.Hour, 176, "AI", "completed", false, "Hello, I need some information about your business hours..."},
	{"+1 (555) 765-4321", 6 * time.Hour, 45, "AI", "failed", false, "Is this the right number for..."},
	{"+1 (555) 222-3333", 2 * time.Minute, 0, "AI", "in-progress", false, "Hello, I'm calling about my account..."},
	{"+1 (555) 444-5555", 4 * time.Minute, 0, "AI", "in-progress", false, "I'd like to know more about your pricing plans..."},
}

// Dataset is the in-memory state served by the mock backend.
type Dataset struct {
	Calls        []voiceapi.CallDetail
	Appointments []voiceapi.Appointment
}

// NewDataset builds the demo data set anchored at now.
func NewDataset(now time.Time) *Dataset {
	ds := &Dataset{}
	for i, dc := range demoCalls {
		id := int64(i + 1)
		start := now.Add(-dc.ago)
		call := voiceapi.CallDetail{
			CallSummary: voiceapi.CallSummary{
				ID:               id,
				CallSID:          "CA" + strings.ReplaceAll(uuid.NewString(), "-", ""),
				FromNumber:       dc.caller,
				ToNumber:         "+1 (555) 000-1000",
				Status:           dc.status,
				StartTime:        start.Format(timestampLayout),
				CallType:         dc.callType,
				TranscriptCount:  2,
				InteractionCount: 1,
			},
			Transcripts: []voiceapi.Transcript{
				{ID: id*10 + 1, Timestamp: start.Format(timestampLayout), Speaker: "caller", Text: dc.opening, Confidence: 0.94, IsFinal: true},
				{ID: id*10 + 2, Timestamp: start.Add(5 * time.Second).Format(timestampLayout), Speaker: "ai", Text: "Thanks for calling. How can I help you today?", Confidence: 0.99, IsFinal: true},
			},
			Interactions: []voiceapi.Interaction{
				{ID: id, Timestamp: start.Format(timestampLayout), Intent: intentFor(dc), Confidence: 0.87, UserInput: dc.opening, AIResponse: "Let me check that for you."},
			},
			Appointments: []voiceapi.Appointment{},
		}
		if dc.status != "in-progress" {
			seconds := dc.seconds
			call.Duration = &seconds
			call.EndTime = start.Add(time.Duration(seconds) * time.Second).Format(timestampLayout)
			call.Summary = fmt.Sprintf("%s call, %s", strings.ToLower(dc.callType), dc.status)
		}
		if dc.booked {
			appt := voiceapi.Appointment{
				ID:            int64(len(ds.Appointments) + 1),
				Title:         "Consultation",
				StartTime:     start.Add(48 * time.Hour).Format(timestampLayout),
				EndTime:       start.Add(48*time.Hour + 30*time.Minute).Format(timestampLayout),
				AttendeePhone: dc.caller,
				Status:        "scheduled",
				CreatedAt:     start.Format(timestampLayout),
			}
			call.Appointments = append(call.Appointments, appt)
			call.Interactions[0].ActionTaken = "book_appointment"
			ds.Appointments = append(ds.Appointments, appt)
		}
		ds.Calls = append(ds.Calls, call)
	}
	return ds
}

func intentFor(dc demoCall) string {
	if dc.booked {
		return "book_appointment"
	}
	return "general_inquiry"
}

func (d *Dataset) call(id int64) (voiceapi.CallDetail, bool) {
	for _, c := range d.Calls {
		if c.ID == id {
			return c, true
		}
	}
	return voiceapi.CallDetail{}, false
}

func (d *Dataset) callsWithStatus(status string) []voiceapi.CallSummary {
	out := make([]voiceapi.CallSummary, 0, len(d.Calls))
	for _, c := range d.Calls {
		if status != "" && !strings.EqualFold(c.Status, status) {
			continue
		}
		out = append(out, c.CallSummary)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ParsedStartTime().After(out[j].ParsedStartTime())
	})
	return out
}

func (d *Dataset) count(status string) int {
	n := 0
	for _, c := range d.Calls {
		if status == "" || c.Status == status {
			n++
		}
	}
	return n
}
