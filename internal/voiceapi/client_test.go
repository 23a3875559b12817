package voiceapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/voicedesk/callwatch/internal/credentials"
	"github.com/voicedesk/callwatch/internal/metrics"
)

func decodeBasic(t *testing.T, header string) string {
	t.Helper()
	if !strings.HasPrefix(header, "Basic ") {
		t.Fatalf("Authorization = %q, want Basic scheme", header)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
	if err != nil {
		t.Fatalf("decode Authorization: %v", err)
	}
	return string(raw)
}

func newTestClient(t *testing.T, handler http.Handler, creds *credentials.Store) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c, err := NewClient(server.URL, creds)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return c
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultBaseURL {
		t.Fatalf("url = %q, want %q", u.String(), defaultBaseURL)
	}

	u, err = parseBaseURL("example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "example.com:1234" {
		t.Fatalf("url = %q, want http://example.com:1234", u.String())
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL(http://) returned nil error, want missing host")
	}
}

func TestClient_SendsHeadersFromCurrentCredentials(t *testing.T) {
	t.Parallel()

	var gotAuth, gotType, gotRequestID, gotUA string
	creds := credentials.New(credentials.Credentials{Username: "admin", Password: "password"})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"status":"healthy","timestamp":"2025-01-01T00:00:00"}`))
	}), creds)

	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
	if got := decodeBasic(t, gotAuth); got != "admin:password" {
		t.Fatalf("Authorization decodes to %q, want admin:password", got)
	}
	if gotType != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", gotType)
	}
	if gotRequestID == "" {
		t.Fatalf("X-Request-ID missing")
	}
	if !strings.HasPrefix(gotUA, "callwatch/") {
		t.Fatalf("User-Agent = %q, want callwatch/*", gotUA)
	}

	creds.Set("ops", "rotated")
	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
	if got := decodeBasic(t, gotAuth); got != "ops:rotated" {
		t.Fatalf("Authorization after Set decodes to %q, want ops:rotated", got)
	}
}

func TestClient_InFlightRequestKeepsCredentialsCapturedAtStart(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	firstArrived := make(chan struct{})
	var mu sync.Mutex
	seen := map[string]string{}

	creds := credentials.New(credentials.Credentials{Username: "old", Password: "old"})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := r.URL.Query().Get("limit")
		mu.Lock()
		seen[tag] = r.Header.Get("Authorization")
		mu.Unlock()
		if tag == "1" {
			close(firstArrived)
			<-release
		}
		_, _ = w.Write([]byte(`{"recent_calls":[]}`))
	}), creds)

	done := make(chan error, 1)
	go func() {
		_, err := c.RecentCalls(context.Background(), 1)
		done <- err
	}()
	<-firstArrived

	creds.Set("a", "b")
	if _, err := c.RecentCalls(context.Background(), 2); err != nil {
		t.Fatalf("second RecentCalls returned error: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first RecentCalls returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got := decodeBasic(t, seen["1"]); got != "old:old" {
		t.Fatalf("in-flight request used %q, want old:old", got)
	}
	if got := decodeBasic(t, seen["2"]); got != "a:b" {
		t.Fatalf("new request used %q, want a:b", got)
	}
}

func TestClient_CallsPageScenario(t *testing.T) {
	t.Parallel()

	var gotQuery url.Values
	status := http.StatusOK
	var mu sync.Mutex
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotQuery = r.URL.Query()
		if r.URL.Path != "/api/calls" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error": "invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"calls":[{"id":1},{"id":2},{"id":3}],"total":3,"pages":1,"current_page":1}`))
	}), nil)

	page, err := c.Calls(context.Background(), CallQuery{Page: 1, PerPage: 20})
	if err != nil {
		t.Fatalf("Calls returned error: %v", err)
	}
	if len(page.Calls) != 3 || page.Total != 3 || page.CurrentPage != 1 {
		t.Fatalf("Calls page = %#v, want 3 calls", page)
	}
	mu.Lock()
	firstQuery := gotQuery
	mu.Unlock()
	if firstQuery.Get("page") != "1" || firstQuery.Get("per_page") != "20" || firstQuery.Has("status") {
		t.Fatalf("query = %v, want page=1 per_page=20 without status", firstQuery)
	}

	mu.Lock()
	status = http.StatusUnauthorized
	mu.Unlock()

	_, err = c.Calls(context.Background(), CallQuery{Page: 1, PerPage: 20, Status: "completed"})
	if err == nil {
		t.Fatalf("Calls returned nil error for 401")
	}
	if Message(err) != "invalid credentials" {
		t.Fatalf("Message = %q, want invalid credentials", Message(err))
	}
	if !IsRequest(err) || !IsUnauthorized(err) {
		t.Fatalf("err = %#v, want unauthorized request error", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if gotQuery.Get("status") != "completed" {
		t.Fatalf("status query = %q, want completed", gotQuery.Get("status"))
	}
}

func TestClient_NonSuccessStatusNeverSucceeds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error envelope", http.StatusBadRequest, `{"error":"bad date"}`, "bad date"},
		{"plain text", http.StatusInternalServerError, "boom", "HTTP 500"},
		{"json without error", http.StatusNotFound, `{"metrics":{}}`, "HTTP 404"},
		{"empty error field", http.StatusForbidden, `{"error":""}`, "HTTP 403"},
		{"empty body", http.StatusServiceUnavailable, "", "HTTP 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}), nil)

			got, err := c.DashboardMetrics(context.Background())
			if err == nil || got != nil {
				t.Fatalf("DashboardMetrics = (%#v, %v), want failure", got, err)
			}
			if !IsRequest(err) {
				t.Fatalf("err kind = %v, want request_failed", kindOf(err))
			}
			if Message(err) != tt.wantMsg {
				t.Fatalf("Message = %q, want %q", Message(err), tt.wantMsg)
			}
			if hits.Load() != 1 {
				t.Fatalf("server hits = %d, want exactly 1 attempt", hits.Load())
			}
		})
	}
}

func TestClient_ParseFailures(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/dashboard/metrics":
			_, _ = w.Write([]byte("{not-json"))
		case "/api/dashboard/system-status":
			_, _ = w.Write([]byte(`{"unexpected":true}`))
		case "/health":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}), nil)

	_, err := c.DashboardMetrics(context.Background())
	if !IsParse(err) {
		t.Fatalf("DashboardMetrics error = %v, want parse failure", err)
	}

	_, err = c.SystemStatus(context.Background())
	if !IsParse(err) || !strings.Contains(Message(err), "system_status") {
		t.Fatalf("SystemStatus error = %v, want schema parse failure", err)
	}

	_, err = c.Health(context.Background())
	if !IsParse(err) {
		t.Fatalf("Health error = %v, want parse failure for empty body", err)
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	c, err := NewClient(addr, nil, WithTimeout(time.Second))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.Health(context.Background())
	if !IsNetwork(err) {
		t.Fatalf("Health error = %v, want network failure", err)
	}
	if Message(err) == "" {
		t.Fatalf("network failure message is empty")
	}
	if IsRequest(err) || IsParse(err) {
		t.Fatalf("network failure misclassified: %v", kindOf(err))
	}
}

func TestClient_CancelledContextIsNetworkFailure(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.LiveStats(ctx)
	if !IsNetwork(err) {
		t.Fatalf("LiveStats error = %v, want network failure", err)
	}
}

func TestClient_PostEndpointsEncodeBodies(t *testing.T) {
	t.Parallel()

	var gotMethod string
	var gotBody map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotBody = nil
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		switch r.URL.Path {
		case "/api/book-appointment":
			_, _ = w.Write([]byte(`{"id":7,"title":"Demo","start_time":"s","end_time":"e","status":"scheduled"}`))
		case "/api/crm-trigger":
			_, _ = w.Write([]byte(`{"success":true,"status_code":200,"webhook_id":3}`))
		default:
			http.NotFound(w, r)
		}
	}), nil)

	booked, err := c.BookAppointment(context.Background(), AppointmentRequest{
		Title:     "Demo",
		StartTime: "2025-01-02T14:00:00",
		EndTime:   "2025-01-02T14:30:00",
	})
	if err != nil {
		t.Fatalf("BookAppointment returned error: %v", err)
	}
	if booked.ID != 7 || gotMethod != http.MethodPost || gotBody["title"] != "Demo" {
		t.Fatalf("BookAppointment = %#v method=%s body=%v", booked, gotMethod, gotBody)
	}
	if _, ok := gotBody["description"]; ok {
		t.Fatalf("empty description should be omitted, body=%v", gotBody)
	}

	callID := int64(42)
	res, err := c.TriggerCRM(context.Background(), CRMRequest{
		WebhookURL: "https://crm.example.com/hook",
		Payload:    map[string]string{"name": "John"},
		CallID:     &callID,
	})
	if err != nil {
		t.Fatalf("TriggerCRM returned error: %v", err)
	}
	if !res.Success || res.WebhookID != 3 {
		t.Fatalf("TriggerCRM = %#v, want success", res)
	}
	if gotBody["webhook_url"] != "https://crm.example.com/hook" || gotBody["call_id"] != float64(42) {
		t.Fatalf("crm body = %v", gotBody)
	}
}

func TestClient_ContextCredentialsOverrideStore(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var seen []string
	creds := credentials.New(credentials.Credentials{Username: "admin", Password: "password"})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		_, _ = w.Write([]byte(`{"status":"healthy","timestamp":"2025-01-01T00:00:00"}`))
	}), creds)

	ctx := ContextWithCredentials(context.Background(), credentials.Credentials{Username: "candidate", Password: "secret"})
	if _, err := c.Health(ctx); err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
	if _, err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health returned error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got := decodeBasic(t, seen[0]); got != "candidate:secret" {
		t.Fatalf("override request used %q, want candidate:secret", got)
	}
	if got := decodeBasic(t, seen[1]); got != "admin:password" {
		t.Fatalf("plain request used %q, want admin:password", got)
	}
	if got := creds.Get(); got.Username != "admin" {
		t.Fatalf("store changed to %+v", got)
	}
}

func TestClient_LocalFailuresHaveNoKind(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}), nil)

	err := c.Do(context.Background(), Post("/api/crm-trigger", map[string]any{"bad": make(chan int)}), nil)
	if err == nil {
		t.Fatalf("Do with unencodable body returned nil error")
	}
	if IsNetwork(err) || IsRequest(err) || IsParse(err) {
		t.Fatalf("encode failure classified as %v, want no kind", kindOf(err))
	}
	if Message(err) == "" {
		t.Fatalf("Message is empty for local failure")
	}

	var nilClient *Client
	if err := nilClient.Do(context.Background(), Get("/health", nil), nil); err == nil || kindOf(err) != 0 {
		t.Fatalf("nil client Do = %v, want plain error", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("server hits = %d, want 0", hits.Load())
	}
}

func TestClient_ArgumentChecksSkipNetwork(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}), nil)

	if _, err := c.CallDetail(context.Background(), 0); err == nil {
		t.Fatalf("CallDetail(0) returned nil error")
	}
	if _, err := c.BookAppointment(context.Background(), AppointmentRequest{}); err == nil {
		t.Fatalf("BookAppointment(empty) returned nil error")
	}
	if _, err := c.AvailableSlots(context.Background(), " ", 30); err == nil {
		t.Fatalf("AvailableSlots(blank date) returned nil error")
	}
	if _, err := c.TriggerCRM(context.Background(), CRMRequest{}); err == nil {
		t.Fatalf("TriggerCRM(no url) returned nil error")
	}
	if hits.Load() != 0 {
		t.Fatalf("server hits = %d, want 0", hits.Load())
	}
}

func TestClient_QueryDefaults(t *testing.T) {
	t.Parallel()

	queries := map[string]url.Values{}
	var mu sync.Mutex
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries[r.URL.Path] = r.URL.Query()
		mu.Unlock()
		switch r.URL.Path {
		case "/api/dashboard/recent-calls":
			_, _ = w.Write([]byte(`{"recent_calls":[]}`))
		case "/api/appointments":
			_, _ = w.Write([]byte(`{"appointments":[],"total":0,"pages":0,"current_page":1}`))
		case "/api/available-slots":
			_, _ = w.Write([]byte(`{"available_slots":[{"start":"09:00","end":"09:30","duration":30}]}`))
		case "/api/dashboard/call-trends":
			_, _ = w.Write([]byte(`{"trends":[{"date":"2025-01-01","calls":4,"appointments":1}]}`))
		case "/api/calls/9":
			_, _ = w.Write([]byte(`{"id":9,"call_sid":"CA9","transcripts":[{"speaker":"AI","text":"hi"}]}`))
		default:
			http.NotFound(w, r)
		}
	}), nil)
	ctx := context.Background()

	if _, err := c.RecentCalls(ctx, 0); err != nil {
		t.Fatalf("RecentCalls: %v", err)
	}
	if _, err := c.Appointments(ctx, 0, 0); err != nil {
		t.Fatalf("Appointments: %v", err)
	}
	slots, err := c.AvailableSlots(ctx, "2025-01-02", 0)
	if err != nil || len(slots.AvailableSlots) != 1 {
		t.Fatalf("AvailableSlots = %#v, %v", slots, err)
	}
	trends, err := c.CallTrends(ctx, 0)
	if err != nil || len(trends.Trends) != 1 {
		t.Fatalf("CallTrends = %#v, %v", trends, err)
	}
	detail, err := c.CallDetail(ctx, 9)
	if err != nil || detail.CallSID != "CA9" || len(detail.Transcripts) != 1 {
		t.Fatalf("CallDetail = %#v, %v", detail, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if queries["/api/dashboard/recent-calls"].Get("limit") != "10" {
		t.Fatalf("recent-calls query = %v, want limit=10", queries["/api/dashboard/recent-calls"])
	}
	if q := queries["/api/appointments"]; q.Get("page") != "1" || q.Get("per_page") != "50" {
		t.Fatalf("appointments query = %v, want page=1 per_page=50", q)
	}
	if q := queries["/api/available-slots"]; q.Get("date") != "2025-01-02" || q.Get("duration") != "30" {
		t.Fatalf("available-slots query = %v", q)
	}
	if queries["/api/dashboard/call-trends"].Get("days") != "7" {
		t.Fatalf("call-trends query = %v, want days=7", queries["/api/dashboard/call-trends"])
	}
}

func TestClient_RecordsMetrics(t *testing.T) {
	rec := metrics.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, nil, WithMetrics(rec))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, _ = c.CallDetail(context.Background(), 5)

	families, err := rec.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, fam := range families {
		if fam.GetName() != "callwatch_api_requests_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["endpoint"] == "/api/calls/{id}" && labels["outcome"] == "request_failed" {
				found = m.GetCounter().GetValue() == 1
			}
		}
	}
	if !found {
		t.Fatalf("request counter for /api/calls/{id} request_failed not recorded")
	}
}

func TestMessage(t *testing.T) {
	if Message(nil) != "" {
		t.Fatalf("Message(nil) should be empty")
	}
	if got := Message(&Error{Kind: KindParse, Message: "invalid response: x"}); got != "invalid response: x" {
		t.Fatalf("Message = %q", got)
	}
	if got := Message(context.Canceled); got != "context canceled" {
		t.Fatalf("Message(context.Canceled) = %q", got)
	}
}
