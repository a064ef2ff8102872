package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"attendance/internal/app/server"
	"attendance/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig() config.Config {
	return config.Config{
		Addr:               ":0",
		Environment:        "test",
		DBDriver:           config.DriverSQLite,
		SQLitePath:         ":memory:",
		RunMigrations:      true,
		MaxBodyBytes:       1048576,
		RateLimitPerMinute: 1000,
		MetricsEnabled:     true,
		ReportTitle:        "Attendance Records",
	}
}

func startApp(t *testing.T, cfg config.Config) (*httptest.Server, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 9, 9, 0, 0, 0, time.Local)}
	app, err := server.New(context.Background(), cfg, server.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)
	return ts, clock
}

func postForm(t *testing.T, client *http.Client, target string, form url.Values, wantStatus int) envelope {
	t.Helper()
	resp, err := client.PostForm(target, form)
	if err != nil {
		t.Fatalf("post %s: %v", target, err)
	}
	return decodeEnvelope(t, resp, wantStatus)
}

func postJSON(t *testing.T, client *http.Client, target string, payload any, wantStatus int) envelope {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := client.Post(target, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", target, err)
	}
	return decodeEnvelope(t, resp, wantStatus)
}

func get(t *testing.T, client *http.Client, target string, wantStatus int) envelope {
	t.Helper()
	resp, err := client.Get(target)
	if err != nil {
		t.Fatalf("get %s: %v", target, err)
	}
	return decodeEnvelope(t, resp, wantStatus)
}

func decodeEnvelope(t *testing.T, resp *http.Response, wantStatus int) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode %s: %v", resp.Request.URL.Path, err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d (%+v)", resp.Request.Method, resp.Request.URL.Path, wantStatus, resp.StatusCode, env.Error)
	}
	return env
}

func errorCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

type record struct {
	ID           int64      `json:"id"`
	EmployeeID   int64      `json:"employeeId"`
	EmployeeName string     `json:"employeeName"`
	Date         string     `json:"date"`
	ClockIn      *time.Time `json:"clockInTime"`
	ClockOut     *time.Time `json:"clockOutTime"`
	State        string     `json:"state"`
}

func listRecords(t *testing.T, client *http.Client, base string) []record {
	t.Helper()
	env := get(t, client, base+"/attendance/records", http.StatusOK)
	var records []record
	if err := json.Unmarshal(env.Data, &records); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	return records
}

func createEmployee(t *testing.T, client *http.Client, base, first, last, email string) int64 {
	t.Helper()
	env := postForm(t, client, base+"/employees/new", url.Values{
		"first_name": {first},
		"last_name":  {last},
		"email":      {email},
	}, http.StatusCreated)
	var data struct {
		Employee struct {
			ID int64 `json:"id"`
		} `json:"employee"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode employee: %v", err)
	}
	if data.Message != "Employee added!" {
		t.Fatalf("unexpected message %q", data.Message)
	}
	return data.Employee.ID
}

func TestAttendanceJourney(t *testing.T) {
	ts, clock := startApp(t, testConfig())
	client := ts.Client()

	empID := createEmployee(t, client, ts.URL, "Ana", "Lee", "ana@x.com")
	employeeID := strconv.FormatInt(empID, 10)

	postForm(t, client, ts.URL+"/attendance", url.Values{"employee_id": {employeeID}, "action": {"clock_in"}}, http.StatusOK)
	records := listRecords(t, client, ts.URL)
	if len(records) != 1 || records[0].ClockIn == nil || records[0].ClockOut != nil || records[0].State != "open" {
		t.Fatalf("unexpected records after clock in: %+v", records)
	}

	env := postForm(t, client, ts.URL+"/attendance", url.Values{"employee_id": {employeeID}, "action": {"clock_in"}}, http.StatusConflict)
	if errorCode(env) != "already_clocked_in" {
		t.Fatalf("expected already_clocked_in, got %+v", env.Error)
	}
	if got := len(listRecords(t, client, ts.URL)); got != 1 {
		t.Fatalf("expected one record, got %d", got)
	}

	clock.Advance(8 * time.Hour)
	env = postForm(t, client, ts.URL+"/attendance", url.Values{"employee_id": {employeeID}, "action": {"clock_out"}}, http.StatusOK)
	var result struct {
		Record  record `json:"record"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode clock out: %v", err)
	}
	if result.Message != "Clocked out." || result.Record.ID != records[0].ID {
		t.Fatalf("unexpected clock out result %+v", result)
	}
	if !result.Record.ClockIn.Equal(*records[0].ClockIn) {
		t.Fatal("clock in time changed on clock out")
	}

	env = get(t, client, ts.URL+"/", http.StatusOK)
	var summary struct {
		Date           string `json:"date"`
		TotalEmployees int    `json:"totalEmployees"`
		ClockedIn      int    `json:"clockedIn"`
		ClockedOut     int    `json:"clockedOut"`
	}
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.TotalEmployees != 1 || summary.ClockedIn != 1 || summary.ClockedOut != 1 || summary.Date != "2026-03-09" {
		t.Fatalf("unexpected summary %+v", summary)
	}

	env = postForm(t, client, ts.URL+"/attendance", url.Values{"employee_id": {employeeID}, "action": {"clock_out"}}, http.StatusNotFound)
	if errorCode(env) != "no_open_clock_in" {
		t.Fatalf("expected no_open_clock_in, got %+v", env.Error)
	}
}

func TestEmployeeValidationAndDuplicates(t *testing.T) {
	ts, _ := startApp(t, testConfig())
	client := ts.Client()

	env := postForm(t, client, ts.URL+"/employees/new", url.Values{"first_name": {"Ana"}}, http.StatusBadRequest)
	if errorCode(env) != "validation_error" {
		t.Fatalf("expected validation_error, got %+v", env.Error)
	}
	var details struct {
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(env.Error.Details, &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if len(details.Fields) != 2 || details.Fields[0].Field != "email" || details.Fields[1].Field != "last_name" {
		t.Fatalf("unexpected fields %+v", details.Fields)
	}

	postJSON(t, client, ts.URL+"/employees/new", map[string]any{
		"first_name": "Ana",
		"last_name":  "Lee",
		"email":      "ana@x.com",
		"department": "Ops",
		"salary":     5200.5,
	}, http.StatusCreated)

	env = postForm(t, client, ts.URL+"/employees/new", url.Values{
		"first_name": {"Ann"},
		"last_name":  {"Li"},
		"email":      {"ana@x.com"},
	}, http.StatusConflict)
	if errorCode(env) != "employee_exists" {
		t.Fatalf("expected employee_exists, got %+v", env.Error)
	}

	env = get(t, client, ts.URL+"/employees", http.StatusOK)
	var list []struct {
		Email      string  `json:"email"`
		Department string  `json:"department"`
		Salary     float64 `json:"salary"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("decode employees: %v", err)
	}
	if len(list) != 1 || list[0].Salary != 5200.5 || list[0].Department != "Ops" {
		t.Fatalf("unexpected employees %+v", list)
	}

	env = get(t, client, ts.URL+"/attendance", http.StatusOK)
	var form struct {
		Employees []json.RawMessage `json:"employees"`
		Actions   []string          `json:"actions"`
		Today     string            `json:"today"`
	}
	if err := json.Unmarshal(env.Data, &form); err != nil {
		t.Fatalf("decode form: %v", err)
	}
	if len(form.Employees) != 1 || len(form.Actions) != 2 || form.Today != "2026-03-09" {
		t.Fatalf("unexpected form data %+v", form)
	}
}

func TestAttendanceActionErrors(t *testing.T) {
	ts, _ := startApp(t, testConfig())
	client := ts.Client()
	empID := strconv.FormatInt(createEmployee(t, client, ts.URL, "Ana", "Lee", "ana@x.com"), 10)

	cases := []struct {
		form url.Values
		code string
		want int
	}{
		{url.Values{"employee_id": {empID}, "action": {"clock_in"}, "date": {"03/09/2026"}}, "invalid_date", http.StatusBadRequest},
		{url.Values{"employee_id": {empID}, "action": {"nap"}}, "invalid_action", http.StatusBadRequest},
		{url.Values{"employee_id": {"999"}, "action": {"clock_in"}}, "unknown_employee", http.StatusNotFound},
		{url.Values{"action": {"clock_in"}}, "unknown_employee", http.StatusNotFound},
	}
	for _, tc := range cases {
		env := postForm(t, client, ts.URL+"/attendance", tc.form, tc.want)
		if errorCode(env) != tc.code {
			t.Fatalf("expected %s, got %+v", tc.code, env.Error)
		}
	}
	if got := len(listRecords(t, client, ts.URL)); got != 0 {
		t.Fatalf("expected no records, got %d", got)
	}

	resp, err := client.Post(ts.URL+"/attendance", "application/json", strings.NewReader(`{"employee_id":`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	env := decodeEnvelope(t, resp, http.StatusBadRequest)
	if errorCode(env) != "invalid_payload" {
		t.Fatalf("expected invalid_payload, got %+v", env.Error)
	}
}

func TestRecordsOrderedNewestFirst(t *testing.T) {
	ts, clock := startApp(t, testConfig())
	client := ts.Client()
	ana := strconv.FormatInt(createEmployee(t, client, ts.URL, "Ana", "Lee", "ana@x.com"), 10)
	bo := strconv.FormatInt(createEmployee(t, client, ts.URL, "Bo", "Kim", "bo@x.com"), 10)

	steps := []url.Values{
		{"employee_id": {ana}, "action": {"clock_in"}, "date": {"2026-03-07"}},
		{"employee_id": {ana}, "action": {"clock_in"}},
		{"employee_id": {bo}, "action": {"clock_in"}},
		{"employee_id": {bo}, "action": {"clock_in"}, "date": {"2026-03-08"}},
	}
	for _, form := range steps {
		clock.Advance(time.Minute)
		postForm(t, client, ts.URL+"/attendance", form, http.StatusOK)
	}

	records := listRecords(t, client, ts.URL)
	var got []string
	for _, rec := range records {
		got = append(got, rec.Date+"/"+rec.EmployeeName)
	}
	want := []string{"2026-03-09/Bo Kim", "2026-03-09/Ana Lee", "2026-03-08/Bo Kim", "2026-03-07/Ana Lee"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExportAndOperationalEndpoints(t *testing.T) {
	ts, _ := startApp(t, testConfig())
	client := ts.Client()

	resp, err := client.Get(ts.URL + "/attendance/records.pdf")
	if err != nil {
		t.Fatalf("get pdf: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected pdf response %d %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	head := make([]byte, 4)
	if _, err := io.ReadFull(resp.Body, head); err != nil || string(head) != "%PDF" {
		t.Fatalf("expected pdf body, got %q (%v)", head, err)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := client.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}

	env := get(t, client, ts.URL+"/metrics", http.StatusOK)
	var snap map[string]any
	if err := json.Unmarshal(env.Data, &snap); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if snap["requestsTotal"].(float64) < 2 {
		t.Fatalf("expected requests to be counted, got %+v", snap)
	}

	env = get(t, client, ts.URL+"/nope", http.StatusNotFound)
	if errorCode(env) != "not_found" {
		t.Fatalf("expected not_found, got %+v", env.Error)
	}
}

func TestPostgresJourney(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := testConfig()
	cfg.DBDriver = config.DriverPostgres
	cfg.DatabaseURL = dbURL
	ts, _ := startApp(t, cfg)
	client := ts.Client()

	email := "journey-" + strconv.FormatInt(time.Now().UnixNano(), 10) + "@example.com"
	empID := strconv.FormatInt(createEmployee(t, client, ts.URL, "Ana", "Lee", email), 10)
	date := "1999-01-05"

	postForm(t, client, ts.URL+"/attendance", url.Values{"employee_id": {empID}, "action": {"clock_in"}, "date": {date}}, http.StatusOK)
	postForm(t, client, ts.URL+"/attendance", url.Values{"employee_id": {empID}, "action": {"clock_in"}, "date": {date}}, http.StatusConflict)
	postForm(t, client, ts.URL+"/attendance", url.Values{"employee_id": {empID}, "action": {"clock_out"}, "date": {date}}, http.StatusOK)
}
