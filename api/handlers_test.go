/*
handlers_test.go - Unit tests for API handlers

Tests for:
- People listing and month computation over a seeded store
- Error mapping to 400/404
- Workbook export, bulk summary, ad-hoc compute
- Metrics exposure and the scheduled summary
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/payroll"
	"github.com/warp/wage-engine/store"
	"github.com/warp/wage-engine/wage"
)

type testServer struct {
	router  http.Handler
	handler *Handler
	reg     *prometheus.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	c, err := factory.LoadCatalog("../factory/testdata/catalog.yaml")
	require.NoError(t, err)
	mem := store.NewMemory()
	require.NoError(t, mem.Seed(context.Background(), c))

	reg := prometheus.NewRegistry()
	svc := payroll.NewService(mem, wage.NewEngine(wage.DefaultPolicy()),
		payroll.WithMetrics(payroll.NewMetrics(reg)))
	h := NewHandler(svc)
	return &testServer{
		router:  NewRouter(h, Options{Logger: zerolog.Nop(), Gatherer: reg}),
		handler: h,
		reg:     reg,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListPeople(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/people", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	people := decode[[]PersonDTO](t, rec)
	require.Len(t, people, 3)
	assert.Equal(t, "דנה", people[0].Name)
	assert.False(t, people[2].Active)
}

func TestGetMonth(t *testing.T) {
	// GIVEN: person 1 with a regular day and an evening-standby shift in March
	s := newTestServer(t)

	// WHEN: the month is requested
	rec := s.do(t, http.MethodGet, "/api/people/1/months/2025/3", nil)

	// THEN: the month is computed at the minimum wage in force on March 1st
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	month := decode[MonthDTO](t, rec)

	assert.NotEmpty(t, month.RunID)
	assert.Equal(t, "2025-03", month.Month)
	assert.Equal(t, "32.70", month.MinimumWage)
	assert.Equal(t, "דנה", month.Person.Name)

	require.GreaterOrEqual(t, len(month.Days), 2)
	first := month.Days[0]
	assert.Equal(t, "2025-03-03", first.Date)
	assert.Equal(t, "03/03/2025", first.Key)
	assert.Equal(t, "8:00", first.Tiers["100%"])
	assert.Equal(t, "261.60", first.Payment)
	require.Len(t, first.Chains, 1)
	assert.Equal(t, "08:00", first.Chains[0].Start)
	assert.Equal(t, "16:00", first.Chains[0].End)

	// The standby block is priced by apartment type 2's rate.
	second := month.Days[1]
	assert.Equal(t, "2025-03-04", second.Date)
	require.Len(t, second.Standby, 1)
	assert.Equal(t, "80.00", second.Standby[0].Payment)
	assert.Equal(t, "8:30", second.Standby[0].Hours)

	assert.Equal(t, "30.00", month.Totals.Extras)
	assert.Equal(t, "120.50", month.Totals.Travel)
}

func TestGetMonth_ErrorMapping(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		path   string
		status int
	}{
		{"/api/people/99/months/2025/3", http.StatusNotFound},   // unknown person
		{"/api/people/1/months/2020/1", http.StatusNotFound},    // no minimum wage in force
		{"/api/people/1/months/2025/13", http.StatusBadRequest}, // invalid month
		{"/api/people/abc/months/2025/3", http.StatusBadRequest},
		{"/api/people/1/months/year/3", http.StatusBadRequest},
	}
	for _, c := range cases {
		rec := s.do(t, http.MethodGet, c.path, nil)
		assert.Equal(t, c.status, rec.Code, c.path)
		resp := decode[ErrorResponse](t, rec)
		assert.NotEmpty(t, resp.Error, c.path)
	}
}

func TestExportMonth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/people/1/months/2025/3/export.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "wage-1-2025-03.xlsx")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Days")
	require.NoError(t, err)
	assert.Greater(t, len(rows), 1)
}

func TestGetSummary_ActivePeopleOnly(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/summary/2025/3", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	summary := decode[SummaryDTO](t, rec)
	assert.Equal(t, "2025-03", summary.Month)
	require.Len(t, summary.Rows, 2)
	assert.EqualValues(t, 1, summary.Rows[0].Person.ID)
	assert.EqualValues(t, 2, summary.Rows[1].Person.ID)
	require.NotNil(t, summary.Rows[0].Totals)
	assert.Empty(t, summary.Rows[0].Error)
}

func TestCompute_AdHoc(t *testing.T) {
	// GIVEN: a ten-hour weekday report on a shift type with no segments
	s := newTestServer(t)
	body := []byte(`{
		"person_id": 7, "year": 2025, "month": 3, "minimum_wage": "30",
		"shift_types": [{"id": 1, "name": "day", "category": "regular", "minimum_wage": true}],
		"reports": [{"id": 1, "date": "2025-03-03", "start": "08:00", "end": "18:00", "shift_type_id": 1,
		             "apartment_name": "דירה א"}],
		"travel": "12.50"
	}`)

	// WHEN: computed ad hoc
	rec := s.do(t, http.MethodPost, "/api/compute", body)

	// THEN: eight hours at 100% and two at 125%
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	month := decode[MonthDTO](t, rec)
	assert.Equal(t, "8:00", month.Totals.Calc100)
	assert.Equal(t, "2:00", month.Totals.Calc125)
	assert.Equal(t, "315.00", month.Totals.Payment)
	assert.Equal(t, "327.50", month.Totals.TotalPayment)
	require.Len(t, month.Days, 1)
	assert.Equal(t, []string{"דירה א"}, month.Days[0].Chains[0].Apartments)
}

func TestCompute_BadInput(t *testing.T) {
	s := newTestServer(t)

	cases := map[string]string{
		"malformed json":  `{"year":`,
		"bad wage":        `{"year": 2025, "month": 3, "minimum_wage": "abc"}`,
		"bad shift type":  `{"year": 2025, "month": 3, "minimum_wage": "30", "shift_types": [{"id": 0}]}`,
		"invalid month":   `{"year": 2025, "month": 0, "minimum_wage": "30"}`,
		"nonpositive min": `{"year": 2025, "month": 3, "minimum_wage": "0"}`,
	}
	for name, body := range cases {
		rec := s.do(t, http.MethodPost, "/api/compute", []byte(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestMetricsAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.do(t, http.MethodGet, "/api/people/1/months/2025/3", nil)
	s.do(t, http.MethodGet, "/api/people/99/months/2025/3", nil)

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	text := rec.Body.String()
	assert.True(t, strings.Contains(text, `wage_months_computed_total{status="ok"} 1`), text)
	assert.True(t, strings.Contains(text, `wage_months_computed_total{status="invalid"} 1`), text)
}

func TestSummaryScheduler_Latest(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/summary/latest", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "no scheduler configured")

	// GIVEN: a scheduler pinned to March 2025
	invalidated := 0
	sched := NewSummaryScheduler(s.handler.Service, zerolog.Nop())
	sched.now = func() time.Time { return time.Date(2025, time.March, 20, 3, 0, 0, 0, time.UTC) }
	sched.OnRun = func() { invalidated++ }
	s.handler.Scheduler = sched

	rec = s.do(t, http.MethodGet, "/api/summary/latest", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "nothing run yet")

	// WHEN: it runs once
	sched.RunOnce()

	// THEN: the snapshot is served
	assert.Equal(t, 1, invalidated)
	rec = s.do(t, http.MethodGet, "/api/summary/latest", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[SummaryDTO](t, rec)
	assert.Equal(t, "2025-03", summary.Month)
	assert.Len(t, summary.Rows, 2)
}
