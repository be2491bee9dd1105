/*
handlers.go - HTTP API handlers for the wage engine

PURPOSE:
  Exposes payroll.Service via REST API. Handles HTTP request/response, JSON
  serialization and error mapping; all computation is delegated.

ENDPOINTS:
  People:
    GET    /api/people                                     List people
    GET    /api/people/{id}/months/{year}/{month}          Full computed month
    GET    /api/people/{id}/months/{year}/{month}/export.xlsx  Workbook

  Summary:
    GET    /api/summary/{year}/{month}                     Totals for all active people
    GET    /api/summary/latest                             Last scheduled summary

  Ad-hoc:
    POST   /api/compute                                    Run on data in the body

  Ops:
    GET    /healthz
    GET    /metrics

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: invalid input (bad path values, invalid month, malformed body)
  - 404: unknown person, no minimum wage for the month
  - 500: internal errors (logged with the request logger)

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/export"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/payroll"
	"github.com/warp/wage-engine/rates"
	"github.com/warp/wage-engine/shift"
	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *payroll.Service
	Scheduler *SummaryScheduler // optional
}

func NewHandler(svc *payroll.Service) *Handler {
	return &Handler{Service: svc}
}

// =============================================================================
// PEOPLE
// =============================================================================

// ListPeople returns all people.
func (h *Handler) ListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := h.Service.People(r.Context())
	if err != nil {
		writeServiceError(w, r, "Failed to list people", err)
		return
	}

	dtos := make([]PersonDTO, len(people))
	for i, p := range people {
		dtos[i] = toPersonDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMonth computes and returns one person-month.
// GET /api/people/{id}/months/{year}/{month}
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	run, ok := h.computeFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, NewMonthDTO(run))
}

// ExportMonth computes one person-month and returns it as a workbook.
// GET /api/people/{id}/months/{year}/{month}/export.xlsx
func (h *Handler) ExportMonth(w http.ResponseWriter, r *http.Request) {
	run, ok := h.computeFromPath(w, r)
	if !ok {
		return
	}

	filename := fmt.Sprintf("wage-%d-%s.xlsx", run.Person.ID, run.Result.Month)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := export.WriteMonth(w, run.Person.Name, run.Result); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("run_id", run.ID).Msg("export failed")
	}
}

func (h *Handler) computeFromPath(w http.ResponseWriter, r *http.Request) (*payroll.Run, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid person id", err)
		return nil, false
	}
	month, err := monthFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return nil, false
	}

	run, err := h.Service.ComputeMonth(r.Context(), wage.PersonID(id), month)
	if err != nil {
		writeServiceError(w, r, "Failed to compute month", err)
		return nil, false
	}
	return run, true
}

// =============================================================================
// SUMMARY
// =============================================================================

// GetSummary computes the month for every active person.
// GET /api/summary/{year}/{month}
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	month, err := monthFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	rows, err := h.Service.Summary(r.Context(), month)
	if err != nil {
		writeServiceError(w, r, "Failed to compute summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTO(month, rows))
}

// LatestSummary returns the scheduler's last completed run.
// GET /api/summary/latest
func (h *Handler) LatestSummary(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		writeError(w, http.StatusNotFound, "Scheduler is disabled", nil)
		return
	}
	snap, ok := h.Scheduler.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "No scheduled summary yet", nil)
		return
	}
	dto := toSummaryDTO(snap.Month, snap.Rows)
	writeJSON(w, http.StatusOK, struct {
		SummaryDTO
		CompletedAt string `json:"completed_at"`
	}{dto, snap.CompletedAt.Format(time.RFC3339)})
}

// =============================================================================
// AD-HOC COMPUTE
// =============================================================================

// Compute runs the engine on the reports, shift types and rates in the body.
// POST /api/compute
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in, err := buildInput(req, h.Service.ShabbatDefaults())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid compute request", err)
		return
	}

	run, err := h.Service.Compute(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, "Failed to compute month", err)
		return
	}
	writeJSON(w, http.StatusOK, NewMonthDTO(run))
}

func buildInput(req ComputeRequest, defaults calendar.Defaults) (wage.MonthInput, error) {
	month := calendar.NewMonth(req.Year, time.Month(req.Month))
	in := wage.MonthInput{
		PersonID:   wage.PersonID(req.PersonID),
		Month:      month,
		ShiftTypes: make(map[shift.TypeID]shift.Type, len(req.ShiftTypes)),
		Sabbath:    calendar.NewShabbatCalendar(req.ShabbatTimes, defaults),
		Travel:     decimal.Zero,
		Extras:     decimal.Zero,
	}

	var err error
	if in.MinimumWage, err = decimal.NewFromString(req.MinimumWage); err != nil {
		return in, fmt.Errorf("minimum_wage: %w", err)
	}
	if req.Travel != "" {
		if in.Travel, err = decimal.NewFromString(req.Travel); err != nil {
			return in, fmt.Errorf("travel: %w", err)
		}
	}
	if req.Extras != "" {
		if in.Extras, err = decimal.NewFromString(req.Extras); err != nil {
			return in, fmt.Errorf("extras: %w", err)
		}
	}

	for i, f := range req.ShiftTypes {
		t, err := factory.ParseShiftType(f)
		if err != nil {
			return in, fmt.Errorf("shift_types[%d]: %w", i, err)
		}
		in.ShiftTypes[t.ID] = t
	}

	var standby []rates.StandbyRate
	for i, f := range req.StandbyRates {
		sr, err := factory.ParseStandbyRate(f)
		if err != nil {
			return in, fmt.Errorf("standby_rates[%d]: %w", i, err)
		}
		standby = append(standby, sr)
	}
	in.StandbyRates = rates.NewStandbyTable(standby, month)

	for i, f := range req.Reports {
		rep, err := factory.ParseReport(f.ReportFile)
		if err != nil {
			return in, fmt.Errorf("reports[%d]: %w", i, err)
		}
		in.Reports = append(in.Reports, wage.TimeReport{
			ID:                 rep.ID,
			PersonID:           in.PersonID,
			Date:               rep.Date,
			StartTime:          rep.StartTime,
			EndTime:            rep.EndTime,
			ShiftTypeID:        rep.ShiftTypeID,
			ApartmentID:        rep.ApartmentID,
			ApartmentName:      f.ApartmentName,
			ApartmentTypeID:    wage.ApartmentTypeID(f.ApartmentTypeID),
			MaritalStatus:      f.MaritalStatus,
			RateOverrideAgorot: rep.RateOverrideAgorot,
		})
	}
	return in, nil
}

// =============================================================================
// OPS
// =============================================================================

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func monthFromPath(r *http.Request) (calendar.Month, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return calendar.Month{}, fmt.Errorf("year: %w", err)
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return calendar.Month{}, fmt.Errorf("month: %w", err)
	}
	m := calendar.NewMonth(year, time.Month(month))
	return m, m.Validate()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps service errors to a status; internal errors are
// logged and their details withheld.
func writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case payroll.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case payroll.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, nil)
	}
}
