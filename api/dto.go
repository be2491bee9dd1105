/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Engine results carry
  absolute minutes and decimals; the API contract renders clocks as HH:MM,
  durations as H:MM and money as fixed two-decimal strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  People:      PersonDTO
  Month:       MonthDTO, DayDTO, ChainDTO, LadderRowDTO, FixedRowDTO,
               StandbyRowDTO, CancelledStandbyDTO, TotalsDTO, DiagnosticDTO
  Summary:     SummaryDTO, SummaryRowDTO
  Ad-hoc:      ComputeRequest, ComputeReport

SEE ALSO:
  - handlers.go: Uses these types
  - factory/catalog.go: file types reused by ComputeRequest
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/payroll"
	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type PersonDTO struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	MaritalStatus string `json:"marital_status"`
	Active        bool   `json:"active"`
}

// MonthDTO is a computed person-month.
type MonthDTO struct {
	RunID       string          `json:"run_id"`
	Person      PersonDTO       `json:"person"`
	Month       string          `json:"month"`
	MinimumWage string          `json:"minimum_wage"`
	ComputedAt  string          `json:"computed_at"`
	Days        []DayDTO        `json:"days"`
	Totals      TotalsDTO       `json:"totals"`
	Diagnostics []DiagnosticDTO `json:"diagnostics"`
}

type DayDTO struct {
	Date       string            `json:"date"`
	Key        string            `json:"key"`
	Weekday    string            `json:"weekday"`
	HebrewDate string            `json:"hebrew_date"`
	Buckets    map[string]string `json:"buckets"`

	// PreviousMonth is set on the workday before the 1st.
	PreviousMonth bool `json:"previous_month,omitempty"`

	Chains    []ChainDTO            `json:"chains"`
	Fixed     []FixedRowDTO         `json:"fixed,omitempty"`
	Standby   []StandbyRowDTO       `json:"standby,omitempty"`
	Cancelled []CancelledStandbyDTO `json:"cancelled_standby,omitempty"`

	Tiers           map[string]string `json:"tiers"`
	Other           string            `json:"other"`
	StandbyHours    string            `json:"standby_hours"`
	VacationHours   string            `json:"vacation_hours"`
	SickHours       string            `json:"sick_hours"`
	WorkPayment     string            `json:"work_payment"`
	StandbyPayment  string            `json:"standby_payment"`
	VacationPayment string            `json:"vacation_payment"`
	SickPayment     string            `json:"sick_payment"`
	Payment         string            `json:"payment"`
	SickDay         int               `json:"sick_day,omitempty"`
	CarryOut        string            `json:"carry_out,omitempty"`
}

type ChainDTO struct {
	Start           string            `json:"start"`
	End             string            `json:"end"`
	Hours           string            `json:"hours"`
	CarriedIn       string            `json:"carried_in,omitempty"`
	Rate            string            `json:"rate"`
	Rows            []LadderRowDTO    `json:"rows"`
	Tiers           map[string]string `json:"tiers"`
	Payment         string            `json:"payment"`
	Apartments      []string          `json:"apartments"`
	Shifts          []string          `json:"shifts"`
	BreakReason     string            `json:"break_reason"`
	FromPreviousDay bool              `json:"from_previous_day"`
	CarriesOver     bool              `json:"carries_over"`
}

type LadderRowDTO struct {
	Tier    string `json:"tier"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Hours   string `json:"hours"`
	Sabbath bool   `json:"sabbath"`
	Payment string `json:"payment"`
}

type FixedRowDTO struct {
	Kind        string `json:"kind"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Hours       string `json:"hours"`
	WagePercent int    `json:"wage_percent"`
	Rate        string `json:"rate"`
	Payment     string `json:"payment"`
	Shift       string `json:"shift"`
	Apartment   string `json:"apartment"`
	SickDay     int    `json:"sick_day,omitempty"`
}

type StandbyRowDTO struct {
	Start        string `json:"start"`
	End          string `json:"end"`
	Hours        string `json:"hours"`
	SegmentID    int64  `json:"segment_id"`
	Apartment    string `json:"apartment"`
	Shift        string `json:"shift"`
	Payment      string `json:"payment"`
	MissingRate  bool   `json:"missing_rate"`
	Continuation bool   `json:"continuation,omitempty"`
}

type CancelledStandbyDTO struct {
	Start          string `json:"start"`
	End            string `json:"end"`
	Hours          string `json:"hours"`
	OverlapHours   string `json:"overlap_hours"`
	OverlapPercent int    `json:"overlap_percent"`
	Apartment      string `json:"apartment"`
	Reason         string `json:"reason"`
}

type TotalsDTO struct {
	Calc100         string `json:"calc100"`
	Calc125         string `json:"calc125"`
	Calc150         string `json:"calc150"`
	Calc175         string `json:"calc175"`
	Calc200         string `json:"calc200"`
	CalcOther       string `json:"calc_other"`
	Payment         string `json:"payment"`
	StandbyHours    string `json:"standby_hours"`
	StandbyPayment  string `json:"standby_payment"`
	VacationHours   string `json:"vacation_hours"`
	VacationPayment string `json:"vacation_payment"`
	SickHours       string `json:"sick_hours"`
	SickPayment     string `json:"sick_payment"`
	Travel          string `json:"travel"`
	Extras          string `json:"extras"`
	TotalPayment    string `json:"total_payment"`
}

type DiagnosticDTO struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	ReportID int64  `json:"report_id,omitempty"`
	Date     string `json:"date,omitempty"`
	Message  string `json:"message"`
}

// SummaryDTO is a bulk month run.
type SummaryDTO struct {
	Month string          `json:"month"`
	Rows  []SummaryRowDTO `json:"rows"`
}

type SummaryRowDTO struct {
	Person      PersonDTO  `json:"person"`
	RunID       string     `json:"run_id,omitempty"`
	Totals      *TotalsDTO `json:"totals,omitempty"`
	Diagnostics int        `json:"diagnostics"`
	Error       string     `json:"error,omitempty"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ComputeRequest runs the engine on data supplied in the body instead of the
// store. Shift types, rates and Sabbath times use the catalog file formats.
type ComputeRequest struct {
	PersonID     int64                      `json:"person_id"`
	Year         int                        `json:"year"`
	Month        int                        `json:"month"`
	MinimumWage  string                     `json:"minimum_wage"`
	ShiftTypes   []factory.ShiftTypeFile    `json:"shift_types"`
	Reports      []ComputeReport            `json:"reports"`
	StandbyRates []factory.StandbyRateFile  `json:"standby_rates"`
	ShabbatTimes map[string]calendar.Window `json:"shabbat_times"`
	Travel       string                     `json:"travel,omitempty"`
	Extras       string                     `json:"extras,omitempty"`
}

// ComputeReport is a report with its joined attributes inlined.
type ComputeReport struct {
	factory.ReportFile
	ApartmentName   string `json:"apartment_name,omitempty"`
	ApartmentTypeID int64  `json:"apartment_type_id,omitempty"`
	MaritalStatus   string `json:"marital_status,omitempty"`
}

// =============================================================================
// CONVERSION
// =============================================================================

func toPersonDTO(p payroll.Person) PersonDTO {
	return PersonDTO{ID: int64(p.ID), Name: p.Name, MaritalStatus: p.MaritalStatus, Active: p.Active}
}

// NewMonthDTO renders a run the way the HTTP API returns it.
func NewMonthDTO(run *payroll.Run) MonthDTO {
	res := run.Result
	out := MonthDTO{
		RunID:       run.ID,
		Person:      toPersonDTO(run.Person),
		Month:       res.Month.String(),
		MinimumWage: moneyString(run.MinimumWage),
		ComputedAt:  run.ComputedAt.Format(time.RFC3339),
		Days:        make([]DayDTO, 0, len(res.Days)),
		Totals:      toTotalsDTO(res.Totals),
		Diagnostics: make([]DiagnosticDTO, 0, len(res.Diagnostics)),
	}
	for _, d := range res.Days {
		out.Days = append(out.Days, toDayDTO(d))
	}
	for _, d := range res.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, toDiagnosticDTO(d))
	}
	return out
}

func toDayDTO(d wage.DayResult) DayDTO {
	out := DayDTO{
		Date:            calendar.ISODate(d.Date),
		Key:             d.Key,
		Weekday:         d.Weekday,
		HebrewDate:      d.HebrewDate,
		Buckets:         make(map[string]string, len(d.Buckets)),
		Chains:          make([]ChainDTO, 0, len(d.Chains)),
		Tiers:           tierHours(d.TierMinutes),
		Other:           calendar.FormatDuration(d.OtherMinutes),
		StandbyHours:    calendar.FormatDuration(d.StandbyMinutes),
		VacationHours:   calendar.FormatDuration(d.VacationMinutes),
		SickHours:       calendar.FormatDuration(d.SickMinutes),
		WorkPayment:     moneyString(d.WorkPayment),
		StandbyPayment:  moneyString(d.StandbyPayment),
		VacationPayment: moneyString(d.VacationPayment),
		SickPayment:     moneyString(d.SickPayment),
		Payment:         moneyString(d.Payment),
		SickDay:         d.SickDay,
		PreviousMonth:   d.PreviousMonth,
	}
	if d.CarryOut > 0 {
		out.CarryOut = calendar.FormatDuration(d.CarryOut)
	}
	for label, minutes := range d.Buckets {
		out.Buckets[label] = calendar.FormatDuration(minutes)
	}

	for _, c := range d.Chains {
		out.Chains = append(out.Chains, toChainDTO(c))
	}
	for _, f := range d.Fixed {
		out.Fixed = append(out.Fixed, FixedRowDTO{
			Kind:        string(f.Kind),
			Start:       f.Start.Clock(),
			End:         f.End.Clock(),
			Hours:       calendar.FormatDuration(f.Minutes),
			WagePercent: f.WagePercent,
			Rate:        moneyString(f.Rate),
			Payment:     moneyString(f.Payment),
			Shift:       f.ShiftName,
			Apartment:   f.ApartmentName,
			SickDay:     f.SickDay,
		})
	}
	for _, s := range d.Standby {
		out.Standby = append(out.Standby, StandbyRowDTO{
			Start:        s.Start.Clock(),
			End:          s.End.Clock(),
			Hours:        calendar.FormatDuration(s.Minutes),
			SegmentID:    int64(s.SegmentID),
			Apartment:    s.ApartmentName,
			Shift:        s.ShiftName,
			Payment:      moneyString(s.Payment),
			MissingRate:  s.MissingRate,
			Continuation: s.Continuation,
		})
	}
	for _, c := range d.Cancelled {
		out.Cancelled = append(out.Cancelled, CancelledStandbyDTO{
			Start:          c.Start.Clock(),
			End:            c.End.Clock(),
			Hours:          calendar.FormatDuration(c.Minutes),
			OverlapHours:   calendar.FormatDuration(c.OverlapMinutes),
			OverlapPercent: c.OverlapPercent,
			Apartment:      c.ApartmentName,
			Reason:         c.Reason,
		})
	}
	return out
}

func toChainDTO(c wage.Chain) ChainDTO {
	out := ChainDTO{
		Start:           c.Start.Clock(),
		End:             c.End.Clock(),
		Hours:           calendar.FormatDuration(c.Minutes),
		Rate:            moneyString(c.Rate),
		Rows:            make([]LadderRowDTO, 0, len(c.Rows)),
		Tiers:           tierHours(c.TierMinutes),
		Payment:         moneyString(c.Payment),
		Apartments:      c.Apartments,
		Shifts:          c.Shifts,
		BreakReason:     string(c.BreakReason),
		FromPreviousDay: c.FromPreviousDay,
		CarriesOver:     c.CarriesOver,
	}
	if c.Offset > 0 {
		out.CarriedIn = calendar.FormatDuration(c.Offset)
	}
	for _, r := range c.Rows {
		out.Rows = append(out.Rows, LadderRowDTO{
			Tier:    r.Tier.Label(),
			Start:   r.Start.Clock(),
			End:     r.End.Clock(),
			Hours:   calendar.FormatDuration(r.Minutes),
			Sabbath: r.Sabbath,
			Payment: moneyString(r.Payment),
		})
	}
	return out
}

func toTotalsDTO(t wage.MonthlyTotals) TotalsDTO {
	return TotalsDTO{
		Calc100:         calendar.FormatDuration(t.Calc100),
		Calc125:         calendar.FormatDuration(t.Calc125),
		Calc150:         calendar.FormatDuration(t.Calc150),
		Calc175:         calendar.FormatDuration(t.Calc175),
		Calc200:         calendar.FormatDuration(t.Calc200),
		CalcOther:       calendar.FormatDuration(t.CalcOther),
		Payment:         moneyString(t.Payment),
		StandbyHours:    calendar.FormatDuration(t.StandbyMinutes),
		StandbyPayment:  moneyString(t.StandbyPayment),
		VacationHours:   calendar.FormatDuration(t.VacationMinutes),
		VacationPayment: moneyString(t.VacationPayment),
		SickHours:       calendar.FormatDuration(t.SickMinutes),
		SickPayment:     moneyString(t.SickPayment),
		Travel:          moneyString(t.Travel),
		Extras:          moneyString(t.Extras),
		TotalPayment:    moneyString(t.TotalPayment),
	}
}

func toDiagnosticDTO(d wage.Diagnostic) DiagnosticDTO {
	out := DiagnosticDTO{
		Code:     string(d.Code),
		Severity: string(d.Severity),
		ReportID: int64(d.ReportID),
		Message:  d.Message,
	}
	if !d.Date.IsZero() {
		out.Date = calendar.ISODate(d.Date)
	}
	return out
}

func toSummaryDTO(month calendar.Month, rows []payroll.Summary) SummaryDTO {
	out := SummaryDTO{Month: month.String(), Rows: make([]SummaryRowDTO, 0, len(rows))}
	for _, r := range rows {
		row := SummaryRowDTO{Person: toPersonDTO(r.Person), RunID: r.RunID, Diagnostics: r.Diagnostics}
		if r.Err != nil {
			row.Error = r.Err.Error()
		} else {
			totals := toTotalsDTO(r.Totals)
			row.Totals = &totals
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// tierHours renders every tier, zero included, so clients see a fixed shape.
func tierHours(m map[wage.Tier]int) map[string]string {
	out := make(map[string]string, len(wage.Tiers()))
	for _, t := range wage.Tiers() {
		out[t.Label()] = calendar.FormatDuration(m[t])
	}
	return out
}

func moneyString(d decimal.Decimal) string { return d.StringFixed(2) }
