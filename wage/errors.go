/*
errors.go - Errors and diagnostics of the wage engine

PURPOSE:
  Two channels, never mixed:

  1. Errors - returned only for caller contract violations (bad period,
     missing minimum wage, missing Sabbath calendar). The run does not start.

  2. Diagnostics - data-quality findings on individual reports or days
     (malformed clock, unknown shift type, missing standby rate). The report
     or row is skipped or zero-paid, the run completes, and the finding is
     returned alongside the result.

USAGE:
  res, err := engine.ComputeMonth(in)
  if wage.IsClientError(err) { ... 400 ... }
  for _, d := range res.Diagnostics { ... log ... }

SEE ALSO:
  - monthly.go: input validation
  - builder.go, chain.go, standby.go: emit diagnostics
*/
package wage

import (
	"errors"
	"fmt"
	"time"

	"github.com/warp/wage-engine/calendar"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when the requested year/month is out of range.
	ErrInvalidPeriod = calendar.ErrInvalidPeriod

	// ErrInvalidMinimumWage is returned when the minimum wage is zero or negative.
	ErrInvalidMinimumWage = errors.New("minimum wage must be positive")

	// ErrMissingCalendar is returned when no Sabbath calendar is supplied.
	ErrMissingCalendar = errors.New("sabbath calendar required")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InputError names the offending input field.
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input %s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidMinimumWage) ||
		errors.Is(err, ErrMissingCalendar)
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// DiagnosticCode classifies a data-quality finding.
type DiagnosticCode string

const (
	CodeMissingTimes       DiagnosticCode = "missing_times"
	CodeMalformedTime      DiagnosticCode = "malformed_time"
	CodeMissingShiftType   DiagnosticCode = "missing_shift_type"
	CodeUnknownShiftType   DiagnosticCode = "unknown_shift_type"
	CodeOutsideMonth       DiagnosticCode = "outside_month"
	CodeOverlappingWork    DiagnosticCode = "overlapping_work"
	CodeMissingStandbyRate DiagnosticCode = "missing_standby_rate"
	CodeStandbyCancelled   DiagnosticCode = "standby_cancelled"
	CodeCarryoverDiscarded DiagnosticCode = "carryover_discarded"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one finding attached to a report or a day.
type Diagnostic struct {
	Code     DiagnosticCode `json:"code"`
	Severity Severity       `json:"severity"`
	ReportID ReportID       `json:"report_id,omitempty"`
	Date     time.Time      `json:"date"`
	Message  string         `json:"message"`
}

func (d Diagnostic) String() string {
	if d.ReportID != 0 {
		return fmt.Sprintf("%s [%s] report %d on %s: %s", d.Severity, d.Code, d.ReportID, calendar.ISODate(d.Date), d.Message)
	}
	return fmt.Sprintf("%s [%s] on %s: %s", d.Severity, d.Code, calendar.ISODate(d.Date), d.Message)
}

// diagnostics accumulates findings for one run.
type diagnostics struct {
	items []Diagnostic
}

func (d *diagnostics) warn(code DiagnosticCode, report ReportID, date time.Time, format string, args ...any) {
	d.add(SeverityWarning, code, report, date, format, args...)
}

func (d *diagnostics) info(code DiagnosticCode, report ReportID, date time.Time, format string, args ...any) {
	d.add(SeverityInfo, code, report, date, format, args...)
}

func (d *diagnostics) add(sev Severity, code DiagnosticCode, report ReportID, date time.Time, format string, args ...any) {
	d.items = append(d.items, Diagnostic{
		Code:     code,
		Severity: sev,
		ReportID: report,
		Date:     date,
		Message:  fmt.Sprintf(format, args...),
	})
}
