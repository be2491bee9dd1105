/*
Package wage is the wage computation engine.

PURPOSE:
  Turns one person-month of raw clock-in/clock-out reports into per-day,
  per-chain and per-month breakdowns of hours by pay tier (100/125/150/175/200%),
  with Sabbath premiums, overnight splitting, standby cancellation and
  carryover of unfinished chains across the 08:00 workday boundary.

PIPELINE:
  reports + shift types        BuildDays       -> []Day (typed intervals per workday)
  []Day + Sabbath + rates      computeDay      -> []DayResult (chains, fixed rows, standby)
  []DayResult + travel/extras  Aggregate       -> MonthlyTotals

KEY CONCEPTS IN THIS FILE (types.go):
  - TimeReport: immutable input record, one clock-in/out
  - Interval: sum type of Work | Standby | Vacation | Sick minute ranges
  - Meta: report/shift/apartment attributes carried by every interval

PURITY:
  The engine performs no I/O and holds no package-level mutable state. Every
  run builds its own structures from read-only inputs, so concurrent runs for
  different people are safe and identical inputs give identical outputs.

SEE ALSO:
  - builder.go: daily aggregation
  - chain.go: chains, ladder and carryover
  - standby.go: standby reconciliation
  - monthly.go: Engine and monthly totals
*/
package wage

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/shift"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	PersonID        int64
	ReportID        int64
	ApartmentID     int64
	ApartmentTypeID int64
)

// =============================================================================
// TIME REPORT - Immutable engine input
// =============================================================================

// TimeReport is one clock-in/out record with its joined person and apartment
// attributes. Shift attributes are looked up by ShiftTypeID.
type TimeReport struct {
	ID          ReportID
	PersonID    PersonID
	Date        time.Time // calendar day the shift starts on
	StartTime   string    // HH:MM
	EndTime     string    // HH:MM, at or before StartTime means next day
	ShiftTypeID shift.TypeID

	ApartmentID     ApartmentID // zero when not tied to an apartment
	ApartmentName   string
	ApartmentTypeID ApartmentTypeID
	MaritalStatus   string

	// RateOverrideAgorot replaces the shift type's hourly rate for this
	// report when positive.
	RateOverrideAgorot int64
}

// =============================================================================
// SPAN
// =============================================================================

// Span is a half-open minute range [Start, End).
type Span struct {
	Start calendar.Minute
	End   calendar.Minute
}

func (s Span) Minutes() int { return int(s.End - s.Start) }

// Overlap returns the number of minutes shared with o.
func (s Span) Overlap(o Span) int {
	lo := max(s.Start, o.Start)
	hi := min(s.End, o.End)
	if hi <= lo {
		return 0
	}
	return int(hi - lo)
}

// mergeSpans returns the union of spans as sorted, disjoint ranges.
// Touching ranges are joined.
func mergeSpans(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}
	sorted := append([]Span(nil), spans...)
	sortSpans(sorted)

	out := []Span{sorted[0]}
	for _, s := range sorted[1:] {
		last := &out[len(out)-1]
		if s.Start <= last.End {
			last.End = max(last.End, s.End)
			continue
		}
		out = append(out, s)
	}
	return out
}

// subtractSpans returns the parts of s not covered by the disjoint, sorted cut list.
func subtractSpans(s Span, cuts []Span) []Span {
	var out []Span
	cursor := s.Start
	for _, c := range cuts {
		if c.End <= cursor || c.Start >= s.End {
			continue
		}
		if c.Start > cursor {
			out = append(out, Span{Start: cursor, End: c.Start})
		}
		cursor = max(cursor, c.End)
	}
	if cursor < s.End {
		out = append(out, Span{Start: cursor, End: s.End})
	}
	return out
}

func overlapTotal(s Span, disjoint []Span) int {
	total := 0
	for _, d := range disjoint {
		total += s.Overlap(d)
	}
	return total
}

// =============================================================================
// INTERVAL - Typed minute range within a workday
// =============================================================================

// Meta carries the attributes of the report an interval came from.
type Meta struct {
	ReportID        ReportID
	ShiftTypeID     shift.TypeID
	ShiftName       string
	Category        shift.Category
	ApartmentID     ApartmentID
	ApartmentName   string
	ApartmentTypeID ApartmentTypeID
	MaritalStatus   string
	HourlyRate      decimal.Decimal

	// Date is the actual calendar date of the interval, which differs from
	// the workday for minutes after midnight.
	Date time.Time
}

// Interval is one of Work, Standby, Vacation or Sick. The set is closed:
// consumers switch on the concrete type.
type Interval interface {
	Bounds() Span
	Info() Meta
	isInterval()
}

// Work is paid time. Fixed work belongs to a reinforcement shift and is paid
// at its declared WagePercent instead of the overtime ladder.
type Work struct {
	Span
	Meta
	WagePercent int
	SegmentID   shift.SegmentID
	Fixed       bool
}

// Standby is on-call time paid at a flat per-block rate.
type Standby struct {
	Span
	Meta
	WagePercent int
	SegmentID   shift.SegmentID
	Fixed       bool
}

// Vacation is a whole-day vacation segment.
type Vacation struct {
	Span
	Meta
}

// Sick is a whole-day sick-leave segment.
type Sick struct {
	Span
	Meta
}

func (w Work) Bounds() Span     { return w.Span }
func (s Standby) Bounds() Span  { return s.Span }
func (v Vacation) Bounds() Span { return v.Span }
func (s Sick) Bounds() Span     { return s.Span }

func (w Work) Info() Meta     { return w.Meta }
func (s Standby) Info() Meta  { return s.Meta }
func (v Vacation) Info() Meta { return v.Meta }
func (s Sick) Info() Meta     { return s.Meta }

func (Work) isInterval()     {}
func (Standby) isInterval()  {}
func (Vacation) isInterval() {}
func (Sick) isInterval()     {}

// IntervalKind names an interval's variant for display and buckets.
func IntervalKind(iv Interval) string {
	switch iv.(type) {
	case Work:
		return "work"
	case Standby:
		return "standby"
	case Vacation:
		return "vacation"
	case Sick:
		return "sick"
	}
	return ""
}

// =============================================================================
// DAY - One workday's resolved timeline
// =============================================================================

// Day is a workday (08:00 to 08:00) with its typed intervals. Intervals are
// sorted by start; minutes after midnight belong to the same workday until
// the next 08:00.
type Day struct {
	Date       time.Time
	Key        string // dd/mm/yyyy
	Weekday    string
	HebrewDate string

	// Buckets accumulate minutes per label ("100%", "standby", "vacation",
	// "sick") for quick display.
	Buckets   map[string]int
	Intervals []Interval

	// Fixed marks a day carrying fixed-segment (reinforcement, vacation,
	// sick) intervals.
	Fixed bool
}

// Boundary returns the 08:00 of the following calendar day, the end of the
// workday.
func (d Day) Boundary() calendar.Minute {
	return calendar.At(d.Date, calendar.MinutesPerDay+calendar.WorkdayBoundary)
}

// Start returns 08:00 of the workday's date.
func (d Day) Start() calendar.Minute {
	return calendar.At(d.Date, calendar.WorkdayBoundary)
}
