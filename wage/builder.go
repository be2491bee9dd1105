/*
builder.go - Daily aggregation: raw reports to typed workday timelines

PURPOSE:
  Converts a person-month of reports into one Day per workday. A workday runs
  08:00 to 08:00; minutes after midnight stay with the workday that started
  the previous morning.

STEPS PER REPORT:
  1. Validate. Reports without times, with malformed times, without a shift
     type, or dated outside the month are skipped with a diagnostic.
  2. Resolve the shift type's segments against [start, end) (shift.Resolve).
  3. Split every piece at midnight and at 08:00.
  4. Assign each sub-piece to a workday: a sub-piece ending at or before
     08:00 belongs to the previous day, unless the report itself starts at
     00:00 on that date.
  5. Tag each interval with its actual calendar date.
  6. Total the day's buckets, counting overlapping work once.

FIXED CATEGORIES:
  Reinforcement, vacation and sick pieces are kept whole on the report's
  date. They are paid per segment, never chained.

SEE ALSO:
  - shift/resolve.go: segment resolution
  - chain.go: consumes Day
*/
package wage

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/shift"
)

// BuildDays turns the month's reports into sorted workdays.
func (e Engine) BuildDays(in MonthInput) ([]Day, []Diagnostic) {
	var diag diagnostics
	days := buildDays(in, e.Policy.normalized(), &diag)
	return days, diag.items
}

type dayBuilder struct {
	in     MonthInput
	policy Policy
	diag   *diagnostics
	days   map[string]*Day
}

func buildDays(in MonthInput, policy Policy, diag *diagnostics) []Day {
	b := &dayBuilder{in: in, policy: policy, diag: diag, days: make(map[string]*Day)}

	reports := append([]TimeReport(nil), in.Reports...)
	sort.SliceStable(reports, func(i, j int) bool {
		if !reports[i].Date.Equal(reports[j].Date) {
			return reports[i].Date.Before(reports[j].Date)
		}
		if reports[i].StartTime != reports[j].StartTime {
			return reports[i].StartTime < reports[j].StartTime
		}
		return reports[i].ID < reports[j].ID
	})

	for _, r := range reports {
		b.addReport(r)
	}
	return b.sorted()
}

func (b *dayBuilder) addReport(r TimeReport) {
	date := calendar.DateOf(r.Date)
	if !b.in.Month.Contains(date) {
		b.diag.info(CodeOutsideMonth, r.ID, date, "report dated outside %s", b.in.Month)
		return
	}
	if r.StartTime == "" || r.EndTime == "" {
		b.diag.warn(CodeMissingTimes, r.ID, date, "report has no start or end time")
		return
	}
	startClock, err := calendar.ParseClock(r.StartTime)
	if err != nil {
		b.diag.warn(CodeMalformedTime, r.ID, date, "start time: %v", err)
		return
	}
	endClock, err := calendar.ParseClock(r.EndTime)
	if err != nil {
		b.diag.warn(CodeMalformedTime, r.ID, date, "end time: %v", err)
		return
	}
	if r.ShiftTypeID == 0 {
		b.diag.warn(CodeMissingShiftType, r.ID, date, "report has no shift type")
		return
	}
	st, ok := b.in.ShiftTypes[r.ShiftTypeID]
	if !ok {
		b.diag.warn(CodeUnknownShiftType, r.ID, date, "shift type %d not found", r.ShiftTypeID)
		return
	}

	s, e := calendar.Span(startClock, endClock)
	start, end := calendar.At(date, s), calendar.At(date, e)
	pieces := shift.Resolve(st, start, end)

	meta := Meta{
		ReportID:        r.ID,
		ShiftTypeID:     st.ID,
		ShiftName:       st.Name,
		Category:        st.Category,
		ApartmentID:     r.ApartmentID,
		ApartmentName:   r.ApartmentName,
		ApartmentTypeID: r.ApartmentTypeID,
		MaritalStatus:   r.MaritalStatus,
		HourlyRate:      reportRate(st, r, b.in.MinimumWage),
	}

	if st.Category.IsFixed() {
		day := b.day(date)
		day.Fixed = true
		for _, p := range pieces {
			b.place(day, p, st, meta)
		}
		return
	}

	for _, p := range pieces {
		if st.Category == shift.CategoryNight && p.Kind == shift.KindStandby && p.SegmentID == 0 {
			p.WagePercent = b.policy.NightStandbyPercent
		}
		for _, sub := range splitAtBoundaries(p) {
			b.place(b.day(workdayOf(sub, start)), sub, st, meta)
		}
	}
}

func reportRate(st shift.Type, r TimeReport, minimumWage decimal.Decimal) decimal.Decimal {
	if r.RateOverrideAgorot > 0 {
		return decimal.New(r.RateOverrideAgorot, -2)
	}
	return st.HourlyRate(minimumWage)
}

// splitAtBoundaries cuts a piece at every midnight and 08:00 it crosses.
func splitAtBoundaries(p shift.Piece) []shift.Piece {
	var out []shift.Piece
	for s := p.Start; s < p.End; {
		e := min(nextBoundary(s), p.End)
		sub := p
		sub.Start, sub.End = s, e
		out = append(out, sub)
		s = e
	}
	return out
}

func nextBoundary(m calendar.Minute) calendar.Minute {
	midnight := calendar.Midnight(m.Date())
	if cut := midnight + calendar.WorkdayBoundary; cut > m {
		return cut
	}
	return midnight + calendar.MinutesPerDay
}

// workdayOf returns the workday date of a sub-piece produced by
// splitAtBoundaries. reportStart distinguishes a genuine midnight-start
// report from the tail of an overnight shift.
func workdayOf(sub shift.Piece, reportStart calendar.Minute) time.Time {
	date := sub.Start.Date()
	endClock := int(sub.End - calendar.Midnight(date))
	if endClock > calendar.WorkdayBoundary {
		return date
	}
	if reportStart.MinuteOfDay() == 0 && reportStart.Date().Equal(date) {
		return date
	}
	return date.AddDate(0, 0, -1)
}

func (b *dayBuilder) place(day *Day, p shift.Piece, st shift.Type, meta Meta) {
	meta.Date = p.Start.Date()
	span := Span{Start: p.Start, End: p.End}

	var iv Interval
	switch {
	case st.Category == shift.CategoryVacation:
		iv = Vacation{Span: span, Meta: meta}
	case st.Category == shift.CategorySick:
		iv = Sick{Span: span, Meta: meta}
	case p.Kind == shift.KindStandby:
		iv = Standby{Span: span, Meta: meta, WagePercent: p.WagePercent, SegmentID: p.SegmentID, Fixed: st.Category.IsFixed()}
	default:
		iv = Work{Span: span, Meta: meta, WagePercent: p.WagePercent, SegmentID: p.SegmentID, Fixed: st.Category.IsFixed()}
	}

	day.Intervals = append(day.Intervals, iv)
}

// fillBuckets totals the sorted intervals by label. Chained work already
// covered by earlier chained work counts once, matching the trim applied when
// chains are drafted. Fixed rows are paid in full and counted in full.
func fillBuckets(d *Day) {
	var workedTo calendar.Minute
	seen := false
	for _, iv := range d.Intervals {
		minutes := iv.Bounds().Minutes()
		if w, ok := iv.(Work); ok && !w.Fixed {
			start := w.Start
			if seen && start < workedTo {
				start = min(workedTo, w.End)
			}
			minutes = int(w.End - start)
			workedTo = max(workedTo, w.End)
			seen = true
		}
		if minutes > 0 {
			d.Buckets[bucketLabel(iv)] += minutes
		}
	}
}

func bucketLabel(iv Interval) string {
	if w, ok := iv.(Work); ok {
		return fmt.Sprintf("%d%%", w.WagePercent)
	}
	return IntervalKind(iv)
}

func (b *dayBuilder) day(date time.Time) *Day {
	key := calendar.DayKey(date)
	if d, ok := b.days[key]; ok {
		return d
	}
	d := &Day{
		Date:       date,
		Key:        key,
		Weekday:    calendar.HebrewWeekday(date),
		HebrewDate: calendar.HebrewDate(date),
		Buckets:    make(map[string]int),
	}
	b.days[key] = d
	return d
}

func (b *dayBuilder) sorted() []Day {
	out := make([]Day, 0, len(b.days))
	for _, d := range b.days {
		sortIntervals(d.Intervals)
		fillBuckets(d)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// =============================================================================
// ORDERING
// =============================================================================

func kindRank(iv Interval) int {
	switch iv.(type) {
	case Work:
		return 0
	case Standby:
		return 1
	case Vacation:
		return 2
	case Sick:
		return 3
	}
	return 4
}

func sortIntervals(ivs []Interval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		a, b := ivs[i].Bounds(), ivs[j].Bounds()
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if ri, rj := kindRank(ivs[i]), kindRank(ivs[j]); ri != rj {
			return ri < rj
		}
		return ivs[i].Info().ReportID < ivs[j].Info().ReportID
	})
}

func sortSpans(spans []Span) {
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
}
