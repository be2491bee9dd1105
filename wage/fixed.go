package wage

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/wage-engine/calendar"
)

// =============================================================================
// FIXED SEGMENTS - Reinforcement, vacation and sick rows
// =============================================================================

type FixedKind string

const (
	FixedWork     FixedKind = "work"
	FixedVacation FixedKind = "vacation"
	FixedSick     FixedKind = "sick"
)

// FixedRow is one template segment paid directly, outside any chain.
type FixedRow struct {
	Kind          FixedKind
	Start         calendar.Minute
	End           calendar.Minute
	Minutes       int
	WagePercent   int
	Rate          decimal.Decimal // hourly rate the percent applies to
	Payment       decimal.Decimal
	ShiftName     string
	ApartmentName string
	SickDay       int // position in the sick sequence, sick rows only
}

// fixedRows prices fixed work at its declared percent of the shift rate,
// vacation at the minimum wage and sick leave at the sequence percent of the
// minimum wage.
func fixedRows(work []Work, leave []Interval, minimumWage decimal.Decimal, policy Policy, sickDay int) []FixedRow {
	rows := make([]FixedRow, 0, len(work)+len(leave))
	for _, w := range work {
		rows = append(rows, FixedRow{
			Kind:          FixedWork,
			Start:         w.Start,
			End:           w.End,
			Minutes:       w.Minutes(),
			WagePercent:   w.WagePercent,
			Rate:          w.HourlyRate,
			Payment:       hourlyPay(w.HourlyRate, w.WagePercent, w.Minutes()),
			ShiftName:     w.ShiftName,
			ApartmentName: w.ApartmentName,
		})
	}
	for _, iv := range leave {
		span, meta := iv.Bounds(), iv.Info()
		row := FixedRow{
			Start:         span.Start,
			End:           span.End,
			Minutes:       span.Minutes(),
			Rate:          minimumWage,
			ShiftName:     meta.ShiftName,
			ApartmentName: meta.ApartmentName,
		}
		switch iv.(type) {
		case Vacation:
			row.Kind = FixedVacation
			row.WagePercent = 100
		case Sick:
			row.Kind = FixedSick
			row.SickDay = sickDay
			row.WagePercent = policy.SickPercent(sickDay)
		default:
			continue
		}
		row.Payment = hourlyPay(minimumWage, row.WagePercent, row.Minutes)
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Start < rows[j].Start })
	return rows
}

// =============================================================================
// SICK SEQUENCE
// =============================================================================

// sickSequence numbers every workday carrying sick leave by its position in
// a run of consecutive sick days. A gap of more than one day restarts at 1.
func sickSequence(days []Day) map[string]int {
	seq := make(map[string]int)
	var (
		prev time.Time
		n    int
	)
	for _, d := range days {
		if !hasSick(d) {
			continue
		}
		if n > 0 && calendar.DaysBetween(prev, d.Date) == 1 {
			n++
		} else {
			n = 1
		}
		seq[d.Key] = n
		prev = d.Date
	}
	return seq
}

func hasSick(d Day) bool {
	for _, iv := range d.Intervals {
		if _, ok := iv.(Sick); ok {
			return true
		}
	}
	return false
}
