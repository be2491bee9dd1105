package wage

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/shift"
)

// =============================================================================
// STANDBY RECONCILIATION
// =============================================================================

// StandbyRow is one payable standby block, billed once however many
// fragments remain after trimming.
type StandbyRow struct {
	Start         calendar.Minute
	End           calendar.Minute
	Minutes       int    // payable minutes after trimming
	Fragments     []Span // non-overlapping remainders
	SegmentID     shift.SegmentID
	WagePercent   int
	ApartmentName string
	ShiftName     string
	ReportID      ReportID
	Payment       decimal.Decimal
	MissingRate   bool
	Fixed         bool

	// Continuation marks the part of a block billed in the previous workday
	// that ran past 08:00. It carries minutes but no payment.
	Continuation bool
}

// standbyTail identifies a block that ended at a workday boundary.
type standbyTail struct {
	end     calendar.Minute
	report  ReportID
	segment shift.SegmentID
}

func (t standbyTail) continues(b standbyBlock, day Day) bool {
	return t.end == day.Start() && b.Start == t.end &&
		t.report == b.ReportID && t.segment == b.SegmentID
}

// CancelledStandby records a block dropped for overlapping work.
type CancelledStandby struct {
	Start          calendar.Minute
	End            calendar.Minute
	Minutes        int
	OverlapMinutes int
	OverlapPercent int
	SegmentID      shift.SegmentID
	ApartmentName  string
	Reason         string
}

func (s Standby) rateKey() StandbyKey {
	return StandbyKey{SegmentID: s.SegmentID, ApartmentTypeID: s.ApartmentTypeID, MaritalStatus: s.MaritalStatus}
}

type standbyBlock struct {
	Standby
	fragments []Span
}

func (b standbyBlock) payableMinutes() int {
	total := 0
	for _, f := range b.fragments {
		total += f.Minutes()
	}
	return total
}

// mergeStandby joins adjacent or overlapping standby intervals that share a
// rate key into blocks. Intervals priced under different keys stay separate.
func mergeStandby(standby []Standby) []Standby {
	if len(standby) == 0 {
		return nil
	}
	var out []Standby
	for _, s := range standby {
		if n := len(out); n > 0 && s.Start <= out[n-1].End && s.rateKey() == out[n-1].rateKey() {
			out[n-1].End = max(out[n-1].End, s.End)
			continue
		}
		out = append(out, s)
	}
	return out
}

// reconcileStandby cancels blocks whose work overlap reaches cancelPercent
// of their length and trims every other block to the minutes no work covers.
// work must be sorted and disjoint.
func reconcileStandby(standby []Standby, work []Span, cancelPercent int) ([]standbyBlock, []CancelledStandby) {
	var (
		payable   []standbyBlock
		cancelled []CancelledStandby
	)
	for _, s := range mergeStandby(standby) {
		length := s.Minutes()
		overlap := overlapTotal(s.Span, work)

		if overlap*100 >= cancelPercent*length {
			pct := overlap * 100 / length
			cancelled = append(cancelled, CancelledStandby{
				Start:          s.Start,
				End:            s.End,
				Minutes:        length,
				OverlapMinutes: overlap,
				OverlapPercent: pct,
				SegmentID:      s.SegmentID,
				ApartmentName:  s.ApartmentName,
				Reason:         fmt.Sprintf("overlaps work for %d%% of the block (threshold %d%%)", pct, cancelPercent),
			})
			continue
		}

		fragments := []Span{s.Span}
		if overlap > 0 {
			fragments = subtractSpans(s.Span, work)
		}
		payable = append(payable, standbyBlock{Standby: s, fragments: fragments})
	}
	return payable, cancelled
}

// billStandby prices payable blocks through the rate resolver. A block that
// continues one of prev across 08:00 was already billed and is not priced
// again.
func billStandby(blocks []standbyBlock, rates StandbyRates, day Day, prev []standbyTail, diag *diagnostics) []StandbyRow {
	if rates == nil {
		rates = NoStandbyRates{}
	}
	rows := make([]StandbyRow, 0, len(blocks))
	for _, b := range blocks {
		row := StandbyRow{
			Start:         b.Start,
			End:           b.End,
			Minutes:       b.payableMinutes(),
			Fragments:     b.fragments,
			SegmentID:     b.SegmentID,
			WagePercent:   b.WagePercent,
			ApartmentName: b.ApartmentName,
			ShiftName:     b.ShiftName,
			ReportID:      b.ReportID,
			Payment:       decimal.Zero,
			Fixed:         b.Fixed,
		}
		if continuesAny(prev, b, day) {
			row.Continuation = true
			rows = append(rows, row)
			continue
		}
		if rate, ok := rates.StandbyRate(b.rateKey()); ok {
			row.Payment = rate
		} else {
			row.MissingRate = true
			diag.warn(CodeMissingStandbyRate, b.ReportID, day.Date,
				"no standby rate for segment %d, apartment type %d, marital status %q",
				b.SegmentID, b.ApartmentTypeID, b.MaritalStatus)
		}
		rows = append(rows, row)
	}
	return rows
}

func continuesAny(prev []standbyTail, b standbyBlock, day Day) bool {
	for _, t := range prev {
		if t.continues(b, day) {
			return true
		}
	}
	return false
}

// standbyTails returns the billed rows that reach the end of the workday.
func standbyTails(rows []StandbyRow, day Day) []standbyTail {
	var out []standbyTail
	for _, r := range rows {
		if r.End == day.Boundary() {
			out = append(out, standbyTail{end: r.End, report: r.ReportID, segment: r.SegmentID})
		}
	}
	return out
}
