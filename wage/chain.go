/*
chain.go - Chains, the overtime ladder and carryover

PURPOSE:
  A chain is a maximal run of work within one workday. The progressive
  ladder (100% for 8h, 125% to 10h, 150% after; +50 points on Sabbath) is
  applied per chain, minute by minute, starting from the chain's offset.

CHAIN CLOSES WHEN:
  - the gap since the last work minute exceeds Policy.BreakThreshold
  - a standby, vacation or sick event that overlaps no work occurs
  - the workday ends

CARRYOVER:
  A chain ending exactly at the workday boundary (08:00 next day) passes its
  total length, offset included, to the next workday. The next workday's
  first chain starts its ladder from that offset when the two days are
  calendar-adjacent and the chain starts at 08:00. Otherwise the carry is
  dropped with a diagnostic.

SEE ALSO:
  - tier.go: LadderTier
  - day.go: computeDay drives chain building
*/
package wage

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/wage-engine/calendar"
)

// BreakReason tells why a chain closed.
type BreakReason string

const (
	BreakGap      BreakReason = "gap"
	BreakStandby  BreakReason = "standby"
	BreakVacation BreakReason = "vacation"
	BreakSick     BreakReason = "sick"
	BreakEndOfDay BreakReason = "end_of_day"
)

// LadderRow is a homogeneous run of chain minutes sharing one tier.
type LadderRow struct {
	Tier    Tier
	Start   calendar.Minute
	End     calendar.Minute
	Minutes int
	Sabbath bool
	Payment decimal.Decimal
}

// Chain is one priced run of work.
type Chain struct {
	Start   calendar.Minute
	End     calendar.Minute
	Minutes int // worked minutes, offset excluded
	Offset  int // minutes carried in from the previous workday

	Rate        decimal.Decimal
	Rows        []LadderRow
	TierMinutes map[Tier]int
	Payment     decimal.Decimal

	Apartments      []string
	Shifts          []string
	BreakReason     BreakReason
	FromPreviousDay bool
	CarriesOver     bool
}

// Total returns the chain's ladder length including its offset.
func (c Chain) Total() int { return c.Offset + c.Minutes }

// carry is a pending chain length at a workday boundary.
type carry struct {
	date    time.Time
	minutes int

	// standby lists billed blocks that ran up to the workday boundary.
	standby []standbyTail
}

type chainDraft struct {
	pieces []Work
	end    calendar.Minute
	reason BreakReason
}

type timelineEvent struct {
	span   Span
	work   *Work
	reason BreakReason
}

// draftChains walks the day's events in start order. work excludes fixed
// work; breakers are payable standby fragments plus vacation and sick
// intervals; covered is the merged span list of all work that day.
func draftChains(work []Work, breakers []timelineEvent, covered []Span, threshold int, day Day, diag *diagnostics) []chainDraft {
	events := make([]timelineEvent, 0, len(work)+len(breakers))
	for i := range work {
		events = append(events, timelineEvent{span: work[i].Span, work: &work[i]})
	}
	events = append(events, breakers...)
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].span.Start != events[j].span.Start {
			return events[i].span.Start < events[j].span.Start
		}
		return events[i].work != nil && events[j].work == nil
	})

	var (
		drafts   []chainDraft
		cur      *chainDraft
		workedTo calendar.Minute
		seenWork bool
	)
	closeChain := func(reason BreakReason) {
		if cur == nil {
			return
		}
		cur.reason = reason
		drafts = append(drafts, *cur)
		cur = nil
	}

	for _, ev := range events {
		if ev.work == nil {
			if overlapTotal(ev.span, covered) > 0 {
				continue
			}
			closeChain(ev.reason)
			continue
		}

		w := *ev.work
		if seenWork && w.Start < workedTo {
			diag.warn(CodeOverlappingWork, w.ReportID, day.Date,
				"work %s-%s overlaps earlier work until %s", w.Start.Clock(), w.End.Clock(), workedTo.Clock())
			if w.End <= workedTo {
				continue
			}
			w.Start = workedTo
		}
		seenWork = true
		workedTo = w.End

		if cur != nil && int(w.Start-cur.end) > threshold {
			closeChain(BreakGap)
		}
		if cur == nil {
			cur = &chainDraft{}
		}
		cur.pieces = append(cur.pieces, w)
		cur.end = w.End
	}
	closeChain(BreakEndOfDay)
	return drafts
}

// priceChain walks the chain minute by minute against the ladder and the
// Sabbath calendar, merging equal-tier minutes into rows.
func priceChain(d chainDraft, offset int, sabbath calendar.Sabbath) Chain {
	first := d.pieces[0]
	c := Chain{
		Start:       first.Start,
		End:         d.end,
		Offset:      offset,
		Rate:        first.HourlyRate,
		TierMinutes: make(map[Tier]int),
		Payment:     decimal.Zero,
		BreakReason: d.reason,
	}

	pos := offset
	for _, w := range d.pieces {
		c.Apartments = appendUnique(c.Apartments, w.ApartmentName)
		c.Shifts = appendUnique(c.Shifts, w.ShiftName)
		for m := w.Start; m < w.End; m++ {
			sab := sabbath.IsSabbath(m)
			tier := LadderTier(pos, sab)
			if n := len(c.Rows); n > 0 && c.Rows[n-1].End == m && c.Rows[n-1].Tier == tier && c.Rows[n-1].Sabbath == sab {
				c.Rows[n-1].End++
			} else {
				c.Rows = append(c.Rows, LadderRow{Tier: tier, Start: m, End: m + 1, Sabbath: sab})
			}
			pos++
		}
	}

	for i := range c.Rows {
		r := &c.Rows[i]
		r.Minutes = int(r.End - r.Start)
		r.Payment = hourlyPay(c.Rate, int(r.Tier), r.Minutes)
		c.TierMinutes[r.Tier] += r.Minutes
		c.Minutes += r.Minutes
		c.Payment = c.Payment.Add(r.Payment)
	}
	return c
}

func appendUnique(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// applyCarry decides whether the pending carry continues into this day's
// first chain draft.
func applyCarry(in carry, drafts []chainDraft, day Day, diag *diagnostics) int {
	if in.minutes <= 0 {
		return 0
	}
	switch {
	case calendar.DaysBetween(in.date, day.Date) != 1:
		diag.info(CodeCarryoverDiscarded, 0, day.Date,
			"%d carried minutes from %s dropped: days are not adjacent", in.minutes, calendar.ISODate(in.date))
	case len(drafts) == 0 || drafts[0].pieces[0].Start != day.Start():
		diag.info(CodeCarryoverDiscarded, 0, day.Date,
			"%d carried minutes from %s dropped: first chain does not start at 08:00", in.minutes, calendar.ISODate(in.date))
	default:
		return in.minutes
	}
	return 0
}
