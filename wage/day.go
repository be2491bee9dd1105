package wage

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/wage-engine/calendar"
)

// DayResult is the priced outcome of one workday.
type DayResult struct {
	Date       time.Time
	Key        string
	Weekday    string
	HebrewDate string
	Buckets    map[string]int

	Chains    []Chain
	Fixed     []FixedRow
	Standby   []StandbyRow
	Cancelled []CancelledStandby

	// TierMinutes counts chain minutes and fixed work at a ladder percent.
	// OtherMinutes holds fixed work at any other percent.
	TierMinutes  map[Tier]int
	OtherMinutes int

	StandbyMinutes  int
	VacationMinutes int
	SickMinutes     int

	WorkPayment     decimal.Decimal
	StandbyPayment  decimal.Decimal
	VacationPayment decimal.Decimal
	SickPayment     decimal.Decimal
	Payment         decimal.Decimal

	SickDay  int // position in the sick sequence, zero when not sick
	CarryOut int // minutes carried to the next workday

	// PreviousMonth marks the workday before the 1st, holding the early
	// morning of a report dated on the 1st. Its pay counts in this month.
	PreviousMonth bool
}

type dayContext struct {
	policy      Policy
	sabbath     calendar.Sabbath
	minimumWage decimal.Decimal
	rates       StandbyRates
	diag        *diagnostics
}

// computeDay reconciles standby, builds and prices chains, then prices
// fixed and standby rows. It returns the carry for the next workday.
func (c dayContext) computeDay(day Day, in carry, sickDay int) (DayResult, carry) {
	var (
		chainWork []Work
		fixedWork []Work
		standby   []Standby
		leave     []Interval
		allWork   []Span
	)
	for _, iv := range day.Intervals {
		switch v := iv.(type) {
		case Work:
			allWork = append(allWork, v.Span)
			if v.Fixed {
				fixedWork = append(fixedWork, v)
			} else {
				chainWork = append(chainWork, v)
			}
		case Standby:
			standby = append(standby, v)
		case Vacation, Sick:
			leave = append(leave, iv)
		}
	}

	covered := mergeSpans(allWork)
	blocks, cancelled := reconcileStandby(standby, covered, c.policy.StandbyCancelPercent)
	for _, cs := range cancelled {
		c.diag.info(CodeStandbyCancelled, 0, day.Date, "standby %s-%s cancelled: %s", cs.Start.Clock(), cs.End.Clock(), cs.Reason)
	}

	var breakers []timelineEvent
	for _, b := range blocks {
		for _, f := range b.fragments {
			breakers = append(breakers, timelineEvent{span: f, reason: BreakStandby})
		}
	}
	for _, iv := range leave {
		reason := BreakVacation
		if _, ok := iv.(Sick); ok {
			reason = BreakSick
		}
		breakers = append(breakers, timelineEvent{span: iv.Bounds(), reason: reason})
	}

	drafts := draftChains(chainWork, breakers, covered, c.policy.BreakThreshold, day, c.diag)
	offset := applyCarry(in, drafts, day, c.diag)

	res := DayResult{
		Date:            day.Date,
		Key:             day.Key,
		Weekday:         day.Weekday,
		HebrewDate:      day.HebrewDate,
		Buckets:         day.Buckets,
		Cancelled:       cancelled,
		TierMinutes:     make(map[Tier]int),
		WorkPayment:     decimal.Zero,
		StandbyPayment:  decimal.Zero,
		VacationPayment: decimal.Zero,
		SickPayment:     decimal.Zero,
		SickDay:         sickDay,
	}

	for i, d := range drafts {
		o := 0
		if i == 0 {
			o = offset
		}
		ch := priceChain(d, o, c.sabbath)
		ch.FromPreviousDay = o > 0
		ch.CarriesOver = ch.End == day.Boundary()
		for t, m := range ch.TierMinutes {
			res.TierMinutes[t] += m
		}
		res.WorkPayment = res.WorkPayment.Add(ch.Payment)
		res.Chains = append(res.Chains, ch)
	}

	var out carry
	if n := len(res.Chains); n > 0 && res.Chains[n-1].CarriesOver {
		out = carry{date: day.Date, minutes: res.Chains[n-1].Total()}
		res.CarryOut = out.minutes
	}

	res.Fixed = fixedRows(fixedWork, leave, c.minimumWage, c.policy, sickDay)
	for _, r := range res.Fixed {
		switch r.Kind {
		case FixedWork:
			if t, ok := standardTier(r.WagePercent); ok {
				res.TierMinutes[t] += r.Minutes
			} else {
				res.OtherMinutes += r.Minutes
			}
			res.WorkPayment = res.WorkPayment.Add(r.Payment)
		case FixedVacation:
			res.VacationMinutes += r.Minutes
			res.VacationPayment = res.VacationPayment.Add(r.Payment)
		case FixedSick:
			res.SickMinutes += r.Minutes
			res.SickPayment = res.SickPayment.Add(r.Payment)
		}
	}

	res.Standby = billStandby(blocks, c.rates, day, in.standby, c.diag)
	out.standby = standbyTails(res.Standby, day)
	for _, r := range res.Standby {
		res.StandbyMinutes += r.Minutes
		res.StandbyPayment = res.StandbyPayment.Add(r.Payment)
	}

	res.Payment = res.WorkPayment.Add(res.StandbyPayment).Add(res.VacationPayment).Add(res.SickPayment)
	return res, out
}
