package wage

import (
	"github.com/shopspring/decimal"
	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/shift"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine computes person-months under a Policy. It is a plain value: one
// Engine may serve concurrent runs.
type Engine struct {
	Policy Policy
}

func NewEngine(policy Policy) Engine {
	return Engine{Policy: policy}
}

// MonthInput is everything one run reads. The engine never mutates it.
type MonthInput struct {
	PersonID     PersonID
	Month        calendar.Month
	Reports      []TimeReport
	ShiftTypes   map[shift.TypeID]shift.Type
	Sabbath      calendar.Sabbath
	MinimumWage  decimal.Decimal // shekels per hour, already resolved for Month
	StandbyRates StandbyRates

	// Travel and Extras are already-aggregated payment components.
	Travel decimal.Decimal
	Extras decimal.Decimal
}

func (in MonthInput) validate() error {
	if err := in.Month.Validate(); err != nil {
		return &InputError{Field: "month", Err: err}
	}
	if !in.MinimumWage.IsPositive() {
		return &InputError{Field: "minimum_wage", Err: ErrInvalidMinimumWage}
	}
	if in.Sabbath == nil {
		return &InputError{Field: "sabbath", Err: ErrMissingCalendar}
	}
	return nil
}

// MonthResult is the full output of one run.
type MonthResult struct {
	PersonID    PersonID
	Month       calendar.Month
	Days        []DayResult
	Totals      MonthlyTotals
	Diagnostics []Diagnostic
}

// ComputeMonth runs the whole pipeline for one person-month. It returns an
// error only for invalid input; data problems become diagnostics.
func (e Engine) ComputeMonth(in MonthInput) (*MonthResult, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	policy := e.Policy.normalized()

	var diag diagnostics
	days := buildDays(in, policy, &diag)
	sick := sickSequence(days)

	ctx := dayContext{
		policy:      policy,
		sabbath:     in.Sabbath,
		minimumWage: in.MinimumWage,
		rates:       in.StandbyRates,
		diag:        &diag,
	}

	results := make([]DayResult, 0, len(days))
	var pending carry
	for _, d := range days {
		res, out := ctx.computeDay(d, pending, sick[d.Key])
		res.PreviousMonth = d.Date.Before(in.Month.First())
		pending = out
		results = append(results, res)
	}

	return &MonthResult{
		PersonID:    in.PersonID,
		Month:       in.Month,
		Days:        results,
		Totals:      Aggregate(results, in.Travel, in.Extras),
		Diagnostics: diag.items,
	}, nil
}

// =============================================================================
// MONTHLY TOTALS
// =============================================================================

// MonthlyTotals sums a month of day results. Calc fields are minutes.
type MonthlyTotals struct {
	Calc100   int
	Calc125   int
	Calc150   int
	Calc175   int
	Calc200   int
	CalcOther int

	Payment decimal.Decimal // work, chains and fixed work

	StandbyMinutes  int
	StandbyPayment  decimal.Decimal
	VacationMinutes int
	VacationPayment decimal.Decimal
	SickMinutes     int
	SickPayment     decimal.Decimal

	Travel       decimal.Decimal
	Extras       decimal.Decimal
	TotalPayment decimal.Decimal
}

// TierMinutes returns the calc fields keyed by tier.
func (t MonthlyTotals) TierMinutes() map[Tier]int {
	return map[Tier]int{
		Tier100: t.Calc100,
		Tier125: t.Calc125,
		Tier150: t.Calc150,
		Tier175: t.Calc175,
		Tier200: t.Calc200,
	}
}

// Aggregate folds day results and payment components into monthly totals.
func Aggregate(days []DayResult, travel, extras decimal.Decimal) MonthlyTotals {
	t := MonthlyTotals{
		Payment:         decimal.Zero,
		StandbyPayment:  decimal.Zero,
		VacationPayment: decimal.Zero,
		SickPayment:     decimal.Zero,
		Travel:          travel,
		Extras:          extras,
	}
	for _, d := range days {
		t.Calc100 += d.TierMinutes[Tier100]
		t.Calc125 += d.TierMinutes[Tier125]
		t.Calc150 += d.TierMinutes[Tier150]
		t.Calc175 += d.TierMinutes[Tier175]
		t.Calc200 += d.TierMinutes[Tier200]
		t.CalcOther += d.OtherMinutes

		t.Payment = t.Payment.Add(d.WorkPayment)
		t.StandbyMinutes += d.StandbyMinutes
		t.StandbyPayment = t.StandbyPayment.Add(d.StandbyPayment)
		t.VacationMinutes += d.VacationMinutes
		t.VacationPayment = t.VacationPayment.Add(d.VacationPayment)
		t.SickMinutes += d.SickMinutes
		t.SickPayment = t.SickPayment.Add(d.SickPayment)
	}
	t.TotalPayment = t.Payment.
		Add(t.StandbyPayment).
		Add(t.VacationPayment).
		Add(t.SickPayment).
		Add(travel).
		Add(extras)
	return t
}
