package wage

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/wage-engine/calendar"
)

// Tier is a pay multiplier in percent.
type Tier int

const (
	Tier100 Tier = 100
	Tier125 Tier = 125
	Tier150 Tier = 150
	Tier175 Tier = 175
	Tier200 Tier = 200
)

// Tiers lists every tier in ascending order.
func Tiers() []Tier { return []Tier{Tier100, Tier125, Tier150, Tier175, Tier200} }

// Label returns the display form, e.g. "125%".
func (t Tier) Label() string { return fmt.Sprintf("%d%%", int(t)) }

// Multiplier returns the tier as a decimal factor (125 -> 1.25).
func (t Tier) Multiplier() decimal.Decimal { return decimal.New(int64(t), -2) }

// standardTier reports whether percent is one of the ladder tiers.
func standardTier(percent int) (Tier, bool) {
	for _, t := range Tiers() {
		if int(t) == percent {
			return t, true
		}
	}
	return 0, false
}

// LadderTier classifies the minute at position (0-based, carryover included)
// of a chain. Positions below 8h pay 100%, up to 10h 125%, beyond 150%;
// Sabbath minutes add 50 points to each step.
func LadderTier(position int, sabbath bool) Tier {
	var t Tier
	switch {
	case position < calendar.RegularHoursLimit:
		t = Tier100
	case position < calendar.Overtime125Limit:
		t = Tier125
	default:
		t = Tier150
	}
	if sabbath {
		t += 50
	}
	return t
}

// hourlyPay returns rate × percent/100 × minutes/60, rounded to agorot.
func hourlyPay(rate decimal.Decimal, percent int, minutes int) decimal.Decimal {
	return rate.
		Mul(decimal.New(int64(percent), -2)).
		Mul(decimal.NewFromInt(int64(minutes))).
		Div(decimal.NewFromInt(60)).
		Round(2)
}
