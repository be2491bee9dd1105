package wage

import (
	"github.com/shopspring/decimal"
	"github.com/warp/wage-engine/shift"
)

// =============================================================================
// POLICY - Tunable rules of a computation run
// =============================================================================

// Policy holds the thresholds the engine applies. The zero value is not
// useful; start from DefaultPolicy.
type Policy struct {
	// BreakThreshold is the longest gap, in minutes, between consecutive work
	// intervals that keeps them in the same chain.
	BreakThreshold int `yaml:"break_threshold" json:"break_threshold"`

	// StandbyCancelPercent cancels a standby block when at least this share
	// of its minutes overlaps work.
	StandbyCancelPercent int `yaml:"standby_cancel_percent" json:"standby_cancel_percent"`

	// SickPercents is the pay percent by position in a consecutive sick-day
	// sequence. The last entry applies to every later day.
	SickPercents []int `yaml:"sick_percents" json:"sick_percents"`

	// NightStandbyPercent labels night standby when the shift type declares
	// no standby segment of its own.
	NightStandbyPercent int `yaml:"night_standby_percent" json:"night_standby_percent"`
}

// DefaultPolicy returns the statutory defaults. Sick leave pays 0% on day
// one, 50% on days two and three and 100% after that.
func DefaultPolicy() Policy {
	return Policy{
		BreakThreshold:       1,
		StandbyCancelPercent: 70,
		SickPercents:         []int{0, 50, 50, 100},
		NightStandbyPercent:  shift.DefaultNightStandbyPercent,
	}
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.BreakThreshold < 0 {
		p.BreakThreshold = def.BreakThreshold
	}
	if p.StandbyCancelPercent <= 0 || p.StandbyCancelPercent > 100 {
		p.StandbyCancelPercent = def.StandbyCancelPercent
	}
	if len(p.SickPercents) == 0 {
		p.SickPercents = def.SickPercents
	}
	if p.NightStandbyPercent <= 0 {
		p.NightStandbyPercent = def.NightStandbyPercent
	}
	return p
}

// SickPercent returns the pay percent for the n-th consecutive sick day (1-based).
func (p Policy) SickPercent(n int) int {
	percents := p.SickPercents
	if len(percents) == 0 {
		percents = DefaultPolicy().SickPercents
	}
	if n < 1 {
		n = 1
	}
	if n > len(percents) {
		return percents[len(percents)-1]
	}
	return percents[n-1]
}

// =============================================================================
// STANDBY RATES
// =============================================================================

// StandbyKey identifies the flat rate of one standby block.
type StandbyKey struct {
	SegmentID       shift.SegmentID
	ApartmentTypeID ApartmentTypeID
	MaritalStatus   string
}

// StandbyRates resolves the flat payment of a standby block. The bool is
// false when no rate is configured.
type StandbyRates interface {
	StandbyRate(key StandbyKey) (decimal.Decimal, bool)
}

// StandbyRateFunc adapts a function to StandbyRates.
type StandbyRateFunc func(key StandbyKey) (decimal.Decimal, bool)

func (f StandbyRateFunc) StandbyRate(key StandbyKey) (decimal.Decimal, bool) { return f(key) }

// NoStandbyRates resolves nothing.
type NoStandbyRates struct{}

func (NoStandbyRates) StandbyRate(StandbyKey) (decimal.Decimal, bool) { return decimal.Zero, false }
