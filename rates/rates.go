/*
Package rates resolves the money inputs of a wage run: the minimum wage for
a month and flat standby rates.

PRECEDENCE (standby):
  1. apartment-type specific, exact marital status
  2. apartment-type specific, any marital status
  3. general (apartment type 0), exact marital status
  4. general, any marital status

  Within each scope a historical rate (latest ValidFrom on or before the
  month) wins over the current rate (no ValidFrom).

PRECEDENCE (minimum wage):
  The entry with the latest ValidFrom on or before the first of the month.

SEE ALSO:
  - cache.go: TTL cache in front of a Source
  - wage/policy.go: StandbyRates interface consumed by the engine
*/
package rates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/shift"
	"github.com/warp/wage-engine/wage"
)

var (
	// ErrMinimumWageNotFound is returned when no minimum wage applies to a month.
	ErrMinimumWageNotFound = errors.New("minimum wage not found")
)

// =============================================================================
// RECORDS
// =============================================================================

// StandbyRate is one configured flat standby payment.
type StandbyRate struct {
	SegmentID       shift.SegmentID      `json:"segment_id" yaml:"segment_id"`
	ApartmentTypeID wage.ApartmentTypeID `json:"apartment_type_id" yaml:"apartment_type_id"` // 0 applies to every type
	MaritalStatus   string               `json:"marital_status" yaml:"marital_status"`       // empty applies to every status
	Amount          decimal.Decimal      `json:"amount" yaml:"amount"`
	ValidFrom       time.Time            `json:"valid_from" yaml:"valid_from"` // zero for the current rate
}

func (r StandbyRate) historical() bool { return !r.ValidFrom.IsZero() }

// MinimumWage is the hourly minimum wage from ValidFrom on.
type MinimumWage struct {
	ValidFrom time.Time       `json:"valid_from" yaml:"valid_from"`
	Hourly    decimal.Decimal `json:"hourly" yaml:"hourly"`
}

// Source reads rate tables. Implemented by the stores.
type Source interface {
	MinimumWages(ctx context.Context) ([]MinimumWage, error)
	StandbyRates(ctx context.Context) ([]StandbyRate, error)
	ShabbatTimes(ctx context.Context, from, to time.Time) (calendar.ShabbatTimes, error)
}

// =============================================================================
// MINIMUM WAGE
// =============================================================================

// MinimumWageFor picks the minimum wage in force on the first of month.
func MinimumWageFor(history []MinimumWage, month calendar.Month) (decimal.Decimal, error) {
	asOf := month.First()
	var (
		best  MinimumWage
		found bool
	)
	for _, w := range history {
		if w.ValidFrom.After(asOf) {
			continue
		}
		if !found || w.ValidFrom.After(best.ValidFrom) {
			best, found = w, true
		}
	}
	if !found {
		return decimal.Zero, fmt.Errorf("%w for %s", ErrMinimumWageNotFound, month)
	}
	return best.Hourly, nil
}

// =============================================================================
// STANDBY TABLE
// =============================================================================

type scopeKey struct {
	segment shift.SegmentID
	aptType wage.ApartmentTypeID
	marital string
}

// StandbyTable answers wage.StandbyRates for one month.
type StandbyTable struct {
	asOf   time.Time
	scopes map[scopeKey][]StandbyRate // historical rates sorted newest first, then current
}

var _ wage.StandbyRates = (*StandbyTable)(nil)

// NewStandbyTable indexes rates for lookups as of the first of month.
func NewStandbyTable(rates []StandbyRate, month calendar.Month) *StandbyTable {
	t := &StandbyTable{asOf: month.First(), scopes: make(map[scopeKey][]StandbyRate)}
	for _, r := range rates {
		k := scopeKey{segment: r.SegmentID, aptType: r.ApartmentTypeID, marital: r.MaritalStatus}
		t.scopes[k] = append(t.scopes[k], r)
	}
	for k, list := range t.scopes {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].historical() != list[j].historical() {
				return list[i].historical()
			}
			return list[i].ValidFrom.After(list[j].ValidFrom)
		})
		t.scopes[k] = list
	}
	return t
}

func (t *StandbyTable) StandbyRate(key wage.StandbyKey) (decimal.Decimal, bool) {
	candidates := []scopeKey{
		{key.SegmentID, key.ApartmentTypeID, key.MaritalStatus},
		{key.SegmentID, key.ApartmentTypeID, ""},
		{key.SegmentID, 0, key.MaritalStatus},
		{key.SegmentID, 0, ""},
	}
	for _, c := range candidates {
		if r, ok := t.lookup(c); ok {
			return r.Amount, true
		}
	}
	return decimal.Zero, false
}

func (t *StandbyTable) lookup(k scopeKey) (StandbyRate, bool) {
	for _, r := range t.scopes[k] {
		if !r.historical() || !r.ValidFrom.After(t.asOf) {
			return r, true
		}
	}
	return StandbyRate{}, false
}
