package rates_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/rates"
	"github.com/warp/wage-engine/wage"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =============================================================================
// MINIMUM WAGE
// =============================================================================

func TestMinimumWageFor_PicksLatestInForce(t *testing.T) {
	history := []rates.MinimumWage{
		{ValidFrom: calendar.Date(2023, time.April, 1), Hourly: money("32.30")},
		{ValidFrom: calendar.Date(2024, time.April, 1), Hourly: money("32.70")},
		{ValidFrom: calendar.Date(2025, time.April, 1), Hourly: money("34.40")},
	}

	w, err := rates.MinimumWageFor(history, calendar.NewMonth(2025, time.March))
	require.NoError(t, err)
	assert.True(t, money("32.70").Equal(w))

	w, err = rates.MinimumWageFor(history, calendar.NewMonth(2025, time.April))
	require.NoError(t, err)
	assert.True(t, money("34.40").Equal(w))

	_, err = rates.MinimumWageFor(history, calendar.NewMonth(2020, time.January))
	assert.ErrorIs(t, err, rates.ErrMinimumWageNotFound)
}

// =============================================================================
// STANDBY FALLBACK
// =============================================================================

func TestStandbyTable_Precedence(t *testing.T) {
	table := rates.NewStandbyTable([]rates.StandbyRate{
		{SegmentID: 1, Amount: money("100")},
		{SegmentID: 1, MaritalStatus: "married", Amount: money("110")},
		{SegmentID: 1, ApartmentTypeID: 2, Amount: money("120")},
		{SegmentID: 1, ApartmentTypeID: 2, MaritalStatus: "married", Amount: money("130")},
	}, calendar.NewMonth(2025, time.March))

	rate := func(aptType wage.ApartmentTypeID, marital string) string {
		r, ok := table.StandbyRate(wage.StandbyKey{SegmentID: 1, ApartmentTypeID: aptType, MaritalStatus: marital})
		require.True(t, ok)
		return r.String()
	}

	assert.Equal(t, "130", rate(2, "married"))
	assert.Equal(t, "120", rate(2, "single"))
	assert.Equal(t, "110", rate(3, "married"))
	assert.Equal(t, "100", rate(3, "single"))

	_, ok := table.StandbyRate(wage.StandbyKey{SegmentID: 9})
	assert.False(t, ok)
}

func TestStandbyTable_HistoricalBeforeCurrent(t *testing.T) {
	list := []rates.StandbyRate{
		{SegmentID: 1, Amount: money("90")},
		{SegmentID: 1, Amount: money("70"), ValidFrom: calendar.Date(2024, time.January, 1)},
		{SegmentID: 1, Amount: money("80"), ValidFrom: calendar.Date(2025, time.January, 1)},
	}
	lookup := func(m calendar.Month) string {
		r, ok := rates.NewStandbyTable(list, m).StandbyRate(wage.StandbyKey{SegmentID: 1})
		require.True(t, ok)
		return r.String()
	}

	assert.Equal(t, "80", lookup(calendar.NewMonth(2025, time.March)))
	assert.Equal(t, "70", lookup(calendar.NewMonth(2024, time.June)))
	// Before any historical entry the current rate applies.
	assert.Equal(t, "90", lookup(calendar.NewMonth(2023, time.June)))
}

// =============================================================================
// CACHE
// =============================================================================

type countingSource struct {
	wageCalls    int
	standbyCalls int
	shabbatCalls int
	fail         bool
}

func (s *countingSource) MinimumWages(context.Context) ([]rates.MinimumWage, error) {
	s.wageCalls++
	if s.fail {
		return nil, errors.New("boom")
	}
	return []rates.MinimumWage{{ValidFrom: calendar.Date(2025, time.January, 1), Hourly: money("34.40")}}, nil
}

func (s *countingSource) StandbyRates(context.Context) ([]rates.StandbyRate, error) {
	s.standbyCalls++
	return []rates.StandbyRate{{SegmentID: 1, Amount: money("50")}}, nil
}

func (s *countingSource) ShabbatTimes(context.Context, time.Time, time.Time) (calendar.ShabbatTimes, error) {
	s.shabbatCalls++
	return calendar.ShabbatTimes{"2025-03-07": {Enter: "17:32"}}, nil
}

func TestCachedSource_ServesFromCache(t *testing.T) {
	src := &countingSource{}
	cached := rates.NewCachedSource(src, time.Minute)
	ctx := context.Background()
	from, to := calendar.Date(2025, time.March, 1), calendar.Date(2025, time.March, 31)

	for i := 0; i < 3; i++ {
		_, err := cached.MinimumWages(ctx)
		require.NoError(t, err)
		_, err = cached.StandbyRates(ctx)
		require.NoError(t, err)
		times, err := cached.ShabbatTimes(ctx, from, to)
		require.NoError(t, err)
		assert.Equal(t, "17:32", times["2025-03-07"].Enter)
	}
	assert.Equal(t, 1, src.wageCalls)
	assert.Equal(t, 1, src.standbyCalls)
	assert.Equal(t, 1, src.shabbatCalls)

	cached.Invalidate()
	_, err := cached.MinimumWages(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.wageCalls)
}

func TestCachedSource_DoesNotCacheErrors(t *testing.T) {
	src := &countingSource{fail: true}
	cached := rates.NewCachedSource(src, time.Minute)

	_, err := cached.MinimumWages(context.Background())
	require.Error(t, err)
	_, err = cached.MinimumWages(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, src.wageCalls)
}
