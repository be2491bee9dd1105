package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/shift"
)

func TestLoadCatalog_Fixture(t *testing.T) {
	c, err := factory.LoadCatalog("testdata/catalog.yaml")
	require.NoError(t, err)

	assert.Len(t, c.MinimumWages, 2)
	assert.Equal(t, "34.4", c.MinimumWages[1].Hourly.String())
	assert.Equal(t, calendar.Date(2025, time.April, 1), c.MinimumWages[1].ValidFrom)

	require.Len(t, c.People, 3)
	assert.True(t, c.People[0].Active, "active defaults to true")
	assert.False(t, c.People[2].Active)

	types := c.ShiftTypeMap()
	require.Len(t, types, 5)

	evening := types[3]
	assert.Equal(t, shift.CategoryRegular, evening.Category)
	require.Len(t, evening.Segments, 3)
	assert.Equal(t, shift.KindStandby, evening.Segments[1].Kind)
	assert.Equal(t, 22*60, evening.Segments[1].Start)
	assert.Equal(t, 6*60+30, evening.Segments[1].End)
	assert.Equal(t, 2, evening.Segments[1].Order, "order defaults to list position")

	reinforcement := types[4]
	assert.Equal(t, shift.CategoryReinforcement, reinforcement.Category)
	assert.False(t, reinforcement.IsMinimumWage)
	assert.Equal(t, int64(5000), reinforcement.RateAgorot)

	require.Len(t, c.StandbyRates, 3)
	assert.True(t, c.StandbyRates[0].ValidFrom.IsZero(), "no valid_from means current rate")
	assert.Equal(t, calendar.Date(2024, time.January, 1), c.StandbyRates[2].ValidFrom)

	assert.Equal(t, "17:32", c.ShabbatTimes["2025-03-07"].Enter)
	require.Len(t, c.Reports, 4)
	assert.Equal(t, "16:00", c.Reports[1].StartTime)

	require.Len(t, c.PaymentComponents, 1)
	assert.Equal(t, calendar.NewMonth(2025, time.March), c.PaymentComponents[0].Month)
	assert.Equal(t, "120.5", c.PaymentComponents[0].Travel.String())
}

func TestParseShiftType_CategoryFallsBackToName(t *testing.T) {
	// GIVEN: legacy catalog entries without a category
	// WHEN: parsed
	// THEN: the category is classified from the display name
	cases := map[string]shift.Category{
		"משמרת לילה":   shift.CategoryNight,
		"Sick leave":   shift.CategorySick,
		"חופשה שנתית":  shift.CategoryVacation,
		"תגבור צהריים": shift.CategoryReinforcement,
		"משמרת בוקר":   shift.CategoryRegular,
	}
	for name, want := range cases {
		st, err := factory.ParseShiftType(factory.ShiftTypeFile{ID: 1, Name: name, MinimumWage: true})
		require.NoError(t, err)
		assert.Equal(t, want, st.Category, name)
	}

	// A configured category wins over the name.
	st, err := factory.ParseShiftType(factory.ShiftTypeFile{ID: 1, Name: "משמרת לילה", Category: "regular"})
	require.NoError(t, err)
	assert.Equal(t, shift.CategoryRegular, st.Category)
}

func TestParseShiftType_RateWithoutAmountUsesMinimumWage(t *testing.T) {
	st, err := factory.ParseShiftType(factory.ShiftTypeFile{ID: 1, Name: "x", MinimumWage: false})
	require.NoError(t, err)
	assert.True(t, st.IsMinimumWage)
}

func TestParseCatalog_Errors(t *testing.T) {
	cases := map[string]string{
		"bad yaml":          "shift_types: [",
		"bad category":      "shift_types: [{id: 1, name: x, category: weekly}]",
		"bad clock":         `shift_types: [{id: 1, name: x, segments: [{id: 1, start: "25:00", end: "08:00"}]}]`,
		"bad segment type":  `shift_types: [{id: 1, name: x, segments: [{id: 1, start: "08:00", end: "09:00", type: break}]}]`,
		"duplicate id":      "shift_types: [{id: 1, name: a}, {id: 1, name: b}]",
		"zero id":           "shift_types: [{id: 0, name: a}]",
		"bad wage":          `minimum_wages: [{valid_from: "2025-01-01", hourly: "-1"}]`,
		"bad wage date":     `minimum_wages: [{valid_from: "01/01/2025", hourly: "30"}]`,
		"bad standby rate":  `standby_rates: [{segment_id: 1, amount: "abc"}]`,
		"bad shabbat date":  `shabbat_times: {"2025-13-01": {enter: "17:00"}}`,
		"bad shabbat clock": `shabbat_times: {"2025-03-07": {enter: "5pm"}}`,
		"bad report date":   `reports: [{id: 1, person_id: 1, date: "", shift_type_id: 1}]`,
		"bad month":         `payment_components: [{person_id: 1, year: 2025, month: 13}]`,
		"bad travel":        `payment_components: [{person_id: 1, year: 2025, month: 3, travel: "x"}]`,
	}
	for name, data := range cases {
		_, err := factory.ParseCatalog([]byte(data))
		assert.Error(t, err, name)
	}
}

func TestParseCatalog_KeepsUnparsableReportClocks(t *testing.T) {
	// GIVEN: a report with an empty end time
	// WHEN: the catalog is parsed
	// THEN: the report is kept; the engine reports it as a diagnostic
	c, err := factory.ParseCatalog([]byte(`reports: [{id: 1, person_id: 1, date: "2025-03-03", start: "08:00", shift_type_id: 1}]`))
	require.NoError(t, err)
	require.Len(t, c.Reports, 1)
	assert.Empty(t, c.Reports[0].EndTime)
}
