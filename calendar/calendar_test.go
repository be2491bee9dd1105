package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/wage-engine/calendar"
)

// =============================================================================
// CLOCK PARSING
// =============================================================================

func TestParseClock(t *testing.T) {
	cases := map[string]int{
		"00:00":    0,
		"08:00":    480,
		"22:30":    1350,
		"06:30:59": 390,
		" 7:05 ":   425,
		"24:00":    1440,
	}
	for in, want := range cases {
		got, err := calendar.ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseClock_Malformed(t *testing.T) {
	for _, in := range []string{"", "8", "ab:cd", "25:00", "10:60", "24:01", "1:2:3:4"} {
		_, err := calendar.ParseClock(in)
		assert.ErrorIs(t, err, calendar.ErrMalformedClock, in)
	}
}

func TestFormatClock_WrapsDays(t *testing.T) {
	assert.Equal(t, "08:00", calendar.FormatClock(480))
	assert.Equal(t, "08:00", calendar.FormatClock(1920))
	assert.Equal(t, "00:00", calendar.FormatClock(2880))
	assert.Equal(t, "23:59", calendar.FormatClock(-1))
}

func TestFormatDuration_DoesNotWrap(t *testing.T) {
	assert.Equal(t, "0:00", calendar.FormatDuration(0))
	assert.Equal(t, "8:05", calendar.FormatDuration(485))
	assert.Equal(t, "30:30", calendar.FormatDuration(1830))
	assert.Equal(t, "-1:15", calendar.FormatDuration(-75))
}

func TestSpan_CrossesMidnight(t *testing.T) {
	s, e := calendar.Span(22*60, 8*60)
	assert.Equal(t, 1320, s)
	assert.Equal(t, 1920, e)

	s, e = calendar.Span(8*60, 16*60)
	assert.Equal(t, 480, s)
	assert.Equal(t, 960, e)

	// Equal start and end is a full 24h shift.
	_, e = calendar.Span(8*60, 8*60)
	assert.Equal(t, 1920, e)
}

func TestMinute_DateAndClock(t *testing.T) {
	d := calendar.Date(2025, time.March, 7)
	m := calendar.At(d, 1500) // 01:00 next day

	assert.Equal(t, calendar.Date(2025, time.March, 8), m.Date())
	assert.Equal(t, 60, m.MinuteOfDay())
	assert.Equal(t, "01:00", m.Clock())
	assert.Equal(t, time.Saturday, m.Weekday())
	assert.Equal(t, 1, calendar.DaysBetween(d, m.Date()))
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "05/03/2025", calendar.DayKey(calendar.Date(2025, time.March, 5)))
	d, err := calendar.ParseISODate("2025-03-05")
	require.NoError(t, err)
	assert.Equal(t, calendar.Date(2025, time.March, 5), d)
}

// =============================================================================
// MONTH
// =============================================================================

func TestMonth_Validate(t *testing.T) {
	assert.NoError(t, calendar.NewMonth(2025, time.February).Validate())
	assert.ErrorIs(t, calendar.NewMonth(2025, 13).Validate(), calendar.ErrInvalidPeriod)
	assert.ErrorIs(t, calendar.NewMonth(0, time.January).Validate(), calendar.ErrInvalidPeriod)
}

func TestMonth_Days(t *testing.T) {
	m := calendar.NewMonth(2024, time.February)
	days := m.Days()
	require.Len(t, days, 29)
	assert.Equal(t, m.First(), days[0])
	assert.Equal(t, m.Last(), days[28])
	assert.Equal(t, calendar.NewMonth(2024, time.March), m.Next())
	assert.Equal(t, calendar.NewMonth(2023, time.December), calendar.NewMonth(2024, time.January).Previous())
}

// =============================================================================
// SABBATH CALENDAR
// =============================================================================

// 2025-03-07 is a Friday.
var friday = calendar.Date(2025, time.March, 7)

func TestShabbat_DefaultsWhenDateAbsent(t *testing.T) {
	cal := calendar.NewShabbatCalendar(nil, calendar.DefaultShabbat())
	saturday := friday.AddDate(0, 0, 1)

	assert.False(t, cal.IsSabbath(calendar.At(friday, 15*60+59)))
	assert.True(t, cal.IsSabbath(calendar.At(friday, 16*60)))
	assert.True(t, cal.IsSabbath(calendar.At(saturday, 21*60+59)))
	assert.False(t, cal.IsSabbath(calendar.At(saturday, 22*60)))
	assert.False(t, cal.IsSabbath(calendar.At(friday.AddDate(0, 0, -1), 20*60)))
}

func TestShabbat_PublishedTimes(t *testing.T) {
	saturday := friday.AddDate(0, 0, 1)
	cal := calendar.NewShabbatCalendar(calendar.ShabbatTimes{
		calendar.ISODate(friday):   {Enter: "17:32"},
		calendar.ISODate(saturday): {Exit: "18:47"},
	}, calendar.DefaultShabbat())

	assert.False(t, cal.IsSabbath(calendar.At(friday, 17*60+31)))
	assert.True(t, cal.IsSabbath(calendar.At(friday, 17*60+32)))
	assert.True(t, cal.IsSabbath(calendar.At(saturday, 18*60+46)))
	assert.False(t, cal.IsSabbath(calendar.At(saturday, 18*60+47)))
}

func TestShabbat_Holiday(t *testing.T) {
	// GIVEN: a holiday eve on Tuesday and the holy day on Wednesday
	tuesday := calendar.Date(2025, time.April, 22)
	wednesday := tuesday.AddDate(0, 0, 1)
	cal := calendar.NewShabbatCalendar(calendar.ShabbatTimes{
		calendar.ISODate(tuesday):   {Enter: "18:50", Holiday: true},
		calendar.ISODate(wednesday): {Exit: "19:55", Holiday: true},
	}, calendar.DefaultShabbat())

	assert.False(t, cal.IsSabbath(calendar.At(tuesday, 18*60)))
	assert.True(t, cal.IsSabbath(calendar.At(tuesday, 19*60)))
	assert.True(t, cal.IsSabbath(calendar.At(wednesday, 12*60)))
	assert.False(t, cal.IsSabbath(calendar.At(wednesday, 20*60)))
}

func TestShabbat_NonHolidayEntryIgnoredOnWeekday(t *testing.T) {
	tuesday := calendar.Date(2025, time.April, 22)
	cal := calendar.NewShabbatCalendar(calendar.ShabbatTimes{
		calendar.ISODate(tuesday): {Enter: "10:00"},
	}, calendar.DefaultShabbat())
	assert.False(t, cal.IsSabbath(calendar.At(tuesday, 12*60)))
}

// =============================================================================
// HEBREW DATE
// =============================================================================

func TestToHebrew_KnownDates(t *testing.T) {
	cases := []struct {
		date time.Time
		want calendar.HebrewDay
	}{
		{calendar.Date(2023, time.September, 16), calendar.HebrewDay{Year: 5784, Month: 7, Day: 1}},  // Rosh Hashana
		{calendar.Date(2023, time.December, 22), calendar.HebrewDay{Year: 5784, Month: 10, Day: 10}}, // Asara BeTevet
		{calendar.Date(2024, time.January, 1), calendar.HebrewDay{Year: 5784, Month: 10, Day: 20}},
		{calendar.Date(2024, time.April, 23), calendar.HebrewDay{Year: 5784, Month: 1, Day: 15}},  // Pesach
		{calendar.Date(2024, time.March, 24), calendar.HebrewDay{Year: 5784, Month: 13, Day: 14}}, // Purim, leap year
		{calendar.Date(2025, time.March, 14), calendar.HebrewDay{Year: 5785, Month: 12, Day: 14}}, // Purim
	}
	for _, c := range cases {
		assert.Equal(t, c.want, calendar.ToHebrew(c.date), c.date.String())
	}
}

func TestHebrewDate_Format(t *testing.T) {
	assert.Equal(t, "כ׳ טבת תשפ״ד", calendar.HebrewDate(calendar.Date(2024, time.January, 1)))
	assert.Equal(t, "ט״ו ניסן תשפ״ד", calendar.HebrewDate(calendar.Date(2024, time.April, 23)))
	assert.Equal(t, "י״ד אדר ב׳ תשפ״ד", calendar.HebrewDate(calendar.Date(2024, time.March, 24)))
	assert.Equal(t, "שישי", calendar.HebrewWeekday(friday))
}
