/*
Package calendar provides the time primitives of the wage engine.

PURPOSE:
  Everything the engine knows about clocks and dates lives here: wall-clock
  minute arithmetic, HH:MM parsing, month periods, the Sabbath/holiday
  calendar and the Hebrew date labels shown next to each workday.

KEY CONCEPTS IN THIS FILE (time.go):
  - Minute: an absolute wall-clock minute (minutes since 1970-01-01 00:00)
  - Clock values: minutes since midnight, parsed from "HH:MM"
  - Span: turns a start/end clock pair into an interval that may cross midnight

WHY ABSOLUTE MINUTES:
  Reports cross midnight and workdays run 08:00 -> 08:00, so "minute 1500 of
  the 3rd" is easy to get wrong by a day. An absolute Minute always knows its
  own calendar date; workday-relative offsets are derived only where the
  overtime ladder needs them.

  All dates are Israeli wall time. No time zone conversion ever happens; the
  underlying time.Time values are UTC only as a neutral carrier.

SEE ALSO:
  - period.go: Month periods
  - shabbat.go: Sabbath/holiday windows
  - hebrew.go: Hebrew date labels
*/
package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	MinutesPerDay = 1440

	// WorkdayBoundary is 08:00: a workday runs from 08:00 to 08:00 the next day.
	WorkdayBoundary = 8 * 60

	// RegularHoursLimit and Overtime125Limit are chain positions (in minutes)
	// where the overtime ladder steps up.
	RegularHoursLimit = 8 * 60
	Overtime125Limit  = 10 * 60
)

// ErrMalformedClock is returned when an HH:MM value cannot be parsed.
var ErrMalformedClock = errors.New("malformed clock value")

// =============================================================================
// MINUTE - Absolute wall-clock minute
// =============================================================================

type Minute int64

// Date returns the calendar date (midnight) for year/month/day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates t to its calendar date, ignoring t's location.
func DateOf(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// Midnight returns the Minute at 00:00 of date.
func Midnight(date time.Time) Minute {
	d := DateOf(date)
	return Minute(floorDiv(d.Unix(), 60))
}

// At returns the Minute that is clock minutes after midnight of date.
// clock may exceed 1440 to address the following days.
func At(date time.Time, clock int) Minute {
	return Midnight(date) + Minute(clock)
}

func (m Minute) Time() time.Time { return time.Unix(int64(m)*60, 0).UTC() }
func (m Minute) Date() time.Time { return DateOf(m.Time()) }
func (m Minute) Weekday() time.Weekday { return m.Time().Weekday() }

// MinuteOfDay returns minutes since midnight of m's own date (0..1439).
func (m Minute) MinuteOfDay() int {
	return int(m - Midnight(m.Date()))
}

// Clock formats m as HH:MM of its own date.
func (m Minute) Clock() string { return FormatClock(m.MinuteOfDay()) }

func (m Minute) String() string {
	return m.Time().Format("2006-01-02 15:04")
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// =============================================================================
// CLOCK VALUES - Minutes since midnight
// =============================================================================

// ParseClock parses "HH:MM" or "HH:MM:SS" into minutes since midnight.
// "24:00" is accepted and returns 1440. Seconds are truncated.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedClock, s)
	}
	return h*60 + m, nil
}

// MustParseClock is ParseClock for constants and tests.
func MustParseClock(s string) int {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// FormatClock renders minutes as HH:MM, modulo one day.
func FormatClock(minutes int) string {
	minutes %= MinutesPerDay
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// FormatDuration renders a minute count as H:MM. Hours are not wrapped, so
// 1830 minutes is "30:30".
func FormatDuration(minutes int) string {
	sign := ""
	if minutes < 0 {
		sign, minutes = "-", -minutes
	}
	return fmt.Sprintf("%s%d:%02d", sign, minutes/60, minutes%60)
}

// Span converts a start/end clock pair into a (start, end) interval in
// minutes since the start date's midnight. An end at or before the start
// crosses midnight.
func Span(start, end int) (int, int) {
	if end <= start {
		end += MinutesPerDay
	}
	return start, end
}

// =============================================================================
// DATE HELPERS
// =============================================================================

// DayKey is the display key of a workday: dd/mm/yyyy.
func DayKey(date time.Time) string { return date.Format("02/01/2006") }

// ISODate is the storage key of a date: YYYY-MM-DD.
func ISODate(date time.Time) string { return date.Format("2006-01-02") }

// ParseISODate parses YYYY-MM-DD.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int((Midnight(b) - Midnight(a)) / MinutesPerDay)
}
