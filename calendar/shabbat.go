package calendar

import "time"

// =============================================================================
// SABBATH CALENDAR - Premium windows for the overtime ladder
// =============================================================================

// Sabbath answers whether a minute falls inside a Sabbath or holiday window.
// Implementations must be safe for concurrent reads; the engine never writes.
type Sabbath interface {
	IsSabbath(m Minute) bool
}

// Window holds the candle-lighting (Enter) and havdalah (Exit) clock times
// published for one date. Holiday marks a non-Sabbath date of a holiday:
// Enter makes it a holiday eve, Exit makes it a holy day until that time.
type Window struct {
	Enter   string `json:"enter,omitempty" yaml:"enter,omitempty"`
	Exit    string `json:"exit,omitempty" yaml:"exit,omitempty"`
	Holiday bool   `json:"holiday,omitempty" yaml:"holiday,omitempty"`
}

// ShabbatTimes maps ISO dates (YYYY-MM-DD) to their published window.
// It is owned by the caller and treated as read-only.
type ShabbatTimes map[string]Window

// Defaults apply when a Friday or Saturday has no published time.
type Defaults struct {
	Enter int // clock minutes on Friday
	Exit  int // clock minutes on Saturday
}

// DefaultShabbat is Friday 16:00 to Saturday 22:00.
func DefaultShabbat() Defaults {
	return Defaults{Enter: 16 * 60, Exit: 22 * 60}
}

// ShabbatCalendar implements Sabbath over a published times table.
type ShabbatCalendar struct {
	times    ShabbatTimes
	defaults Defaults
}

var _ Sabbath = (*ShabbatCalendar)(nil)

func NewShabbatCalendar(times ShabbatTimes, defaults Defaults) *ShabbatCalendar {
	return &ShabbatCalendar{times: times, defaults: defaults}
}

// IsSabbath reports whether m is at or after the day's entry time, or
// before the day's exit time. Friday always has an entry and Saturday always
// has an exit; other dates only when published as a holiday.
func (c *ShabbatCalendar) IsSabbath(m Minute) bool {
	date := m.Date()
	mod := m.MinuteOfDay()
	w, ok := c.times[ISODate(date)]

	if enter, has := c.enterAt(date.Weekday(), w, ok); has && mod >= enter {
		return true
	}
	if exit, has := c.exitAt(date.Weekday(), w, ok); has && mod < exit {
		return true
	}
	return false
}

func (c *ShabbatCalendar) enterAt(wd time.Weekday, w Window, ok bool) (int, bool) {
	if ok && w.Enter != "" && (wd == time.Friday || w.Holiday) {
		if v, err := ParseClock(w.Enter); err == nil {
			return v, true
		}
	}
	if wd == time.Friday {
		return c.defaults.Enter, true
	}
	return 0, false
}

func (c *ShabbatCalendar) exitAt(wd time.Weekday, w Window, ok bool) (int, bool) {
	if ok && w.Exit != "" && (wd == time.Saturday || w.Holiday) {
		if v, err := ParseClock(w.Exit); err == nil {
			return v, true
		}
	}
	if wd == time.Saturday {
		return c.defaults.Exit, true
	}
	return 0, false
}

// NeverSabbath is a no-op calendar for when premiums are disabled.
type NeverSabbath struct{}

func (NeverSabbath) IsSabbath(Minute) bool { return false }
