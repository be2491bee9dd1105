package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod is returned for a month that cannot exist.
var ErrInvalidPeriod = errors.New("invalid period")

// =============================================================================
// MONTH - The unit of one engine run
// =============================================================================

// Month identifies a payroll month. The engine always runs for exactly one.
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month { return Month{Year: year, Month: month} }

// Validate rejects months outside 1..12 and years outside a sane payroll range.
func (m Month) Validate() error {
	if m.Month < time.January || m.Month > time.December {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, m.Month)
	}
	if m.Year < 1900 || m.Year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, m.Year)
	}
	return nil
}

func (m Month) First() time.Time { return Date(m.Year, m.Month, 1) }
func (m Month) Last() time.Time  { return m.First().AddDate(0, 1, -1) }

// Contains returns true if date falls inside the month.
func (m Month) Contains(date time.Time) bool {
	return date.Year() == m.Year && date.Month() == m.Month
}

// Days returns every date of the month in order.
func (m Month) Days() []time.Time {
	var days []time.Time
	for d := m.First(); m.Contains(d); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (m Month) Next() Month {
	f := m.First().AddDate(0, 1, 0)
	return Month{Year: f.Year(), Month: f.Month()}
}

func (m Month) Previous() Month {
	f := m.First().AddDate(0, -1, 0)
	return Month{Year: f.Year(), Month: f.Month()}
}

func (m Month) String() string { return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)) }
