// Package shift models shift types and their pay-segment templates, and
// resolves a template against the actual hours of a report.
package shift

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORY - Explicit behavior selector for a shift type
// =============================================================================

// Category selects how a shift type's reports are resolved and paid.
// It is configured per shift type, never derived from the display name at
// computation time.
type Category string

const (
	CategoryRegular       Category = "regular"
	CategoryNight         Category = "night"         // dynamic work/standby/work split from entry time
	CategoryReinforcement Category = "reinforcement" // fixed segments, paid per segment
	CategoryVacation      Category = "vacation"      // fixed segments, paid at minimum wage
	CategorySick          Category = "sick"          // fixed segments, paid by sick-day sequence
)

// IsFixed returns true for categories whose template segments are paid
// directly, bypassing chain and ladder logic.
func (c Category) IsFixed() bool {
	return c == CategoryReinforcement || c == CategoryVacation || c == CategorySick
}

func (c Category) Valid() bool {
	switch c {
	case CategoryRegular, CategoryNight, CategoryReinforcement, CategoryVacation, CategorySick:
		return true
	}
	return false
}

// ParseCategory parses a configured category. Empty means regular.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return CategoryRegular, nil
	}
	if !c.Valid() {
		return "", fmt.Errorf("unknown shift category %q", s)
	}
	return c, nil
}

// categoryKeywords classify legacy catalogs that predate the category field.
var categoryKeywords = []struct {
	category Category
	words    []string
}{
	{CategoryNight, []string{"לילה", "night"}},
	{CategoryReinforcement, []string{"תגבור", "reinforcement"}},
	{CategoryVacation, []string{"חופשה", "vacation"}},
	{CategorySick, []string{"מחלה", "sick"}},
}

// CategoryFromName guesses a category from a shift display name. Only catalog
// import uses it, and only when no category was configured.
func CategoryFromName(name string) Category {
	lower := strings.ToLower(name)
	for _, k := range categoryKeywords {
		for _, w := range k.words {
			if strings.Contains(lower, w) {
				return k.category
			}
		}
	}
	return CategoryRegular
}

// =============================================================================
// SEGMENT TEMPLATE
// =============================================================================

type (
	TypeID    int64
	SegmentID int64
)

// Kind is the pay nature of a template segment.
type Kind string

const (
	KindWork    Kind = "work"
	KindStandby Kind = "standby"
)

// Segment is one declared sub-interval of a shift type. Start and End are
// clock minutes (0..1440); an End at or before Start crosses midnight.
type Segment struct {
	ID          SegmentID
	Start       int
	End         int
	WagePercent int
	Kind        Kind
	Order       int
}

// Duration returns the segment length in minutes.
func (s Segment) Duration() int {
	d := s.End - s.Start
	if d <= 0 {
		d += 1440
	}
	return d
}

// =============================================================================
// SHIFT TYPE
// =============================================================================

type Type struct {
	ID            TypeID
	Name          string
	Color         string
	Category      Category
	IsMinimumWage bool
	RateAgorot    int64 // custom hourly rate in agorot, used when !IsMinimumWage
	Segments      []Segment
}

// HourlyRate returns the shift's effective hourly rate in shekels.
func (t Type) HourlyRate(minimumWage decimal.Decimal) decimal.Decimal {
	if t.IsMinimumWage || t.RateAgorot <= 0 {
		return minimumWage
	}
	return decimal.New(t.RateAgorot, -2)
}

// Ordered returns the segments sorted by Order, then start.
func (t Type) Ordered() []Segment {
	segs := append([]Segment(nil), t.Segments...)
	sort.SliceStable(segs, func(i, j int) bool {
		if segs[i].Order != segs[j].Order {
			return segs[i].Order < segs[j].Order
		}
		return segs[i].Start < segs[j].Start
	})
	return segs
}

// StandbySegment returns the first standby segment in template order.
func (t Type) StandbySegment() (Segment, bool) {
	for _, s := range t.Ordered() {
		if s.Kind == KindStandby {
			return s, true
		}
	}
	return Segment{}, false
}
