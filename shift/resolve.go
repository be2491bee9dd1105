/*
resolve.go - Fitting a shift type's segment templates onto a report

PURPOSE:
  A template says how a nominal shift divides into pay segments ("16:00-24:00
  work, 00:00-06:30 standby, 06:30-08:00 work"). A report says when the
  person actually clocked in and out. Resolve produces the typed pieces that
  apply to this report instance.

THREE PATHS:
  Night:    segments are generated from the entry time: 120 minutes of work,
            standby until the next 06:30, work until 08:00. Each window is
            clipped to the exit time.

  Fixed:    reinforcement, vacation and sick shifts. Template segments are
            placed on the report's date verbatim; reported hours are ignored.

  Regular:  templates are sorted by start, rotated so the segment covering the
            report's start comes first, made chronologically continuous, and
            overlapped with the report. Minutes no segment covers are work at
            100%.

ROTATION:
  The first segment is the one whose start is closest to, and not after, the
  report's start. An afternoon report (start >= 12:00) never rotates to a
  morning segment (start < 08:00): that segment is the next day's tail of the
  same overnight shift. When no segment qualifies, the earliest eligible
  segment after the report's start is used.

SEE ALSO:
  - types.go: Type, Segment, Category
  - wage/builder.go: splits pieces into workdays
*/
package shift

import (
	"sort"

	"github.com/warp/wage-engine/calendar"
)

const (
	// NightWorkLead is the work block at the start of a night shift.
	NightWorkLead = 120

	// NightStandbyUntil and NightWorkUntil are the clock times ending the night
	// standby and the closing work block.
	NightStandbyUntil = 6*60 + 30
	NightWorkUntil    = 8 * 60

	// DefaultNightStandbyPercent applies when a night type declares no standby segment.
	DefaultNightStandbyPercent = 24

	afternoon = 12 * 60
)

// Piece is one resolved, typed slice of a report.
type Piece struct {
	Start       calendar.Minute
	End         calendar.Minute
	Kind        Kind
	WagePercent int
	SegmentID   SegmentID // zero for minutes not covered by any template segment
}

func (p Piece) Minutes() int { return int(p.End - p.Start) }

// Placed is a template segment positioned on the absolute timeline.
type Placed struct {
	Segment
	From calendar.Minute
	To   calendar.Minute
}

// Resolve returns the pieces of a report spanning [start, end).
func Resolve(t Type, start, end calendar.Minute) []Piece {
	if end <= start {
		return nil
	}
	switch {
	case t.Category == CategoryNight:
		return resolveNight(t, start, end)
	case t.Category.IsFixed():
		return Fixed(t, start, end)
	case len(t.Segments) == 0:
		return []Piece{uncovered(start, end)}
	}
	return overlay(Align(t.Segments, start), start, end)
}

// Align rotates segments to the report start and places them continuously
// on the timeline, starting from the report's date.
func Align(segments []Segment, start calendar.Minute) []Placed {
	if len(segments) == 0 {
		return nil
	}
	sorted := append([]Segment(nil), segments...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].Order < sorted[j].Order
	})

	first := rotationIndex(sorted, start.MinuteOfDay())
	date := start.Date()

	placed := make([]Placed, 0, len(sorted))
	var prevEnd calendar.Minute
	for k := range sorted {
		s := sorted[(first+k)%len(sorted)]
		from := calendar.At(date, s.Start)
		if k > 0 {
			for from < prevEnd {
				from += calendar.MinutesPerDay
			}
		}
		to := from + calendar.Minute(s.Duration())
		placed = append(placed, Placed{Segment: s, From: from, To: to})
		prevEnd = to
	}
	return placed
}

func rotationIndex(sorted []Segment, reportClock int) int {
	eligible := func(s Segment) bool {
		return !(reportClock >= afternoon && s.Start < calendar.WorkdayBoundary)
	}

	best := -1
	for i, s := range sorted {
		if eligible(s) && s.Start <= reportClock {
			best = i
		}
	}
	if best >= 0 {
		return best
	}
	for i, s := range sorted {
		if eligible(s) {
			return i
		}
	}
	return 0
}

// overlay intersects placed segments with [start, end). Earlier segments win
// where templates overlap each other; gaps become uncovered work.
func overlay(placed []Placed, start, end calendar.Minute) []Piece {
	sort.SliceStable(placed, func(i, j int) bool { return placed[i].From < placed[j].From })

	var out []Piece
	cursor := start
	for _, p := range placed {
		s := max(p.From, cursor)
		e := min(p.To, end)
		if e <= s {
			continue
		}
		if s > cursor {
			out = append(out, uncovered(cursor, s))
		}
		out = append(out, Piece{Start: s, End: e, Kind: p.Kind, WagePercent: p.WagePercent, SegmentID: p.ID})
		cursor = e
	}
	if cursor < end {
		out = append(out, uncovered(cursor, end))
	}
	return out
}

func resolveNight(t Type, start, end calendar.Minute) []Piece {
	standbyID := SegmentID(0)
	standbyPercent := DefaultNightStandbyPercent
	if s, ok := t.StandbySegment(); ok {
		standbyID = s.ID
		if s.WagePercent > 0 {
			standbyPercent = s.WagePercent
		}
	}

	leadEnd := start + NightWorkLead
	standbyEnd := calendar.At(start.Date(), NightStandbyUntil)
	if standbyEnd <= start {
		standbyEnd += calendar.MinutesPerDay
	}
	closeStart := max(standbyEnd, leadEnd)
	closeEnd := standbyEnd + (NightWorkUntil - NightStandbyUntil)

	var out []Piece
	add := func(p Piece) {
		p.End = min(p.End, end)
		if p.End > p.Start {
			out = append(out, p)
		}
	}
	add(Piece{Start: start, End: leadEnd, Kind: KindWork, WagePercent: 100})
	add(Piece{Start: leadEnd, End: standbyEnd, Kind: KindStandby, WagePercent: standbyPercent, SegmentID: standbyID})
	add(Piece{Start: closeStart, End: closeEnd, Kind: KindWork, WagePercent: 100})
	if tail := max(closeEnd, closeStart); tail < end {
		out = append(out, uncovered(tail, end))
	}
	return out
}

// Fixed places a fixed-category type's segments on the report's date in
// template order. A fixed type with no segments pays the report span as one
// piece at 100%.
func Fixed(t Type, start, end calendar.Minute) []Piece {
	segs := t.Ordered()
	if len(segs) == 0 {
		if end <= start {
			return nil
		}
		return []Piece{uncovered(start, end)}
	}

	date := start.Date()
	out := make([]Piece, 0, len(segs))
	var prevEnd calendar.Minute
	for i, s := range segs {
		from := calendar.At(date, s.Start)
		if i > 0 {
			for from < prevEnd {
				from += calendar.MinutesPerDay
			}
		}
		to := from + calendar.Minute(s.Duration())
		out = append(out, Piece{Start: from, End: to, Kind: s.Kind, WagePercent: s.WagePercent, SegmentID: s.ID})
		prevEnd = to
	}
	return out
}

func uncovered(start, end calendar.Minute) Piece {
	return Piece{Start: start, End: end, Kind: KindWork, WagePercent: 100}
}
