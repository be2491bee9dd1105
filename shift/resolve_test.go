package shift_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/shift"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var day = calendar.Date(2025, time.March, 3) // Monday

func at(clock string) calendar.Minute {
	return calendar.At(day, calendar.MustParseClock(clock))
}

func nextDay(clock string) calendar.Minute {
	return at(clock) + calendar.MinutesPerDay
}

func seg(id shift.SegmentID, start, end string, pct int, kind shift.Kind, order int) shift.Segment {
	return shift.Segment{
		ID:          id,
		Start:       calendar.MustParseClock(start),
		End:         calendar.MustParseClock(end),
		WagePercent: pct,
		Kind:        kind,
		Order:       order,
	}
}

func minutes(pieces []shift.Piece) []int {
	out := make([]int, len(pieces))
	for i, p := range pieces {
		out[i] = p.Minutes()
	}
	return out
}

// overnight is a regular shift declared as evening work, night standby and a
// closing morning block.
func overnight() shift.Type {
	return shift.Type{
		ID:       1,
		Name:     "ערב-לילה",
		Category: shift.CategoryRegular,
		Segments: []shift.Segment{
			seg(11, "16:00", "00:00", 100, shift.KindWork, 1),
			seg(12, "00:00", "06:30", 24, shift.KindStandby, 2),
			seg(13, "06:30", "08:00", 100, shift.KindWork, 3),
		},
	}
}

// =============================================================================
// NO TEMPLATE
// =============================================================================

func TestResolve_NoSegments_SingleWorkPiece(t *testing.T) {
	pieces := shift.Resolve(shift.Type{ID: 1}, at("08:00"), at("16:00"))
	require.Len(t, pieces, 1)
	assert.Equal(t, shift.KindWork, pieces[0].Kind)
	assert.Equal(t, 100, pieces[0].WagePercent)
	assert.Equal(t, 480, pieces[0].Minutes())
}

func TestResolve_EmptyReport(t *testing.T) {
	assert.Empty(t, shift.Resolve(overnight(), at("10:00"), at("10:00")))
}

// =============================================================================
// NIGHT SHIFT
// =============================================================================

func TestResolve_Night_DynamicSegmentation(t *testing.T) {
	// GIVEN: a night shift entering 22:00 and leaving 08:00 next day
	// THEN: 120 min work, standby to 06:30 (390 min), work to 08:00 (90 min)
	night := shift.Type{ID: 2, Name: "לילה", Category: shift.CategoryNight}

	pieces := shift.Resolve(night, at("22:00"), nextDay("08:00"))

	require.Len(t, pieces, 3)
	assert.Equal(t, []int{120, 390, 90}, minutes(pieces))
	assert.Equal(t, shift.KindWork, pieces[0].Kind)
	assert.Equal(t, shift.KindStandby, pieces[1].Kind)
	assert.Equal(t, shift.DefaultNightStandbyPercent, pieces[1].WagePercent)
	assert.Equal(t, shift.KindWork, pieces[2].Kind)
	assert.Equal(t, nextDay("06:30"), pieces[2].Start)
}

func TestResolve_Night_ClipsToExit(t *testing.T) {
	night := shift.Type{ID: 2, Category: shift.CategoryNight}
	pieces := shift.Resolve(night, at("22:00"), nextDay("03:00"))
	assert.Equal(t, []int{120, 180}, minutes(pieces))
}

func TestResolve_Night_UsesTemplateStandbySegment(t *testing.T) {
	night := shift.Type{ID: 2, Category: shift.CategoryNight, Segments: []shift.Segment{
		seg(21, "00:00", "06:30", 30, shift.KindStandby, 1),
	}}
	pieces := shift.Resolve(night, at("23:00"), nextDay("08:00"))
	require.Len(t, pieces, 3)
	assert.Equal(t, shift.SegmentID(21), pieces[1].SegmentID)
	assert.Equal(t, 30, pieces[1].WagePercent)
	assert.Equal(t, []int{120, 330, 90}, minutes(pieces))
}

func TestResolve_Night_LateExitIsUncoveredWork(t *testing.T) {
	night := shift.Type{ID: 2, Category: shift.CategoryNight}
	pieces := shift.Resolve(night, at("22:00"), nextDay("09:00"))
	assert.Equal(t, []int{120, 390, 90, 60}, minutes(pieces))
	assert.Equal(t, shift.SegmentID(0), pieces[3].SegmentID)
}

// =============================================================================
// REGULAR ROTATION
// =============================================================================

func TestAlign_AfternoonReportSkipsMorningSegments(t *testing.T) {
	// GIVEN: a report at 16:00; sorted templates start 00:00, 06:30, 16:00
	// THEN: 16:00 comes first and the morning segments follow on the next day
	placed := shift.Align(overnight().Segments, at("16:00"))

	require.Len(t, placed, 3)
	assert.Equal(t, shift.SegmentID(11), placed[0].ID)
	assert.Equal(t, at("16:00"), placed[0].From)
	assert.Equal(t, nextDay("00:00"), placed[1].From)
	assert.Equal(t, nextDay("06:30"), placed[2].From)
	assert.Equal(t, nextDay("08:00"), placed[2].To)
}

func TestAlign_AfternoonCorrection_FallsForwardToNextSegment(t *testing.T) {
	// GIVEN: a report at 14:00 with templates starting 00:00 and 16:00
	// THEN: 00:00 is excluded (afternoon report), so 16:00 is first
	segs := []shift.Segment{
		seg(1, "00:00", "08:00", 24, shift.KindStandby, 2),
		seg(2, "16:00", "00:00", 100, shift.KindWork, 1),
	}
	placed := shift.Align(segs, at("14:00"))
	require.Len(t, placed, 2)
	assert.Equal(t, shift.SegmentID(2), placed[0].ID)
	assert.Equal(t, nextDay("00:00"), placed[1].From)
}

func TestAlign_AfterMidnightReportStartsAtMorningSegment(t *testing.T) {
	placed := shift.Align(overnight().Segments, at("01:00"))
	require.Len(t, placed, 3)
	assert.Equal(t, shift.SegmentID(12), placed[0].ID)
	assert.Equal(t, at("00:00"), placed[0].From)
	assert.Equal(t, at("06:30"), placed[1].From)
	assert.Equal(t, at("16:00"), placed[2].From)
}

func TestResolve_Regular_OverlapAndUncovered(t *testing.T) {
	// GIVEN: the overnight template and a report 14:00 -> 08:00
	// THEN: 14:00-16:00 is uncovered work, then the three template segments
	pieces := shift.Resolve(overnight(), at("14:00"), nextDay("08:00"))

	require.Len(t, pieces, 4)
	assert.Equal(t, []int{120, 480, 390, 90}, minutes(pieces))
	assert.Equal(t, shift.SegmentID(0), pieces[0].SegmentID)
	assert.Equal(t, shift.KindStandby, pieces[2].Kind)
	assert.Equal(t, shift.SegmentID(12), pieces[2].SegmentID)
}

func TestResolve_Regular_PartialReport(t *testing.T) {
	pieces := shift.Resolve(overnight(), at("20:00"), nextDay("02:00"))
	require.Len(t, pieces, 2)
	assert.Equal(t, []int{240, 120}, minutes(pieces))
	assert.Equal(t, shift.KindWork, pieces[0].Kind)
	assert.Equal(t, shift.KindStandby, pieces[1].Kind)
}

func TestResolve_Regular_CoversEveryReportMinuteOnce(t *testing.T) {
	start, end := at("15:10"), nextDay("09:20")
	pieces := shift.Resolve(overnight(), start, end)

	total := 0
	cursor := start
	for _, p := range pieces {
		assert.Equal(t, cursor, p.Start, "pieces must be contiguous")
		cursor = p.End
		total += p.Minutes()
	}
	assert.Equal(t, end, cursor)
	assert.Equal(t, int(end-start), total)
}

// =============================================================================
// FIXED SEGMENTS
// =============================================================================

func TestResolve_Fixed_IgnoresReportedHours(t *testing.T) {
	reinforcement := shift.Type{ID: 5, Category: shift.CategoryReinforcement, Segments: []shift.Segment{
		seg(51, "08:00", "12:00", 100, shift.KindWork, 1),
		seg(52, "12:00", "14:00", 150, shift.KindWork, 2),
	}}
	pieces := shift.Resolve(reinforcement, at("09:13"), at("10:00"))

	require.Len(t, pieces, 2)
	assert.Equal(t, at("08:00"), pieces[0].Start)
	assert.Equal(t, []int{240, 120}, minutes(pieces))
	assert.Equal(t, 150, pieces[1].WagePercent)
}

func TestResolve_Fixed_ContinuityAcrossMidnight(t *testing.T) {
	vacation := shift.Type{ID: 6, Category: shift.CategoryVacation, Segments: []shift.Segment{
		seg(61, "20:00", "00:00", 100, shift.KindWork, 1),
		seg(62, "00:00", "04:00", 100, shift.KindWork, 2),
	}}
	pieces := shift.Resolve(vacation, at("20:00"), nextDay("04:00"))
	require.Len(t, pieces, 2)
	assert.Equal(t, nextDay("00:00"), pieces[1].Start)
}

// =============================================================================
// SHIFT TYPE
// =============================================================================

func TestHourlyRate(t *testing.T) {
	minWage := decimal.RequireFromString("34.40")

	assert.True(t, shift.Type{IsMinimumWage: true, RateAgorot: 5000}.HourlyRate(minWage).Equal(minWage))
	assert.True(t, shift.Type{RateAgorot: 0}.HourlyRate(minWage).Equal(minWage))
	assert.True(t, shift.Type{RateAgorot: 4250}.HourlyRate(minWage).Equal(decimal.RequireFromString("42.50")))
}

func TestCategory(t *testing.T) {
	assert.True(t, shift.CategorySick.IsFixed())
	assert.False(t, shift.CategoryNight.IsFixed())

	c, err := shift.ParseCategory("Night")
	require.NoError(t, err)
	assert.Equal(t, shift.CategoryNight, c)

	c, err = shift.ParseCategory("")
	require.NoError(t, err)
	assert.Equal(t, shift.CategoryRegular, c)

	_, err = shift.ParseCategory("weekend")
	assert.Error(t, err)

	assert.Equal(t, shift.CategoryNight, shift.CategoryFromName("משמרת לילה"))
	assert.Equal(t, shift.CategorySick, shift.CategoryFromName("יום מחלה"))
	assert.Equal(t, shift.CategoryRegular, shift.CategoryFromName("בוקר"))
}
