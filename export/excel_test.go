package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/export"
	"github.com/warp/wage-engine/wage"
)

func sampleResult() *wage.MonthResult {
	date := calendar.Date(2025, time.March, 3)
	start := calendar.At(date, 8*60)
	day := wage.DayResult{
		Date:        date,
		Weekday:     calendar.HebrewWeekday(date),
		HebrewDate:  calendar.HebrewDate(date),
		TierMinutes: map[wage.Tier]int{wage.Tier100: 480, wage.Tier125: 90},
		WorkPayment: decimal.RequireFromString("339.46"),
		Payment:     decimal.RequireFromString("339.46"),
		Chains: []wage.Chain{{
			Start:       start,
			End:         start + 570,
			Minutes:     570,
			Rate:        decimal.RequireFromString("34.40"),
			TierMinutes: map[wage.Tier]int{wage.Tier100: 480, wage.Tier125: 90},
			Payment:     decimal.RequireFromString("339.46"),
			Apartments:  []string{"דירה א"},
			Shifts:      []string{"בוקר"},
			BreakReason: wage.BreakEndOfDay,
		}},
		Cancelled: []wage.CancelledStandby{{
			Start: start + 600, End: start + 700, Minutes: 100, OverlapPercent: 80,
		}},
	}
	totals := wage.Aggregate([]wage.DayResult{day}, decimal.RequireFromString("20"), decimal.Zero)
	return &wage.MonthResult{
		PersonID: 1,
		Month:    calendar.NewMonth(2025, time.March),
		Days:     []wage.DayResult{day},
		Totals:   totals,
		Diagnostics: []wage.Diagnostic{{
			Code: wage.CodeMissingTimes, Severity: wage.SeverityWarning, ReportID: 9, Date: date, Message: "report 9 has no end time",
		}},
	}
}

func TestWriteMonth_Sheets(t *testing.T) {
	// GIVEN: a computed month
	res := sampleResult()

	// WHEN: exported
	var buf bytes.Buffer
	require.NoError(t, export.WriteMonth(&buf, "דנה", res))

	// THEN: the workbook reopens with every sheet populated
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t,
		[]string{export.SheetDays, export.SheetChains, export.SheetStandby, export.SheetTotals, export.SheetDiagnostics},
		f.GetSheetList())

	days, err := f.GetRows(export.SheetDays)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "Date", days[0][0])
	assert.Equal(t, "100%", days[0][3])
	assert.Equal(t, "2025-03-03", days[1][0])
	assert.Equal(t, "8:00", days[1][3])
	assert.Equal(t, "1:30", days[1][4])

	chains, err := f.GetRows(export.SheetChains)
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.Equal(t, "08:00", chains[1][1])
	assert.Equal(t, "17:30", chains[1][2])
	assert.Equal(t, "9:30", chains[1][4])

	standby, err := f.GetRows(export.SheetStandby)
	require.NoError(t, err)
	require.Len(t, standby, 2)
	assert.Equal(t, "cancelled (80% overlap)", standby[1][7])

	totals, err := f.GetRows(export.SheetTotals)
	require.NoError(t, err)
	assert.Equal(t, []string{"Person", "דנה"}, totals[1])
	last := totals[len(totals)-1]
	assert.Equal(t, "Total", last[0])
	assert.Equal(t, "359.46", last[1])

	diags, err := f.GetRows(export.SheetDiagnostics)
	require.NoError(t, err)
	require.Len(t, diags, 2)
	assert.Equal(t, "missing_times", diags[1][0])
}
