// Package export renders computed months as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/wage"
)

// Sheet names, in workbook order.
const (
	SheetDays        = "Days"
	SheetChains      = "Chains"
	SheetStandby     = "Standby"
	SheetTotals      = "Totals"
	SheetDiagnostics = "Diagnostics"
)

// WriteMonth writes a workbook for one person-month: per-day buckets, chains
// with their tier split, standby rows, monthly totals and diagnostics.
// Durations are H:MM text; money is numeric.
func WriteMonth(w io.Writer, personName string, res *wage.MonthResult) error {
	sw := newSheetWriter()
	defer sw.Close()

	steps := []func(*sheetWriter, *wage.MonthResult) error{
		writeDays, writeChains, writeStandby,
		func(sw *sheetWriter, res *wage.MonthResult) error { return writeTotals(sw, personName, res) },
		writeDiagnostics,
	}
	for _, step := range steps {
		if err := step(sw, res); err != nil {
			return err
		}
	}
	return sw.file.Write(w)
}

func tierHeaders() []string {
	var out []string
	for _, t := range wage.Tiers() {
		out = append(out, t.Label())
	}
	return out
}

func writeDays(sw *sheetWriter, res *wage.MonthResult) error {
	if err := sw.AddSheet(SheetDays); err != nil {
		return err
	}
	header := append([]string{"Date", "Weekday", "Hebrew date"}, tierHeaders()...)
	header = append(header, "Other", "Standby", "Vacation", "Sick",
		"Work pay", "Standby pay", "Vacation pay", "Sick pay", "Total")
	if err := sw.WriteHeader(header); err != nil {
		return err
	}

	for _, d := range res.Days {
		row := []any{calendar.ISODate(d.Date), d.Weekday, d.HebrewDate}
		for _, t := range wage.Tiers() {
			row = append(row, calendar.FormatDuration(d.TierMinutes[t]))
		}
		row = append(row,
			calendar.FormatDuration(d.OtherMinutes),
			calendar.FormatDuration(d.StandbyMinutes),
			calendar.FormatDuration(d.VacationMinutes),
			calendar.FormatDuration(d.SickMinutes),
			money(d.WorkPayment), money(d.StandbyPayment),
			money(d.VacationPayment), money(d.SickPayment), money(d.Payment),
		)
		if err := sw.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

func writeChains(sw *sheetWriter, res *wage.MonthResult) error {
	if err := sw.AddSheet(SheetChains); err != nil {
		return err
	}
	header := append([]string{"Date", "Start", "End", "Carried in", "Worked", "Rate"}, tierHeaders()...)
	header = append(header, "Payment", "Apartments", "Shifts", "Break", "Carries over")
	if err := sw.WriteHeader(header); err != nil {
		return err
	}

	for _, d := range res.Days {
		for _, c := range d.Chains {
			row := []any{
				calendar.ISODate(d.Date), c.Start.Clock(), c.End.Clock(),
				calendar.FormatDuration(c.Offset), calendar.FormatDuration(c.Minutes), money(c.Rate),
			}
			for _, t := range wage.Tiers() {
				row = append(row, calendar.FormatDuration(c.TierMinutes[t]))
			}
			row = append(row, money(c.Payment),
				strings.Join(c.Apartments, ", "), strings.Join(c.Shifts, ", "),
				string(c.BreakReason), c.CarriesOver)
			if err := sw.WriteRow(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeStandby(sw *sheetWriter, res *wage.MonthResult) error {
	if err := sw.AddSheet(SheetStandby); err != nil {
		return err
	}
	if err := sw.WriteHeader([]string{"Date", "Start", "End", "Minutes", "Apartment", "Shift", "Payment", "Status"}); err != nil {
		return err
	}

	for _, d := range res.Days {
		for _, s := range d.Standby {
			status := "paid"
			switch {
			case s.Continuation:
				status = "billed on previous day"
			case s.MissingRate:
				status = "missing rate"
			}
			if err := sw.WriteRow([]any{
				calendar.ISODate(d.Date), s.Start.Clock(), s.End.Clock(),
				calendar.FormatDuration(s.Minutes), s.ApartmentName, s.ShiftName, money(s.Payment), status,
			}); err != nil {
				return err
			}
		}
		for _, c := range d.Cancelled {
			if err := sw.WriteRow([]any{
				calendar.ISODate(d.Date), c.Start.Clock(), c.End.Clock(),
				calendar.FormatDuration(c.Minutes), c.ApartmentName, "", 0.0,
				fmt.Sprintf("cancelled (%d%% overlap)", c.OverlapPercent),
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeTotals(sw *sheetWriter, personName string, res *wage.MonthResult) error {
	if err := sw.AddSheet(SheetTotals); err != nil {
		return err
	}
	if err := sw.WriteHeader([]string{"Item", "Value"}); err != nil {
		return err
	}

	t := res.Totals
	rows := [][]any{
		{"Person", personName},
		{"Month", res.Month.String()},
	}
	tiers := t.TierMinutes()
	for _, tier := range wage.Tiers() {
		rows = append(rows, []any{tier.Label(), calendar.FormatDuration(tiers[tier])})
	}
	rows = append(rows,
		[]any{"Other", calendar.FormatDuration(t.CalcOther)},
		[]any{"Work pay", money(t.Payment)},
		[]any{"Standby", calendar.FormatDuration(t.StandbyMinutes)},
		[]any{"Standby pay", money(t.StandbyPayment)},
		[]any{"Vacation", calendar.FormatDuration(t.VacationMinutes)},
		[]any{"Vacation pay", money(t.VacationPayment)},
		[]any{"Sick", calendar.FormatDuration(t.SickMinutes)},
		[]any{"Sick pay", money(t.SickPayment)},
		[]any{"Travel", money(t.Travel)},
		[]any{"Extras", money(t.Extras)},
		[]any{"Total", money(t.TotalPayment)},
	)
	for _, row := range rows {
		if err := sw.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}

func writeDiagnostics(sw *sheetWriter, res *wage.MonthResult) error {
	if err := sw.AddSheet(SheetDiagnostics); err != nil {
		return err
	}
	if err := sw.WriteHeader([]string{"Code", "Severity", "Report", "Date", "Message"}); err != nil {
		return err
	}
	for _, d := range res.Diagnostics {
		date := ""
		if !d.Date.IsZero() {
			date = calendar.ISODate(d.Date)
		}
		if err := sw.WriteRow([]any{string(d.Code), string(d.Severity), int64(d.ReportID), date, d.Message}); err != nil {
			return err
		}
	}
	return nil
}

func money(d decimal.Decimal) float64 { return d.Round(2).InexactFloat64() }

// =============================================================================
// SHEET WRITER
// =============================================================================

type sheetWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

func newSheetWriter() *sheetWriter {
	return &sheetWriter{file: excelize.NewFile()}
}

// AddSheet starts a new right-to-left sheet. The workbook's default sheet is
// renamed for the first call.
func (w *sheetWriter) AddSheet(name string) error {
	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	rtl := true
	if err := w.file.SetSheetView(name, -1, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		return fmt.Errorf("set view on %s: %w", name, err)
	}
	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *sheetWriter) WriteHeader(columns []string) error {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := w.WriteRow(row); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	start, _ := excelize.CoordinatesToCellName(1, w.currentRow-1)
	end, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow-1)
	return w.file.SetCellStyle(w.currentSheet, start, end, style)
}

func (w *sheetWriter) WriteRow(row []any) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	cell, err := excelize.CoordinatesToCellName(1, w.currentRow)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.currentSheet, cell, &row); err != nil {
		return err
	}
	w.currentRow++
	return nil
}

func (w *sheetWriter) Close() error {
	return w.file.Close()
}
