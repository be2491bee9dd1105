/*
Package factory converts catalog files into the engine's Go types.

PURPOSE:
  Shift types, their segment templates, rate tables, Sabbath times and
  people live in a YAML (or JSON) catalog so payroll staff can edit them
  without code changes. The factory validates the file, applies defaults and
  returns typed records ready to seed a store.

SCHEMA:
  minimum_wages:
    - {valid_from: "2025-04-01", hourly: "34.40"}
  apartment_types:
    - {id: 1, name: "הוסטל"}
  apartments:
    - {id: 10, name: "דירה א", type_id: 1}
  people:
    - {id: 1, name: "דנה", marital_status: "single"}
  shift_types:
    - id: 3
      name: "ערב-לילה"
      category: regular          # regular|night|reinforcement|vacation|sick
      minimum_wage: true
      segments:
        - {id: 31, start: "16:00", end: "00:00", wage_percent: 100, type: work}
        - {id: 32, start: "00:00", end: "06:30", wage_percent: 24, type: standby}
        - {id: 33, start: "06:30", end: "08:00", wage_percent: 100, type: work}
  standby_rates:
    - {segment_id: 32, apartment_type_id: 0, amount: "70"}
    - {segment_id: 32, amount: "65", valid_from: "2024-01-01"}
  shabbat_times:
    "2025-03-07": {enter: "17:32"}
    "2025-03-08": {exit: "18:47"}
  reports:
    - {id: 1, person_id: 1, date: "2025-03-03", start: "08:00", end: "16:00", shift_type_id: 1, apartment_id: 10}
  payment_components:
    - {person_id: 1, year: 2025, month: 3, travel: "120.50", extras: "0"}

DEFAULTS:
  - A shift type without a category is classified from its name (legacy
    catalogs). A configured category always wins.
  - Segment order defaults to list position; type defaults to work.
  - People default to active.

SEE ALSO:
  - shift/types.go: Type, Segment, Category
  - store/sqlite: Seed
  - store/memory: New
*/
package factory

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/payroll"
	"github.com/warp/wage-engine/rates"
	"github.com/warp/wage-engine/shift"
	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// FILE SCHEMA TYPES
// =============================================================================

// CatalogFile is the on-disk representation of a catalog.
type CatalogFile struct {
	MinimumWages      []MinimumWageFile          `json:"minimum_wages" yaml:"minimum_wages"`
	ApartmentTypes    []payroll.ApartmentType    `json:"apartment_types" yaml:"apartment_types"`
	Apartments        []payroll.Apartment        `json:"apartments" yaml:"apartments"`
	People            []PersonFile               `json:"people" yaml:"people"`
	ShiftTypes        []ShiftTypeFile            `json:"shift_types" yaml:"shift_types"`
	StandbyRates      []StandbyRateFile          `json:"standby_rates" yaml:"standby_rates"`
	ShabbatTimes      map[string]calendar.Window `json:"shabbat_times" yaml:"shabbat_times"`
	Reports           []ReportFile               `json:"reports" yaml:"reports"`
	PaymentComponents []PaymentComponentsFile    `json:"payment_components" yaml:"payment_components"`
}

type MinimumWageFile struct {
	ValidFrom string `json:"valid_from" yaml:"valid_from"`
	Hourly    string `json:"hourly" yaml:"hourly"`
}

type PersonFile struct {
	ID            int64  `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	MaritalStatus string `json:"marital_status" yaml:"marital_status"`
	Active        *bool  `json:"active,omitempty" yaml:"active,omitempty"`
}

type ShiftTypeFile struct {
	ID          int64         `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Color       string        `json:"color,omitempty" yaml:"color,omitempty"`
	Category    string        `json:"category,omitempty" yaml:"category,omitempty"`
	MinimumWage bool          `json:"minimum_wage" yaml:"minimum_wage"`
	RateAgorot  int64         `json:"rate_agorot,omitempty" yaml:"rate_agorot,omitempty"`
	Segments    []SegmentFile `json:"segments,omitempty" yaml:"segments,omitempty"`
}

type SegmentFile struct {
	ID          int64  `json:"id" yaml:"id"`
	Start       string `json:"start" yaml:"start"`
	End         string `json:"end" yaml:"end"`
	WagePercent int    `json:"wage_percent" yaml:"wage_percent"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"` // work, standby
	Order       *int   `json:"order,omitempty" yaml:"order,omitempty"`
}

type StandbyRateFile struct {
	SegmentID       int64  `json:"segment_id" yaml:"segment_id"`
	ApartmentTypeID int64  `json:"apartment_type_id,omitempty" yaml:"apartment_type_id,omitempty"`
	MaritalStatus   string `json:"marital_status,omitempty" yaml:"marital_status,omitempty"`
	Amount          string `json:"amount" yaml:"amount"`
	ValidFrom       string `json:"valid_from,omitempty" yaml:"valid_from,omitempty"`
}

type ReportFile struct {
	ID                 int64  `json:"id" yaml:"id"`
	PersonID           int64  `json:"person_id" yaml:"person_id"`
	Date               string `json:"date" yaml:"date"`
	Start              string `json:"start" yaml:"start"`
	End                string `json:"end" yaml:"end"`
	ShiftTypeID        int64  `json:"shift_type_id" yaml:"shift_type_id"`
	ApartmentID        int64  `json:"apartment_id,omitempty" yaml:"apartment_id,omitempty"`
	RateOverrideAgorot int64  `json:"rate_override_agorot,omitempty" yaml:"rate_override_agorot,omitempty"`
}

type PaymentComponentsFile struct {
	PersonID int64  `json:"person_id" yaml:"person_id"`
	Year     int    `json:"year" yaml:"year"`
	Month    int    `json:"month" yaml:"month"`
	Travel   string `json:"travel,omitempty" yaml:"travel,omitempty"`
	Extras   string `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is a validated, typed catalog.
type Catalog struct {
	MinimumWages      []rates.MinimumWage
	ApartmentTypes    []payroll.ApartmentType
	Apartments        []payroll.Apartment
	People            []payroll.Person
	ShiftTypes        []shift.Type
	StandbyRates      []rates.StandbyRate
	ShabbatTimes      calendar.ShabbatTimes
	Reports           []payroll.Report
	PaymentComponents []payroll.PaymentComponents
}

// LoadCatalog reads and parses a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses YAML or JSON catalog data.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f CatalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return FromFile(f)
}

// FromFile validates a CatalogFile and converts it to typed records.
func FromFile(f CatalogFile) (*Catalog, error) {
	c := &Catalog{
		ApartmentTypes: f.ApartmentTypes,
		Apartments:     f.Apartments,
		ShabbatTimes:   calendar.ShabbatTimes{},
	}

	for i, w := range f.MinimumWages {
		mw, err := parseMinimumWage(w)
		if err != nil {
			return nil, fmt.Errorf("minimum_wages[%d]: %w", i, err)
		}
		c.MinimumWages = append(c.MinimumWages, mw)
	}

	for _, p := range f.People {
		active := true
		if p.Active != nil {
			active = *p.Active
		}
		c.People = append(c.People, payroll.Person{
			ID:            wage.PersonID(p.ID),
			Name:          p.Name,
			MaritalStatus: p.MaritalStatus,
			Active:        active,
		})
	}

	seen := make(map[int64]bool)
	for i, st := range f.ShiftTypes {
		t, err := ParseShiftType(st)
		if err != nil {
			return nil, fmt.Errorf("shift_types[%d] %q: %w", i, st.Name, err)
		}
		if seen[st.ID] {
			return nil, fmt.Errorf("shift_types[%d]: duplicate id %d", i, st.ID)
		}
		seen[st.ID] = true
		c.ShiftTypes = append(c.ShiftTypes, t)
	}

	for i, r := range f.StandbyRates {
		sr, err := ParseStandbyRate(r)
		if err != nil {
			return nil, fmt.Errorf("standby_rates[%d]: %w", i, err)
		}
		c.StandbyRates = append(c.StandbyRates, sr)
	}

	for date, w := range f.ShabbatTimes {
		if _, err := calendar.ParseISODate(date); err != nil {
			return nil, fmt.Errorf("shabbat_times[%s]: %w", date, err)
		}
		for _, clock := range []string{w.Enter, w.Exit} {
			if clock == "" {
				continue
			}
			if _, err := calendar.ParseClock(clock); err != nil {
				return nil, fmt.Errorf("shabbat_times[%s]: %w", date, err)
			}
		}
		c.ShabbatTimes[date] = w
	}

	for i, r := range f.Reports {
		rep, err := ParseReport(r)
		if err != nil {
			return nil, fmt.Errorf("reports[%d]: %w", i, err)
		}
		c.Reports = append(c.Reports, rep)
	}

	for i, p := range f.PaymentComponents {
		pc, err := parsePaymentComponents(p)
		if err != nil {
			return nil, fmt.Errorf("payment_components[%d]: %w", i, err)
		}
		c.PaymentComponents = append(c.PaymentComponents, pc)
	}
	return c, nil
}

// ShiftTypeMap indexes the catalog's shift types by id.
func (c *Catalog) ShiftTypeMap() map[shift.TypeID]shift.Type {
	out := make(map[shift.TypeID]shift.Type, len(c.ShiftTypes))
	for _, t := range c.ShiftTypes {
		out[t.ID] = t
	}
	return out
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

// ParseShiftType converts one shift type entry.
func ParseShiftType(f ShiftTypeFile) (shift.Type, error) {
	if f.ID <= 0 {
		return shift.Type{}, fmt.Errorf("id must be positive")
	}
	category := shift.CategoryFromName(f.Name)
	if f.Category != "" {
		c, err := shift.ParseCategory(f.Category)
		if err != nil {
			return shift.Type{}, err
		}
		category = c
	}

	t := shift.Type{
		ID:            shift.TypeID(f.ID),
		Name:          f.Name,
		Color:         f.Color,
		Category:      category,
		IsMinimumWage: f.MinimumWage,
		RateAgorot:    f.RateAgorot,
	}
	if !t.IsMinimumWage && t.RateAgorot <= 0 {
		t.IsMinimumWage = true
	}

	for i, sf := range f.Segments {
		s, err := parseSegment(sf, i+1)
		if err != nil {
			return shift.Type{}, fmt.Errorf("segments[%d]: %w", i, err)
		}
		t.Segments = append(t.Segments, s)
	}
	return t, nil
}

func parseSegment(f SegmentFile, position int) (shift.Segment, error) {
	start, err := calendar.ParseClock(f.Start)
	if err != nil {
		return shift.Segment{}, fmt.Errorf("start: %w", err)
	}
	end, err := calendar.ParseClock(f.End)
	if err != nil {
		return shift.Segment{}, fmt.Errorf("end: %w", err)
	}
	kind, err := parseKind(f.Type)
	if err != nil {
		return shift.Segment{}, err
	}
	if f.WagePercent < 0 {
		return shift.Segment{}, fmt.Errorf("wage_percent must not be negative")
	}
	order := position
	if f.Order != nil {
		order = *f.Order
	}
	return shift.Segment{
		ID:          shift.SegmentID(f.ID),
		Start:       start % calendar.MinutesPerDay,
		End:         end % calendar.MinutesPerDay,
		WagePercent: f.WagePercent,
		Kind:        kind,
		Order:       order,
	}, nil
}

func parseKind(s string) (shift.Kind, error) {
	switch s {
	case "", string(shift.KindWork):
		return shift.KindWork, nil
	case string(shift.KindStandby):
		return shift.KindStandby, nil
	}
	return "", fmt.Errorf("unknown segment type %q", s)
}

func parseMinimumWage(f MinimumWageFile) (rates.MinimumWage, error) {
	from, err := calendar.ParseISODate(f.ValidFrom)
	if err != nil {
		return rates.MinimumWage{}, fmt.Errorf("valid_from: %w", err)
	}
	hourly, err := decimal.NewFromString(f.Hourly)
	if err != nil {
		return rates.MinimumWage{}, fmt.Errorf("hourly: %w", err)
	}
	if !hourly.IsPositive() {
		return rates.MinimumWage{}, fmt.Errorf("hourly must be positive")
	}
	return rates.MinimumWage{ValidFrom: from, Hourly: hourly}, nil
}

// ParseStandbyRate converts one standby rate entry. An empty valid_from marks
// the current rate.
func ParseStandbyRate(f StandbyRateFile) (rates.StandbyRate, error) {
	amount, err := decimal.NewFromString(f.Amount)
	if err != nil {
		return rates.StandbyRate{}, fmt.Errorf("amount: %w", err)
	}
	var from time.Time
	if f.ValidFrom != "" {
		if from, err = calendar.ParseISODate(f.ValidFrom); err != nil {
			return rates.StandbyRate{}, fmt.Errorf("valid_from: %w", err)
		}
	}
	return rates.StandbyRate{
		SegmentID:       shift.SegmentID(f.SegmentID),
		ApartmentTypeID: wage.ApartmentTypeID(f.ApartmentTypeID),
		MaritalStatus:   f.MaritalStatus,
		Amount:          amount,
		ValidFrom:       from,
	}, nil
}

// ParseReport converts one report entry. Clock values are kept verbatim.
func ParseReport(f ReportFile) (payroll.Report, error) {
	date, err := calendar.ParseISODate(f.Date)
	if err != nil {
		return payroll.Report{}, fmt.Errorf("date: %w", err)
	}
	return payroll.Report{
		ID:                 wage.ReportID(f.ID),
		PersonID:           wage.PersonID(f.PersonID),
		Date:               date,
		StartTime:          f.Start,
		EndTime:            f.End,
		ShiftTypeID:        shift.TypeID(f.ShiftTypeID),
		ApartmentID:        wage.ApartmentID(f.ApartmentID),
		RateOverrideAgorot: f.RateOverrideAgorot,
	}, nil
}

func parsePaymentComponents(f PaymentComponentsFile) (payroll.PaymentComponents, error) {
	month := calendar.NewMonth(f.Year, time.Month(f.Month))
	if err := month.Validate(); err != nil {
		return payroll.PaymentComponents{}, err
	}
	pc := payroll.PaymentComponents{
		PersonID: wage.PersonID(f.PersonID),
		Month:    month,
		Travel:   decimal.Zero,
		Extras:   decimal.Zero,
	}
	var err error
	if f.Travel != "" {
		if pc.Travel, err = decimal.NewFromString(f.Travel); err != nil {
			return pc, fmt.Errorf("travel: %w", err)
		}
	}
	if f.Extras != "" {
		if pc.Extras, err = decimal.NewFromString(f.Extras); err != nil {
			return pc, fmt.Errorf("extras: %w", err)
		}
	}
	return pc, nil
}
