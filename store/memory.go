// Package store provides payroll.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/payroll"
	"github.com/warp/wage-engine/rates"
	"github.com/warp/wage-engine/shift"
	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu             sync.RWMutex
	people         map[wage.PersonID]payroll.Person
	apartments     map[wage.ApartmentID]payroll.Apartment
	apartmentTypes map[wage.ApartmentTypeID]payroll.ApartmentType
	shiftTypes     map[shift.TypeID]shift.Type
	reports        map[wage.PersonID][]payroll.Report
	components     map[componentKey]payroll.PaymentComponents
	minimumWages   []rates.MinimumWage
	standbyRates   []rates.StandbyRate
	shabbat        calendar.ShabbatTimes
}

type componentKey struct {
	PersonID wage.PersonID
	Month    calendar.Month
}

var _ payroll.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		people:         make(map[wage.PersonID]payroll.Person),
		apartments:     make(map[wage.ApartmentID]payroll.Apartment),
		apartmentTypes: make(map[wage.ApartmentTypeID]payroll.ApartmentType),
		shiftTypes:     make(map[shift.TypeID]shift.Type),
		reports:        make(map[wage.PersonID][]payroll.Report),
		components:     make(map[componentKey]payroll.PaymentComponents),
		shabbat:        calendar.ShabbatTimes{},
	}
}

// Seed loads a catalog. Records with an existing id are replaced; rate and
// minimum wage lists are appended.
func (m *Memory) Seed(_ context.Context, c *factory.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range c.ApartmentTypes {
		m.apartmentTypes[t.ID] = t
	}
	for _, a := range c.Apartments {
		m.apartments[a.ID] = a
	}
	for _, p := range c.People {
		m.people[p.ID] = p
	}
	for _, t := range c.ShiftTypes {
		m.shiftTypes[t.ID] = t
	}
	for _, r := range c.Reports {
		m.addReportLocked(r)
	}
	for _, pc := range c.PaymentComponents {
		m.components[componentKey{pc.PersonID, pc.Month}] = pc
	}
	m.minimumWages = append(m.minimumWages, c.MinimumWages...)
	m.standbyRates = append(m.standbyRates, c.StandbyRates...)
	for date, w := range c.ShabbatTimes {
		m.shabbat[date] = w
	}
	return nil
}

// AddReport stores one report, replacing any report with the same id.
func (m *Memory) AddReport(_ context.Context, r payroll.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addReportLocked(r)
	return nil
}

func (m *Memory) addReportLocked(r payroll.Report) {
	list := m.reports[r.PersonID]
	for i := range list {
		if list[i].ID == r.ID {
			list[i] = r
			return
		}
	}
	m.reports[r.PersonID] = append(list, r)
}

// =============================================================================
// READS
// =============================================================================

func (m *Memory) People(_ context.Context) ([]payroll.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]payroll.Person, 0, len(m.people))
	for _, p := range m.people {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Person(_ context.Context, id wage.PersonID) (payroll.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.people[id]
	if !ok {
		return payroll.Person{}, payroll.ErrPersonNotFound
	}
	return p, nil
}

func (m *Memory) ShiftTypes(_ context.Context) (map[shift.TypeID]shift.Type, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[shift.TypeID]shift.Type, len(m.shiftTypes))
	for id, t := range m.shiftTypes {
		out[id] = t
	}
	return out, nil
}

// Reports returns the person's reports dated in month, joined with apartment
// and marital status, ordered by date, start time and id.
func (m *Memory) Reports(_ context.Context, person wage.PersonID, month calendar.Month) ([]wage.TimeReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := m.people[person]
	var out []wage.TimeReport
	for _, r := range m.reports[person] {
		if !month.Contains(r.Date) {
			continue
		}
		tr := wage.TimeReport{
			ID:                 r.ID,
			PersonID:           r.PersonID,
			Date:               calendar.DateOf(r.Date),
			StartTime:          r.StartTime,
			EndTime:            r.EndTime,
			ShiftTypeID:        r.ShiftTypeID,
			ApartmentID:        r.ApartmentID,
			MaritalStatus:      p.MaritalStatus,
			RateOverrideAgorot: r.RateOverrideAgorot,
		}
		if a, ok := m.apartments[r.ApartmentID]; ok {
			tr.ApartmentName = a.Name
			tr.ApartmentTypeID = a.TypeID
		}
		out = append(out, tr)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// PaymentComponents returns zero amounts when none are stored.
func (m *Memory) PaymentComponents(_ context.Context, person wage.PersonID, month calendar.Month) (payroll.PaymentComponents, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if pc, ok := m.components[componentKey{person, month}]; ok {
		return pc, nil
	}
	return payroll.PaymentComponents{
		PersonID: person,
		Month:    month,
		Travel:   decimal.Zero,
		Extras:   decimal.Zero,
	}, nil
}

func (m *Memory) MinimumWages(_ context.Context) ([]rates.MinimumWage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]rates.MinimumWage(nil), m.minimumWages...), nil
}

func (m *Memory) StandbyRates(_ context.Context) ([]rates.StandbyRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]rates.StandbyRate(nil), m.standbyRates...), nil
}

// ShabbatTimes returns the published windows dated from..to inclusive.
func (m *Memory) ShabbatTimes(_ context.Context, from, to time.Time) (calendar.ShabbatTimes, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lo, hi := calendar.ISODate(from), calendar.ISODate(to)
	out := calendar.ShabbatTimes{}
	for date, w := range m.shabbat {
		if date >= lo && date <= hi {
			out[date] = w
		}
	}
	return out, nil
}
