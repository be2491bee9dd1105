package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/payroll"
	"github.com/warp/wage-engine/store"
)

var march = calendar.NewMonth(2025, time.March)

func seeded(t *testing.T) *store.Memory {
	t.Helper()
	c, err := factory.LoadCatalog("../factory/testdata/catalog.yaml")
	require.NoError(t, err)
	m := store.NewMemory()
	require.NoError(t, m.Seed(context.Background(), c))
	return m
}

func TestMemory_People(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	people, err := m.People(ctx)
	require.NoError(t, err)
	require.Len(t, people, 3)
	assert.Equal(t, "דנה", people[0].Name)

	p, err := m.Person(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "married", p.MaritalStatus)

	_, err = m.Person(ctx, 99)
	assert.ErrorIs(t, err, payroll.ErrPersonNotFound)
	assert.True(t, payroll.IsNotFound(err))
}

func TestMemory_ReportsAreJoinedAndScopedToMonth(t *testing.T) {
	// GIVEN: person 1 has two March reports and one April report
	m := seeded(t)

	// WHEN: March is loaded
	reports, err := m.Reports(context.Background(), 1, march)
	require.NoError(t, err)

	// THEN: only March rows come back, with apartment and marital attributes
	require.Len(t, reports, 2)
	assert.EqualValues(t, 1, reports[0].ID)
	assert.Equal(t, "דירה א", reports[0].ApartmentName)
	assert.EqualValues(t, 1, reports[0].ApartmentTypeID)
	assert.Equal(t, "single", reports[0].MaritalStatus)
	assert.EqualValues(t, 2, reports[1].ApartmentTypeID)

	april, err := m.Reports(context.Background(), 1, march.Next())
	require.NoError(t, err)
	require.Len(t, april, 1)
	assert.Empty(t, april[0].ApartmentName)
}

func TestMemory_AddReportReplacesByID(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	require.NoError(t, m.AddReport(ctx, payroll.Report{
		ID: 1, PersonID: 1, Date: calendar.Date(2025, time.March, 3),
		StartTime: "09:00", EndTime: "17:00", ShiftTypeID: 1,
	}))
	reports, err := m.Reports(ctx, 1, march)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "09:00", reports[0].StartTime)
}

func TestMemory_PaymentComponentsDefaultToZero(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	pc, err := m.PaymentComponents(ctx, 1, march)
	require.NoError(t, err)
	assert.Equal(t, "120.5", pc.Travel.String())
	assert.Equal(t, "30", pc.Extras.String())

	pc, err = m.PaymentComponents(ctx, 2, march)
	require.NoError(t, err)
	assert.True(t, pc.Travel.IsZero())
	assert.True(t, pc.Extras.IsZero())
}

func TestMemory_RatesAndShabbat(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	wages, err := m.MinimumWages(ctx)
	require.NoError(t, err)
	assert.Len(t, wages, 2)

	standby, err := m.StandbyRates(ctx)
	require.NoError(t, err)
	assert.Len(t, standby, 3)

	times, err := m.ShabbatTimes(ctx, calendar.Date(2025, time.March, 1), calendar.Date(2025, time.March, 7))
	require.NoError(t, err)
	assert.Len(t, times, 1, "range is inclusive and excludes 03-08")
	assert.Equal(t, "17:32", times["2025-03-07"].Enter)

	types, err := m.ShiftTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 5)
}
