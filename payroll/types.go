package payroll

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/rates"
	"github.com/warp/wage-engine/shift"
	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// SENTINEL ERRORS
// =============================================================================

var (
	// ErrPersonNotFound is returned when a person id is unknown.
	ErrPersonNotFound = errors.New("person not found")
)

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPersonNotFound) ||
		errors.Is(err, rates.ErrMinimumWageNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return wage.IsClientError(err)
}

// =============================================================================
// RECORDS
// =============================================================================

type Person struct {
	ID            wage.PersonID `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	MaritalStatus string        `json:"marital_status" yaml:"marital_status"`
	Active        bool          `json:"active" yaml:"active"`
}

type ApartmentType struct {
	ID   wage.ApartmentTypeID `json:"id" yaml:"id"`
	Name string               `json:"name" yaml:"name"`
}

type Apartment struct {
	ID     wage.ApartmentID     `json:"id" yaml:"id"`
	Name   string               `json:"name" yaml:"name"`
	TypeID wage.ApartmentTypeID `json:"type_id" yaml:"type_id"`
}

// Report is a stored clock-in/out row before joins.
type Report struct {
	ID                 wage.ReportID
	PersonID           wage.PersonID
	Date               time.Time
	StartTime          string
	EndTime            string
	ShiftTypeID        shift.TypeID
	ApartmentID        wage.ApartmentID
	RateOverrideAgorot int64
}

// PaymentComponents are a person-month's incidental payments.
type PaymentComponents struct {
	PersonID wage.PersonID
	Month    calendar.Month
	Travel   decimal.Decimal
	Extras   decimal.Decimal
}

// =============================================================================
// STORE
// =============================================================================

// Store reads everything a run needs. Reports come back joined with apartment
// and person attributes.
type Store interface {
	rates.Source

	People(ctx context.Context) ([]Person, error)
	Person(ctx context.Context, id wage.PersonID) (Person, error)
	ShiftTypes(ctx context.Context) (map[shift.TypeID]shift.Type, error)
	Reports(ctx context.Context, person wage.PersonID, month calendar.Month) ([]wage.TimeReport, error)
	PaymentComponents(ctx context.Context, person wage.PersonID, month calendar.Month) (PaymentComponents, error)
}
