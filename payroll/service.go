/*
Package payroll runs the wage engine against stored data.

PURPOSE:
  The engine is pure: it takes plain records and returns plain results.
  Service is the caller around it. It reads reports, shift types, rates and
  Sabbath times from a Store and resolves the month's minimum wage and
  payment components. Then it runs the engine, logs diagnostics and records
  metrics.

CONCURRENCY:
  One engine run owns all of its data. Summary fans out across people with a
  bounded number of concurrent runs; each run reads shared caches only.

SEE ALSO:
  - wage/monthly.go: Engine.ComputeMonth
  - rates/cache.go: CachedSource placed in front of the Store
  - api/handlers.go: HTTP surface
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/rates"
	"github.com/warp/wage-engine/wage"
)

const (
	statusOK      = "ok"
	statusInvalid = "invalid"
	statusError   = "error"

	DefaultWorkers = 4
)

// Service computes person-months from a Store.
type Service struct {
	store    Store
	rates    rates.Source
	engine   wage.Engine
	defaults calendar.Defaults
	metrics  *Metrics
	workers  int
	now      func() time.Time
}

type Option func(*Service)

// WithRates reads rate tables and Sabbath times from src instead of the store,
// typically a rates.CachedSource wrapping it.
func WithRates(src rates.Source) Option { return func(s *Service) { s.rates = src } }

func WithMetrics(m *Metrics) Option { return func(s *Service) { s.metrics = m } }

// WithWorkers bounds concurrent runs in Summary.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithShabbatDefaults sets the hours used for dates with no published times.
func WithShabbatDefaults(d calendar.Defaults) Option { return func(s *Service) { s.defaults = d } }

func NewService(store Store, engine wage.Engine, opts ...Option) *Service {
	s := &Service{
		store:    store,
		rates:    store,
		engine:   engine,
		defaults: calendar.DefaultShabbat(),
		workers:  DefaultWorkers,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// People lists everyone in the store, active or not.
func (s *Service) People(ctx context.Context) ([]Person, error) {
	people, err := s.store.People(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	return people, nil
}

// ShabbatDefaults returns the hours used for dates with no published times.
func (s *Service) ShabbatDefaults() calendar.Defaults { return s.defaults }

// =============================================================================
// SINGLE MONTH
// =============================================================================

// Run is one computed person-month.
type Run struct {
	ID          string
	Person      Person
	MinimumWage decimal.Decimal
	ComputedAt  time.Time
	Result      *wage.MonthResult
}

// ComputeMonth loads a person-month and runs the engine on it.
func (s *Service) ComputeMonth(ctx context.Context, id wage.PersonID, month calendar.Month) (*Run, error) {
	started := s.now()
	run, err := s.computeMonth(ctx, id, month)
	s.metrics.observe(statusOf(err), s.now().Sub(started).Seconds())
	if err != nil {
		return nil, err
	}
	s.report(ctx, run)
	return run, nil
}

func (s *Service) computeMonth(ctx context.Context, id wage.PersonID, month calendar.Month) (*Run, error) {
	if err := month.Validate(); err != nil {
		return nil, &wage.InputError{Field: "month", Err: err}
	}

	person, err := s.store.Person(ctx, id)
	if err != nil {
		return nil, err
	}
	in, err := s.loadInput(ctx, person, month)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.ComputeMonth(in)
	if err != nil {
		return nil, err
	}
	return &Run{
		ID:          uuid.NewString(),
		Person:      person,
		MinimumWage: in.MinimumWage,
		ComputedAt:  s.now().UTC(),
		Result:      res,
	}, nil
}

func (s *Service) loadInput(ctx context.Context, person Person, month calendar.Month) (wage.MonthInput, error) {
	in := wage.MonthInput{PersonID: person.ID, Month: month}

	wages, err := s.rates.MinimumWages(ctx)
	if err != nil {
		return in, fmt.Errorf("failed to load minimum wages: %w", err)
	}
	if in.MinimumWage, err = rates.MinimumWageFor(wages, month); err != nil {
		return in, err
	}

	standby, err := s.rates.StandbyRates(ctx)
	if err != nil {
		return in, fmt.Errorf("failed to load standby rates: %w", err)
	}
	in.StandbyRates = rates.NewStandbyTable(standby, month)

	// A workday may reach into the next month's first morning.
	times, err := s.rates.ShabbatTimes(ctx, month.First(), month.Last().AddDate(0, 0, 1))
	if err != nil {
		return in, fmt.Errorf("failed to load shabbat times: %w", err)
	}
	in.Sabbath = calendar.NewShabbatCalendar(times, s.defaults)

	if in.ShiftTypes, err = s.store.ShiftTypes(ctx); err != nil {
		return in, fmt.Errorf("failed to load shift types: %w", err)
	}
	if in.Reports, err = s.store.Reports(ctx, person.ID, month); err != nil {
		return in, fmt.Errorf("failed to load reports: %w", err)
	}

	comp, err := s.store.PaymentComponents(ctx, person.ID, month)
	if err != nil {
		return in, fmt.Errorf("failed to load payment components: %w", err)
	}
	in.Travel, in.Extras = comp.Travel, comp.Extras
	return in, nil
}

// Compute runs the engine on caller-supplied input, bypassing the store.
func (s *Service) Compute(ctx context.Context, in wage.MonthInput) (*Run, error) {
	started := s.now()
	res, err := s.engine.ComputeMonth(in)
	s.metrics.observe(statusOf(err), s.now().Sub(started).Seconds())
	if err != nil {
		return nil, err
	}
	run := &Run{
		ID:          uuid.NewString(),
		Person:      Person{ID: in.PersonID},
		MinimumWage: in.MinimumWage,
		ComputedAt:  s.now().UTC(),
		Result:      res,
	}
	s.report(ctx, run)
	return run, nil
}

func (s *Service) report(ctx context.Context, run *Run) {
	log := zerolog.Ctx(ctx).With().
		Str("run_id", run.ID).
		Int64("person_id", int64(run.Person.ID)).
		Str("month", run.Result.Month.String()).
		Logger()

	for _, d := range run.Result.Diagnostics {
		s.metrics.countDiagnostic(string(d.Code))
		if d.Severity == wage.SeverityWarning {
			log.Warn().
				Str("code", string(d.Code)).
				Int64("report_id", int64(d.ReportID)).
				Str("date", calendar.ISODate(d.Date)).
				Msg(d.Message)
		}
	}
	log.Debug().
		Int("days", len(run.Result.Days)).
		Int("diagnostics", len(run.Result.Diagnostics)).
		Str("total", run.Result.Totals.TotalPayment.StringFixed(2)).
		Msg("month computed")
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return statusOK
	case IsClientError(err), IsNotFound(err):
		return statusInvalid
	}
	return statusError
}

// =============================================================================
// BULK SUMMARY
// =============================================================================

// Summary is one person's monthly totals in a bulk run.
type Summary struct {
	Person      Person
	RunID       string
	Totals      wage.MonthlyTotals
	Diagnostics int
	Err         error
}

// Summary computes the month for every active person. A failure for one
// person is recorded on its row; only invalid input or a failure to list
// people fails the whole call.
func (s *Service) Summary(ctx context.Context, month calendar.Month) ([]Summary, error) {
	if err := month.Validate(); err != nil {
		return nil, &wage.InputError{Field: "month", Err: err}
	}
	people, err := s.store.People(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}

	var active []Person
	for _, p := range people {
		if p.Active {
			active = append(active, p)
		}
	}

	out := make([]Summary, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, p := range active {
		i, p := i, p // per-iteration copies; go.mod targets 1.21 loop semantics
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := Summary{Person: p}
			run, err := s.ComputeMonth(gctx, p.ID, month)
			if err != nil {
				row.Err = err
				zerolog.Ctx(ctx).Error().Err(err).Int64("person_id", int64(p.ID)).Msg("summary run failed")
			} else {
				row.RunID = run.ID
				row.Totals = run.Result.Totals
				row.Diagnostics = len(run.Result.Diagnostics)
			}
			out[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("summary failed: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Person.ID < out[j].Person.ID })
	return out, nil
}
