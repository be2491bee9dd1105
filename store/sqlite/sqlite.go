/*
Package sqlite provides a SQLite-backed payroll.Store.

PURPOSE:
  Persists people, apartments, shift types with their segment templates,
  time reports, rate tables, Sabbath times and monthly payment components.
  Reads used by a wage run are joined here so the engine receives complete
  TimeReport records.

KEY TABLES:
  people, apartment_types, apartments:    who worked and where
  shift_types, shift_segments:            segment templates per shift type
  time_reports:                           raw clock-in/out rows
  standby_rates:                          current (valid_from NULL) and historical
  minimum_wages:                          hourly minimum wage history
  shabbat_times:                          published enter/exit clocks per date
  payment_components:                     travel and extras per person-month

INDEXES:
  - idx_time_reports_person_date: month load (hot path)
  - idx_standby_rates_lookup:     rate resolution

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Runs read concurrently; Seed takes
  the write lock.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so concurrent summary runs
  don't block each other.

USAGE:
  store, err := sqlite.New("./data/wage.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := payroll.NewService(store, wage.NewEngine(wage.DefaultPolicy()))

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - payroll/types.go: Store interface
  - store/memory.go: In-memory implementation for testing
  - factory/catalog.go: Catalog files accepted by Seed
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/payroll"
	"github.com/warp/wage-engine/rates"
	"github.com/warp/wage-engine/shift"
	"github.com/warp/wage-engine/wage"
)

// Store implements payroll.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ payroll.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// NewFromDB wraps an open database without migrating it.
func NewFromDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS people (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		marital_status TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS apartment_types (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS apartments (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		type_id INTEGER REFERENCES apartment_types(id)
	);

	CREATE TABLE IF NOT EXISTS shift_types (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT 'regular',
		is_minimum_wage INTEGER NOT NULL DEFAULT 1,
		rate_agorot INTEGER NOT NULL DEFAULT 0
	);

	-- Template segments; clocks are HH:MM, end at or before start crosses midnight
	CREATE TABLE IF NOT EXISTS shift_segments (
		id INTEGER PRIMARY KEY,
		shift_type_id INTEGER NOT NULL REFERENCES shift_types(id) ON DELETE CASCADE,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		wage_percent INTEGER NOT NULL DEFAULT 100,
		segment_type TEXT NOT NULL DEFAULT 'work',
		order_index INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_shift_segments_type
		ON shift_segments(shift_type_id, order_index);

	-- Empty clocks are stored as-is and reported as diagnostics at run time
	CREATE TABLE IF NOT EXISTS time_reports (
		id INTEGER PRIMARY KEY,
		person_id INTEGER NOT NULL REFERENCES people(id),
		date TEXT NOT NULL,
		start_time TEXT NOT NULL DEFAULT '',
		end_time TEXT NOT NULL DEFAULT '',
		shift_type_id INTEGER NOT NULL DEFAULT 0,
		apartment_id INTEGER,
		rate_override_agorot INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_time_reports_person_date
		ON time_reports(person_id, date);

	CREATE TABLE IF NOT EXISTS standby_rates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		segment_id INTEGER NOT NULL,
		apartment_type_id INTEGER NOT NULL DEFAULT 0,
		marital_status TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL,
		valid_from TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_standby_rates_lookup
		ON standby_rates(segment_id, apartment_type_id, marital_status);

	CREATE TABLE IF NOT EXISTS minimum_wages (
		valid_from TEXT PRIMARY KEY,
		hourly TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS shabbat_times (
		date TEXT PRIMARY KEY,
		enter_time TEXT NOT NULL DEFAULT '',
		exit_time TEXT NOT NULL DEFAULT '',
		holiday INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS payment_components (
		person_id INTEGER NOT NULL REFERENCES people(id),
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		travel TEXT NOT NULL DEFAULT '0',
		extras TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (person_id, year, month)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SEED
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Seed writes a catalog in one transaction. Rows with an existing key are
// updated and a shift type's segments are replaced as a whole. Standby rates
// have no natural key and are appended.
func (s *Store) Seed(ctx context.Context, c *factory.Catalog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []func(context.Context, execer, *factory.Catalog) error{
		seedApartments, seedPeople, seedShiftTypes, seedRates, seedShabbat, seedReports, seedComponents,
	}
	for _, step := range steps {
		if err := step(ctx, tx, c); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func seedApartments(ctx context.Context, db execer, c *factory.Catalog) error {
	for _, t := range c.ApartmentTypes {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO apartment_types (id, name) VALUES (?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
			t.ID, t.Name); err != nil {
			return fmt.Errorf("failed to insert apartment type %d: %w", t.ID, err)
		}
	}
	for _, a := range c.Apartments {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO apartments (id, name, type_id) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name, type_id = excluded.type_id`,
			a.ID, a.Name, nullID(int64(a.TypeID))); err != nil {
			return fmt.Errorf("failed to insert apartment %d: %w", a.ID, err)
		}
	}
	return nil
}

func seedPeople(ctx context.Context, db execer, c *factory.Catalog) error {
	for _, p := range c.People {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO people (id, name, marital_status, active) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, marital_status = excluded.marital_status, active = excluded.active`,
			p.ID, p.Name, p.MaritalStatus, p.Active); err != nil {
			return fmt.Errorf("failed to insert person %d: %w", p.ID, err)
		}
	}
	return nil
}

func seedShiftTypes(ctx context.Context, db execer, c *factory.Catalog) error {
	for _, t := range c.ShiftTypes {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO shift_types (id, name, color, category, is_minimum_wage, rate_agorot)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name, color = excluded.color, category = excluded.category,
				is_minimum_wage = excluded.is_minimum_wage, rate_agorot = excluded.rate_agorot`,
			t.ID, t.Name, t.Color, string(t.Category), t.IsMinimumWage, t.RateAgorot); err != nil {
			return fmt.Errorf("failed to insert shift type %d: %w", t.ID, err)
		}
		if _, err := db.ExecContext(ctx, `DELETE FROM shift_segments WHERE shift_type_id = ?`, t.ID); err != nil {
			return fmt.Errorf("failed to clear segments of shift type %d: %w", t.ID, err)
		}
		for _, seg := range t.Segments {
			if _, err := db.ExecContext(ctx, `
				INSERT OR REPLACE INTO shift_segments
					(id, shift_type_id, start_time, end_time, wage_percent, segment_type, order_index)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				seg.ID, t.ID, calendar.FormatClock(seg.Start), calendar.FormatClock(seg.End),
				seg.WagePercent, string(seg.Kind), seg.Order); err != nil {
				return fmt.Errorf("failed to insert segment %d: %w", seg.ID, err)
			}
		}
	}
	return nil
}

func seedRates(ctx context.Context, db execer, c *factory.Catalog) error {
	for _, w := range c.MinimumWages {
		if _, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO minimum_wages (valid_from, hourly) VALUES (?, ?)`,
			calendar.ISODate(w.ValidFrom), w.Hourly.String()); err != nil {
			return fmt.Errorf("failed to insert minimum wage: %w", err)
		}
	}
	for _, r := range c.StandbyRates {
		var from sql.NullString
		if !r.ValidFrom.IsZero() {
			from = sql.NullString{String: calendar.ISODate(r.ValidFrom), Valid: true}
		}
		if _, err := db.ExecContext(ctx, `
			INSERT INTO standby_rates (segment_id, apartment_type_id, marital_status, amount, valid_from)
			VALUES (?, ?, ?, ?, ?)`,
			r.SegmentID, r.ApartmentTypeID, r.MaritalStatus, r.Amount.String(), from); err != nil {
			return fmt.Errorf("failed to insert standby rate: %w", err)
		}
	}
	return nil
}

func seedShabbat(ctx context.Context, db execer, c *factory.Catalog) error {
	for date, w := range c.ShabbatTimes {
		if _, err := db.ExecContext(ctx,
			`INSERT OR REPLACE INTO shabbat_times (date, enter_time, exit_time, holiday) VALUES (?, ?, ?, ?)`,
			date, w.Enter, w.Exit, w.Holiday); err != nil {
			return fmt.Errorf("failed to insert shabbat times for %s: %w", date, err)
		}
	}
	return nil
}

func seedReports(ctx context.Context, db execer, c *factory.Catalog) error {
	for _, r := range c.Reports {
		if err := insertReport(ctx, db, r); err != nil {
			return err
		}
	}
	return nil
}

func seedComponents(ctx context.Context, db execer, c *factory.Catalog) error {
	for _, pc := range c.PaymentComponents {
		if _, err := db.ExecContext(ctx, `
			INSERT OR REPLACE INTO payment_components (person_id, year, month, travel, extras)
			VALUES (?, ?, ?, ?, ?)`,
			pc.PersonID, pc.Month.Year, int(pc.Month.Month), pc.Travel.String(), pc.Extras.String()); err != nil {
			return fmt.Errorf("failed to insert payment components: %w", err)
		}
	}
	return nil
}

// AddReport stores one report, replacing any report with the same id.
func (s *Store) AddReport(ctx context.Context, r payroll.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return insertReport(ctx, s.db, r)
}

func insertReport(ctx context.Context, db execer, r payroll.Report) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO time_reports
			(id, person_id, date, start_time, end_time, shift_type_id, apartment_id, rate_override_agorot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.PersonID, calendar.ISODate(r.Date), r.StartTime, r.EndTime,
		r.ShiftTypeID, nullID(int64(r.ApartmentID)), r.RateOverrideAgorot)
	if err != nil {
		return fmt.Errorf("failed to insert report %d: %w", r.ID, err)
	}
	return nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// =============================================================================
// PEOPLE
// =============================================================================

func (s *Store) People(ctx context.Context) ([]payroll.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, marital_status, active FROM people ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query people: %w", err)
	}
	defer rows.Close()

	var people []payroll.Person
	for rows.Next() {
		var p payroll.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.MaritalStatus, &p.Active); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

func (s *Store) Person(ctx context.Context, id wage.PersonID) (payroll.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p payroll.Person
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, marital_status, active FROM people WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.MaritalStatus, &p.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return p, payroll.ErrPersonNotFound
	}
	if err != nil {
		return p, fmt.Errorf("failed to query person: %w", err)
	}
	return p, nil
}

// =============================================================================
// SHIFT TYPES
// =============================================================================

func (s *Store) ShiftTypes(ctx context.Context) (map[shift.TypeID]shift.Type, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, color, category, is_minimum_wage, rate_agorot FROM shift_types`)
	if err != nil {
		return nil, fmt.Errorf("failed to query shift types: %w", err)
	}
	defer rows.Close()

	types := make(map[shift.TypeID]shift.Type)
	for rows.Next() {
		var (
			t        shift.Type
			category string
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &category, &t.IsMinimumWage, &t.RateAgorot); err != nil {
			return nil, fmt.Errorf("failed to scan shift type: %w", err)
		}
		if t.Category, err = shift.ParseCategory(category); err != nil {
			return nil, fmt.Errorf("shift type %d: %w", t.ID, err)
		}
		types[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadSegments(ctx, types); err != nil {
		return nil, err
	}
	return types, nil
}

func (s *Store) loadSegments(ctx context.Context, types map[shift.TypeID]shift.Type) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shift_type_id, start_time, end_time, wage_percent, segment_type, order_index
		FROM shift_segments
		ORDER BY shift_type_id, order_index, id`)
	if err != nil {
		return fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seg        shift.Segment
			typeID     shift.TypeID
			start, end string
			kind       string
		)
		if err := rows.Scan(&seg.ID, &typeID, &start, &end, &seg.WagePercent, &kind, &seg.Order); err != nil {
			return fmt.Errorf("failed to scan segment: %w", err)
		}
		if seg.Start, err = calendar.ParseClock(start); err != nil {
			return fmt.Errorf("segment %d start: %w", seg.ID, err)
		}
		if seg.End, err = calendar.ParseClock(end); err != nil {
			return fmt.Errorf("segment %d end: %w", seg.ID, err)
		}
		seg.Kind = shift.Kind(kind)

		t, ok := types[typeID]
		if !ok {
			continue
		}
		t.Segments = append(t.Segments, seg)
		types[typeID] = t
	}
	return rows.Err()
}

// =============================================================================
// REPORTS
// =============================================================================

// Reports returns the person's reports dated in month, joined with apartment
// and marital status, ordered by date, start time and id.
func (s *Store) Reports(ctx context.Context, person wage.PersonID, month calendar.Month) ([]wage.TimeReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.person_id, r.date, r.start_time, r.end_time, r.shift_type_id,
		       COALESCE(r.apartment_id, 0), COALESCE(a.name, ''), COALESCE(a.type_id, 0),
		       p.marital_status, r.rate_override_agorot
		FROM time_reports r
		JOIN people p ON p.id = r.person_id
		LEFT JOIN apartments a ON a.id = r.apartment_id
		WHERE r.person_id = ? AND r.date >= ? AND r.date <= ?
		ORDER BY r.date, r.start_time, r.id`,
		person, calendar.ISODate(month.First()), calendar.ISODate(month.Last()))
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []wage.TimeReport
	for rows.Next() {
		var (
			r    wage.TimeReport
			date string
		)
		if err := rows.Scan(&r.ID, &r.PersonID, &date, &r.StartTime, &r.EndTime, &r.ShiftTypeID,
			&r.ApartmentID, &r.ApartmentName, &r.ApartmentTypeID, &r.MaritalStatus, &r.RateOverrideAgorot); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		if r.Date, err = calendar.ParseISODate(date); err != nil {
			return nil, fmt.Errorf("report %d date: %w", r.ID, err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// PaymentComponents returns zero amounts when none are stored.
func (s *Store) PaymentComponents(ctx context.Context, person wage.PersonID, month calendar.Month) (payroll.PaymentComponents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pc := payroll.PaymentComponents{PersonID: person, Month: month, Travel: decimal.Zero, Extras: decimal.Zero}
	var travel, extras string
	err := s.db.QueryRowContext(ctx,
		`SELECT travel, extras FROM payment_components WHERE person_id = ? AND year = ? AND month = ?`,
		person, month.Year, int(month.Month),
	).Scan(&travel, &extras)
	if errors.Is(err, sql.ErrNoRows) {
		return pc, nil
	}
	if err != nil {
		return pc, fmt.Errorf("failed to query payment components: %w", err)
	}
	if pc.Travel, err = decimal.NewFromString(travel); err != nil {
		return pc, fmt.Errorf("travel: %w", err)
	}
	if pc.Extras, err = decimal.NewFromString(extras); err != nil {
		return pc, fmt.Errorf("extras: %w", err)
	}
	return pc, nil
}

// =============================================================================
// RATES (rates.Source)
// =============================================================================

func (s *Store) MinimumWages(ctx context.Context) ([]rates.MinimumWage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT valid_from, hourly FROM minimum_wages ORDER BY valid_from`)
	if err != nil {
		return nil, fmt.Errorf("failed to query minimum wages: %w", err)
	}
	defer rows.Close()

	var out []rates.MinimumWage
	for rows.Next() {
		var from, hourly string
		if err := rows.Scan(&from, &hourly); err != nil {
			return nil, fmt.Errorf("failed to scan minimum wage: %w", err)
		}
		w := rates.MinimumWage{}
		if w.ValidFrom, err = calendar.ParseISODate(from); err != nil {
			return nil, err
		}
		if w.Hourly, err = decimal.NewFromString(hourly); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *Store) StandbyRates(ctx context.Context) ([]rates.StandbyRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT segment_id, apartment_type_id, marital_status, amount, valid_from
		FROM standby_rates
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query standby rates: %w", err)
	}
	defer rows.Close()

	var out []rates.StandbyRate
	for rows.Next() {
		var (
			r      rates.StandbyRate
			amount string
			from   sql.NullString
		)
		if err := rows.Scan(&r.SegmentID, &r.ApartmentTypeID, &r.MaritalStatus, &amount, &from); err != nil {
			return nil, fmt.Errorf("failed to scan standby rate: %w", err)
		}
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if from.Valid {
			if r.ValidFrom, err = calendar.ParseISODate(from.String); err != nil {
				return nil, err
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ShabbatTimes returns the published windows dated from..to inclusive.
func (s *Store) ShabbatTimes(ctx context.Context, from, to time.Time) (calendar.ShabbatTimes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, enter_time, exit_time, holiday FROM shabbat_times WHERE date >= ? AND date <= ?`,
		calendar.ISODate(from), calendar.ISODate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query shabbat times: %w", err)
	}
	defer rows.Close()

	out := calendar.ShabbatTimes{}
	for rows.Next() {
		var (
			date string
			w    calendar.Window
		)
		if err := rows.Scan(&date, &w.Enter, &w.Exit, &w.Holiday); err != nil {
			return nil, fmt.Errorf("failed to scan shabbat times: %w", err)
		}
		out[date] = w
	}
	return out, rows.Err()
}
