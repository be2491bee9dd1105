/*
main.go - Application entry point

PURPOSE:
  Starts the wage engine HTTP server, or computes a single person-month
  from the command line.

COMMANDS:
  serve     HTTP API with graceful shutdown
  compute   One person-month to stdout (JSON) or to an .xlsx workbook

STARTUP SEQUENCE (serve):
  1. Load .env and the YAML config
  2. Open the SQLite store, seed the catalog if one is configured
  3. Put the rates cache in front of the store
  4. Build the payroll service, scheduler and router
  5. Serve until SIGINT/SIGTERM, then drain for 30s

EXAMPLES:
  ./server serve --config config.yaml
  ./server compute --person 1 --year 2025 --month 3
  ./server compute --person 1 --year 2025 --month 3 --xlsx march.xlsx

ENVIRONMENT:
  Config values may reference ${VARS}; a .env file in the working
  directory is loaded first.

SEE ALSO:
  - config/config.go: Config file layout and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/warp/wage-engine/api"
	"github.com/warp/wage-engine/calendar"
	"github.com/warp/wage-engine/config"
	"github.com/warp/wage-engine/export"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/payroll"
	"github.com/warp/wage-engine/rates"
	"github.com/warp/wage-engine/store/sqlite"
	"github.com/warp/wage-engine/wage"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "Wage engine for shift-based payroll",
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Path to the YAML config file")

	rootCmd.AddCommand(serveCmd(), computeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what both commands share.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	store   *sqlite.Store
	rates   *rates.CachedSource
	service *payroll.Service
	reg     *prometheus.Registry
}

func setup(ctx context.Context) (*app, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	st, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Catalog != "" {
		cat, err := factory.LoadCatalog(cfg.Catalog)
		if err != nil {
			st.Close()
			return nil, err
		}
		if err := st.Seed(ctx, cat); err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
		logger.Info().
			Str("catalog", cfg.Catalog).
			Int("people", len(cat.People)).
			Int("shift_types", len(cat.ShiftTypes)).
			Int("reports", len(cat.Reports)).
			Msg("catalog seeded")
	}

	shabbat, err := cfg.ShabbatDefaults()
	if err != nil {
		st.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cached := rates.NewCachedSource(st, cfg.CacheTTL())
	svc := payroll.NewService(st, wage.NewEngine(cfg.Policy),
		payroll.WithRates(cached),
		payroll.WithMetrics(payroll.NewMetrics(reg)),
		payroll.WithWorkers(cfg.Summary.Workers),
		payroll.WithShabbatDefaults(shabbat),
	)

	return &app{cfg: cfg, logger: logger, store: st, rates: cached, service: svc, reg: reg}, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.store.Close()
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	handler := api.NewHandler(a.service)

	if a.cfg.Summary.Scheduled {
		sched := api.NewSummaryScheduler(a.service, a.logger)
		sched.CheckInterval = a.cfg.SummaryInterval()
		sched.OnRun = a.rates.Invalidate
		handler.Scheduler = sched
		sched.Start()
		defer sched.Stop()
	}

	router := api.NewRouter(handler, api.Options{
		Logger:         a.logger,
		Gatherer:       a.reg,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Msgf("starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	a.logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.logger.Info().Msg("server stopped")
	return nil
}

func computeCmd() *cobra.Command {
	var (
		personID int64
		year     int
		month    int
		xlsxPath string
	)
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Compute one person-month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.store.Close()

			ctx := a.logger.WithContext(cmd.Context())
			run, err := a.service.ComputeMonth(ctx, wage.PersonID(personID), calendar.NewMonth(year, time.Month(month)))
			if err != nil {
				return err
			}

			if xlsxPath == "" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(api.NewMonthDTO(run))
			}

			f, err := os.Create(xlsxPath)
			if err != nil {
				return err
			}
			if err := export.WriteMonth(f, run.Person.Name, run.Result); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			a.logger.Info().Str("path", xlsxPath).Str("run_id", run.ID).Msg("workbook written")
			return nil
		},
	}
	cmd.Flags().Int64Var(&personID, "person", 0, "Person id")
	cmd.Flags().IntVar(&year, "year", 0, "Year")
	cmd.Flags().IntVar(&month, "month", 0, "Month (1-12)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write an .xlsx workbook to this path instead of JSON")
	_ = cmd.MarkFlagRequired("person")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("month")
	return cmd
}
