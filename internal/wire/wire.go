// Package wire provides dependency injection for the civitas application.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"

	cliadapter "github.com/example/civitas/internal/adapters/cli"
	"github.com/example/civitas/internal/adapters/clock"
	"github.com/example/civitas/internal/adapters/kafka"
	"github.com/example/civitas/internal/adapters/sqlite"
	"github.com/example/civitas/internal/app"
	"github.com/example/civitas/internal/config"
	"github.com/example/civitas/internal/db"
	"github.com/example/civitas/internal/ports/primary"
	"github.com/example/civitas/internal/ports/secondary"
)

var (
	cfg               *config.Config
	database          *sql.DB
	publisher         secondary.EventPublisher
	governanceService primary.GovernanceService
	economyService    primary.EconomyService
	buildingService   primary.BuildingService
	worldCycleService primary.WorldCycleService
	once              sync.Once
)

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// Database returns the shared database handle.
func Database() *sql.DB {
	once.Do(initServices)
	return database
}

// GovernanceService returns the singleton GovernanceService instance.
func GovernanceService() primary.GovernanceService {
	once.Do(initServices)
	return governanceService
}

// EconomyService returns the singleton EconomyService instance.
func EconomyService() primary.EconomyService {
	once.Do(initServices)
	return economyService
}

// BuildingService returns the singleton BuildingService instance.
func BuildingService() primary.BuildingService {
	once.Do(initServices)
	return buildingService
}

// WorldCycleService returns the singleton WorldCycleService instance.
func WorldCycleService() primary.WorldCycleService {
	once.Do(initServices)
	return worldCycleService
}

// Close flushes the event publisher and closes the database.
// Safe to call when nothing was initialized.
func Close() {
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			slog.Warn("failed to close event publisher", "error", err)
		}
	}
	if database != nil {
		database.Close()
	}
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	cfg, err = config.Load("")
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	slog.SetDefault(newLogger(cfg.Log, os.Stderr))

	database, err = db.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	tuning, err := cfg.Tuning()
	if err != nil {
		log.Fatalf("invalid economy configuration: %v", err)
	}
	rules, err := cfg.BuildingRules()
	if err != nil {
		log.Fatalf("invalid building configuration: %v", err)
	}

	// Secondary adapters
	transactor := sqlite.NewTransactor(database)
	publisher = newPublisher(cfg.Events)
	systemClock := clock.System{}

	executor := app.NewEffectExecutor()
	uow := app.NewUnitOfWork(transactor, executor, publisher, app.RetryPolicy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay(),
	})

	// Services (primary ports implementation)
	governance := app.NewGovernanceService(uow, systemClock, cfg.BeaconWindow())
	economy := app.NewEconomyService(uow, systemClock, tuning, app.FocusPolicy{
		Cost:     cfg.Governance.FocusChangeCost,
		Cooldown: cfg.FocusCooldown(),
	})
	buildings := app.NewBuildingService(uow, systemClock, rules)

	governanceService = governance
	economyService = economy
	buildingService = buildings
	worldCycleService = app.NewWorldCycleService(uow, governance, buildings, economy, app.CycleOptions{
		Interval:    cfg.CycleInterval(),
		CityTimeout: cfg.CityTimeout(),
		Parallelism: cfg.Cycle.Parallelism,
	})
}

func newPublisher(events config.EventsConfig) secondary.EventPublisher {
	if len(events.KafkaBrokers) == 0 {
		return kafka.NoopPublisher{}
	}
	return kafka.NewPublisher(events.KafkaBrokers, events.KafkaTopic)
}

func newLogger(lc config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lc.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(lc.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// CityAdapter returns a new CityAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func CityAdapter() *cliadapter.CityAdapter {
	return CityAdapterWithOutput(os.Stdout)
}

// CityAdapterWithOutput returns a new CityAdapter writing to the given output.
func CityAdapterWithOutput(out io.Writer) *cliadapter.CityAdapter {
	once.Do(initServices)
	return cliadapter.NewCityAdapter(governanceService, out)
}

// EconomyAdapter returns a new EconomyAdapter writing to stdout.
func EconomyAdapter() *cliadapter.EconomyAdapter {
	return EconomyAdapterWithOutput(os.Stdout)
}

// EconomyAdapterWithOutput returns a new EconomyAdapter writing to the given output.
func EconomyAdapterWithOutput(out io.Writer) *cliadapter.EconomyAdapter {
	once.Do(initServices)
	return cliadapter.NewEconomyAdapter(economyService, buildingService, out)
}

// CycleAdapter returns a new CycleAdapter writing to stdout.
func CycleAdapter() *cliadapter.CycleAdapter {
	return CycleAdapterWithOutput(os.Stdout)
}

// CycleAdapterWithOutput returns a new CycleAdapter writing to the given output.
func CycleAdapterWithOutput(out io.Writer) *cliadapter.CycleAdapter {
	once.Do(initServices)
	return cliadapter.NewCycleAdapter(worldCycleService, governanceService, out)
}
