package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/myrjola/overload/internal/envstruct"
	"github.com/myrjola/overload/internal/errors"
	"github.com/myrjola/overload/internal/logging"
	"github.com/myrjola/overload/internal/progression"
	"github.com/myrjola/overload/internal/sqlite"
	"github.com/myrjola/overload/internal/workout"
)

type application struct {
	logger         *slog.Logger
	workoutService *workout.Service
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"OVERLOAD_ADDR" envDefault:"localhost:8080"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"OVERLOAD_SQLITE_URL" envDefault:"./overload.sqlite3"`
	// IncrementsPath points to a YAML file mapping equipment classes to weight increments.
	// Empty uses the built-in table.
	IncrementsPath string `env:"OVERLOAD_INCREMENTS_PATH" envDefault:""`
	// WindowSize caps how many recent sessions feed a recommendation.
	WindowSize string `env:"OVERLOAD_WINDOW_SIZE" envDefault:""`
	// TrendWindow caps how many sessions feed the trend statistics.
	TrendWindow string `env:"OVERLOAD_TREND_WINDOW" envDefault:""`
	// DeloadFactor scales the weight down when a deload triggers.
	DeloadFactor string `env:"OVERLOAD_DELOAD_FACTOR" envDefault:""`
	// BaselineWeightKg seeds suggestions for exercises without history.
	BaselineWeightKg string `env:"OVERLOAD_BASELINE_WEIGHT_KG" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	engineConfig, err := resolveEngineConfig(cfg)
	if err != nil {
		return errors.Wrap(err, "resolve engine config")
	}

	increments, err := workout.LoadIncrements(cfg.IncrementsPath)
	if err != nil {
		return errors.Wrap(err, "load increment table", slog.String("path", cfg.IncrementsPath))
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	app := application{
		logger:         logger,
		workoutService: workout.NewService(db, logger, increments, engineConfig),
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr, app.routes()); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

// resolveEngineConfig starts from the defaults and overrides the tunables
// that were set in the environment.
func resolveEngineConfig(cfg config) (progression.Config, error) {
	engineConfig := progression.DefaultConfig()

	if cfg.WindowSize != "" {
		windowSize, err := strconv.Atoi(cfg.WindowSize)
		if err != nil {
			return progression.Config{}, errors.Wrap(err, "parse window size", slog.String("value", cfg.WindowSize))
		}
		engineConfig.WindowSize = windowSize
	}
	if cfg.TrendWindow != "" {
		trendWindow, err := strconv.Atoi(cfg.TrendWindow)
		if err != nil {
			return progression.Config{}, errors.Wrap(err, "parse trend window", slog.String("value", cfg.TrendWindow))
		}
		engineConfig.TrendWindow = trendWindow
	}
	if cfg.DeloadFactor != "" {
		deloadFactor, err := strconv.ParseFloat(cfg.DeloadFactor, 64)
		if err != nil {
			return progression.Config{}, errors.Wrap(err, "parse deload factor", slog.String("value", cfg.DeloadFactor))
		}
		engineConfig.DeloadFactor = deloadFactor
	}
	if cfg.BaselineWeightKg != "" {
		baseline, err := strconv.ParseFloat(cfg.BaselineWeightKg, 64)
		if err != nil {
			return progression.Config{}, errors.Wrap(err, "parse baseline weight", slog.String("value", cfg.BaselineWeightKg))
		}
		engineConfig.BaselineWeightKg = baseline
	}

	return engineConfig, nil
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)
	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
