// Package wire provides dependency injection for the fa application.
// It creates the singleton container with lazy initialization.
package wire

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/example/focusarea/internal/adapters/ai"
	cliadapter "github.com/example/focusarea/internal/adapters/cli"
	"github.com/example/focusarea/internal/adapters/rest"
	"github.com/example/focusarea/internal/adapters/sqlite"
	"github.com/example/focusarea/internal/app"
	"github.com/example/focusarea/internal/config"
	"github.com/example/focusarea/internal/core/revision"
	"github.com/example/focusarea/internal/db"
	"github.com/example/focusarea/internal/logging"
	"github.com/example/focusarea/internal/observability"
	"github.com/example/focusarea/internal/ports/primary"
	"github.com/example/focusarea/internal/ports/secondary"
)

// Options are command-line overrides applied on top of loaded configuration.
type Options struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	Actor      string
}

var (
	options   Options
	container *Container
	initErr   error
	once      sync.Once
)

// Configure sets the overrides used by the singleton container. It must be
// called before the first accessor.
func Configure(opts Options) {
	options = opts
}

// Container holds the process-wide services and their dependencies.
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Collector
	DB      *sql.DB

	FocusAreas primary.FocusAreaService
	History    primary.HistoryService
	Packages   primary.PackageService
}

// New opens the database and builds every service from cfg.
// The AI revision service is optional: without credentials AI revisions
// fail with an External error and everything else works.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Create repository adapters (secondary ports) with injected DB
	store := sqlite.NewFocusAreaRepository(database)
	packages := sqlite.NewPackageRepository(database)

	var generator secondary.RevisionGenerator
	gen, err := ai.NewGenerator(cfg.AI, logger.Named("ai"))
	switch {
	case errors.Is(err, ai.ErrNoAPIKey):
		logger.Debug("AI revision service not configured", zap.String("api_key_env", cfg.AI.APIKeyEnv))
	case err != nil:
		database.Close()
		return nil, fmt.Errorf("failed to configure AI revision service: %w", err)
	default:
		generator = gen
	}

	metrics := observability.NewCollector()
	reconcile := revision.Options{AllowDuplicateIDs: cfg.Reconcile.AllowDuplicateIDs}

	// Create services (primary ports implementation)
	return &Container{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics,
		DB:         database,
		FocusAreas: app.NewFocusAreaService(store, packages, generator, logger.Named("focus_area"), metrics, reconcile),
		History:    app.NewHistoryService(store, logger.Named("history")),
		Packages:   app.NewPackageService(packages),
	}, nil
}

// Router returns the HTTP API handler over the container's services.
func (c *Container) Router() http.Handler {
	return rest.NewRouter(c.FocusAreas, c.History, c.Packages, c.Metrics, c.Logger.Named("http"), c.Config.CORSOrigins).Setup()
}

// Close releases the database and flushes the logger.
func (c *Container) Close() error {
	_ = c.Logger.Sync()
	return c.DB.Close()
}

// LoadConfig resolves configuration and applies the Configure overrides.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadInput{
		ConfigPath: options.ConfigPath,
		Env:        config.EnvMap(),
	})
	if err != nil {
		return nil, err
	}

	if options.DBPath != "" {
		path, err := filepath.Abs(options.DBPath)
		if err != nil {
			return nil, fmt.Errorf("invalid database path: %w", err)
		}
		cfg.DBPath = path
	}
	if options.LogLevel != "" {
		cfg.LogLevel = options.LogLevel
	}
	if options.Actor != "" {
		cfg.Actor = options.Actor
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Get returns the singleton container, building it on first use.
func Get() (*Container, error) {
	once.Do(initContainer)
	return container, initErr
}

// initContainer is called once via sync.Once.
func initContainer() {
	cfg, err := LoadConfig()
	if err != nil {
		initErr = err
		return
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		initErr = err
		return
	}
	container, initErr = New(cfg, logger)
}

// Shutdown closes the singleton container if it was built.
func Shutdown() error {
	if container == nil {
		return nil
	}
	return container.Close()
}

// FocusAreaAdapter returns a new FocusAreaAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func FocusAreaAdapter(format cliadapter.Format) (*cliadapter.FocusAreaAdapter, error) {
	return FocusAreaAdapterWithOutput(os.Stdout, format)
}

// FocusAreaAdapterWithOutput returns a new FocusAreaAdapter writing to the given output.
func FocusAreaAdapterWithOutput(out io.Writer, format cliadapter.Format) (*cliadapter.FocusAreaAdapter, error) {
	c, err := Get()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewFocusAreaAdapter(c.FocusAreas, c.History, out, format), nil
}

// PackageAdapter returns a new PackageAdapter writing to stdout.
func PackageAdapter(format cliadapter.Format) (*cliadapter.PackageAdapter, error) {
	return PackageAdapterWithOutput(os.Stdout, format)
}

// PackageAdapterWithOutput returns a new PackageAdapter writing to the given output.
func PackageAdapterWithOutput(out io.Writer, format cliadapter.Format) (*cliadapter.PackageAdapter, error) {
	c, err := Get()
	if err != nil {
		return nil, err
	}
	return cliadapter.NewPackageAdapter(c.Packages, c.FocusAreas, out, format), nil
}
