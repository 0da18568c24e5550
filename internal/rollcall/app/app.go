package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/rollcall/internal/rollcall/http"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/service"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store/drivers/postgres"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store/drivers/sqlite"
	"github.com/aussiebroadwan/rollcall/pkg/jwtx"
	"github.com/aussiebroadwan/rollcall/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the rollcall service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db        store.Store
	keys      *jwtx.KeySet
	refresher *KeyRefresher // nil when keys come from a file only

	// Services
	auditTrail          *service.AuditTrail
	tagService          *service.TagService
	attendanceService   *service.AttendanceService
	housekeepingService *service.HousekeepingService // nil when disabled

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "rollcall",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := context.Background()

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initDirectory(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	keys, refresher, err := InitVerifierKeys(ctx, app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize verification keys: %w", err)
	}
	app.keys = keys
	app.refresher = refresher

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	if app.housekeepingService != nil {
		app.housekeepingService.Start()
	}
	if app.refresher != nil {
		app.refresher.Start()
	}

	app.logger.Info("rollcall starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down rollcall...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingService != nil {
		app.housekeepingService.Stop()
	}
	if app.refresher != nil {
		app.refresher.Stop()
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("rollcall stopped")
	return nil
}

// initDatabase opens the configured driver and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initDirectory loads the optional directory seed. Applying it is
// idempotent so it runs on every start.
func (app *Application) initDirectory(ctx context.Context) error {
	if app.cfg.DirectorySeedFile == "" {
		return nil
	}

	seed, err := service.LoadSeedFile(app.cfg.DirectorySeedFile)
	if err != nil {
		return fmt.Errorf("failed to load directory seed: %w", err)
	}
	if err := service.ApplySeed(ctx, app.db, seed); err != nil {
		return fmt.Errorf("failed to apply directory seed: %w", err)
	}

	app.logger.Info("directory seed applied",
		"path", app.cfg.DirectorySeedFile,
		"users", len(seed.Users),
		"organizations", len(seed.Organizations),
		"events", len(seed.Events),
	)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	directory := &service.StoreDirectory{Store: app.db}

	app.auditTrail = &service.AuditTrail{Store: app.db}

	app.tagService = &service.TagService{
		Store:       app.db,
		Audit:       app.auditTrail,
		Cooldown:    app.cfg.TagCooldown,
		PendingTTL:  app.cfg.PendingTTL,
		MaxAttempts: app.cfg.TagMaxAttempts,
	}

	app.attendanceService = &service.AttendanceService{
		Store:         app.db,
		Gate:          &service.AuthorizationGate{Members: directory},
		Events:        directory,
		Members:       directory,
		Audit:         app.auditTrail,
		Tags:          app.tagService,
		AllowSelfScan: app.cfg.AllowSelfScan,
		AllowGuests:   app.cfg.AllowGuests,
	}

	if app.cfg.HousekeepingInterval > 0 {
		app.housekeepingService = service.NewHousekeepingService(
			app.db,
			app.logger,
			app.cfg.HousekeepingInterval,
		)
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys,
		jwtx.NewVerifierEdDSA(app.keys, app.cfg.Issuer, app.cfg.Audience),
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.TagService = app.tagService
	router.AttendanceService = app.attendanceService
	router.AuditTrail = app.auditTrail
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
