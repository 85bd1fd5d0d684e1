package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/accounts/internal/accounts/activation"
	"github.com/aussiebroadwan/accounts/internal/accounts/events"
	httpapi "github.com/aussiebroadwan/accounts/internal/accounts/http"
	"github.com/aussiebroadwan/accounts/internal/accounts/rolecache"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

const (
	// BuildVersion is overridden at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the accounts service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db         *sqlite.Store
	redis      *redis.Client
	publisher  *events.AMQPPublisher
	activation *activation.Manager
	registry   *prometheus.Registry

	keys      *jwtx.KeySet
	verifier  jwtx.Verifier
	refresher *KeyRefresher

	userService     *service.UserService
	rolesService    *service.RolesService
	deletionService *service.DeletionService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with every dependency initialised. Nothing is
// served until Run.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "accounts-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	ctx := slogx.WithContext(context.Background(), app.logger)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initServices(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	app.initKeys(ctx)
	app.initHTTP()

	return app, nil
}

func (app *Application) Logger() *slog.Logger { return app.logger }
func (app *Application) Users() *service.UserService { return app.userService }
func (app *Application) Roles() *service.RolesService { return app.rolesService }
func (app *Application) Deletion() *service.DeletionService { return app.deletionService }
func (app *Application) Context() context.Context { return slogx.WithContext(context.Background(), app.logger) }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	if app.refresher != nil {
		app.refresher.Start()
	}

	app.logger.Info("accounts service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown stops the HTTP server, then releases everything Close does.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down accounts service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.refresher != nil {
		app.refresher.Stop()
	}

	if err := app.Close(); err != nil {
		return err
	}

	app.logger.Info("accounts service stopped")
	return nil
}

// Close waits for in-flight deletion notifications and releases the
// broker, cache and database connections.
func (app *Application) Close() error {
	if app.deletionService != nil {
		app.deletionService.Close()
	}

	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			app.logger.Error("error closing amqp publisher", "error", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// OpenDatabase opens the sqlite file at path and applies pending migrations.
func OpenDatabase(path string) (*sqlite.Store, error) {
	db, err := sqlite.NewStore(sqlite.DSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}

func (app *Application) initDatabase() error {
	db, err := OpenDatabase(app.cfg.DatabaseFile)
	if err != nil {
		return err
	}
	app.db = db

	app.logger.Info("database migrations applied successfully", slog.String("file", app.cfg.DatabaseFile))
	return nil
}

func (app *Application) initServices(ctx context.Context) error {
	cache, err := app.initRoleCache(ctx)
	if err != nil {
		return err
	}

	app.userService = &service.UserService{Store: app.db, Cache: cache}
	app.rolesService = &service.RolesService{Store: app.db, Cache: cache}

	catalog, err := LoadRoleCatalog(app.cfg.RoleCatalogFile)
	if err != nil {
		return err
	}
	if _, err := app.rolesService.SeedCatalog(ctx, catalog); err != nil {
		return fmt.Errorf("failed to seed role catalog: %w", err)
	}

	app.activation = activation.NewManager()
	if err := app.activation.Load(ctx, app.db.Workflows()); err != nil {
		return fmt.Errorf("failed to load active workflows: %w", err)
	}

	notifier, err := app.initNotifier()
	if err != nil {
		return err
	}

	app.deletionService = &service.DeletionService{
		Store:       app.db,
		Activation:  app.activation,
		Notifier:    notifier,
		HookTimeout: app.cfg.HookTimeout,
	}
	return nil
}

func (app *Application) initRoleCache(ctx context.Context) (service.RoleCache, error) {
	if app.cfg.RedisAddr == "" {
		app.logger.Info("role cache: in-memory", "ttl", app.cfg.RoleCacheTTL)
		return rolecache.NewMemory(app.db.Roles().GetRole, app.cfg.RoleCacheTTL), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", app.cfg.RedisAddr, err)
	}
	app.redis = client

	app.logger.Info("role cache: redis", "addr", app.cfg.RedisAddr, "ttl", app.cfg.RoleCacheTTL)
	return rolecache.NewRedis(client, app.db.Roles().GetRole, app.cfg.RoleCacheTTL), nil
}

func (app *Application) initNotifier() (service.Notifier, error) {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics, err := events.NewMetrics(app.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	sinks := []service.Notifier{events.LogSink{}, metrics}

	if app.cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(app.cfg.AMQPURL, app.cfg.AMQPExchange)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to amqp broker: %w", err)
		}
		app.publisher = pub
		sinks = append(sinks, pub)
		app.logger.Info("deletion events published to amqp", "exchange", app.cfg.AMQPExchange)
	}

	return &events.Fanout{Sinks: sinks, Failures: metrics}, nil
}

// initKeys loads the verification keys. A JWKS endpoint that is down at
// startup leaves /readyz degraded until the next refresh succeeds.
func (app *Application) initKeys(ctx context.Context) {
	app.keys = jwtx.NewKeySet()
	app.verifier = jwtx.NewVerifierEdDSA(app.keys, app.cfg.Issuer, app.cfg.Audience)

	if app.cfg.JWKSURL == "" {
		app.logger.Warn("ACCOUNTS_JWKS_URL not set, bearer tokens will be rejected")
		return
	}

	app.refresher = NewKeyRefresher(app.keys, app.cfg.JWKSURL, app.logger, app.cfg.JWKSRefresh)
	fetchCtx, cancel := context.WithTimeout(ctx, app.refresher.Client.Timeout)
	defer cancel()
	_ = app.refresher.Refresh(fetchCtx)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys,
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.UserService = app.userService
	router.RolesService = app.rolesService
	router.DeletionService = app.deletionService
	router.Metrics = promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{})
	router.Workflows = app.activation
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
