package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/warden/pkg/api"
	"github.com/platinummonkey/warden/pkg/auth"
	"github.com/platinummonkey/warden/pkg/config"
	"github.com/platinummonkey/warden/pkg/middleware"
	"github.com/platinummonkey/warden/pkg/observability"
	"github.com/platinummonkey/warden/pkg/storage"
	"github.com/platinummonkey/warden/pkg/storage/cache"
	"github.com/platinummonkey/warden/pkg/storage/mongo"
	"github.com/platinummonkey/warden/pkg/storage/postgres"
	"github.com/platinummonkey/warden/pkg/swagger"
	"github.com/platinummonkey/warden/pkg/users"
	"github.com/platinummonkey/warden/pkg/web"
)

func main() {
	// used until the configured logger exists
	bootLogger := observability.NewLogger(observability.InfoLevel, os.Stdout)

	cfg, err := loadConfig()
	if err != nil {
		bootLogger.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.Level(), os.Stdout, cfg.Observability.LoggerOptions()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Error("Warden exited with error")
		os.Exit(1)
	}
}

// loadConfig reads an optional .env from the working directory, then the configuration
func loadConfig() (*config.Config, error) {
	// A missing .env is fine; deployments set the environment directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return config.LoadConfig()
}

func run(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	otelProviders, err := observability.InitOTel(ctx, cfg.Observability.OTel(), logger)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)
	metrics.SetExpectedStoreErrors(storage.ErrNotFound, storage.ErrDuplicateEmail)

	health := observability.NewHealthChecker(cfg.Observability.OTelServiceVersion)

	store, err := openStore(ctx, cfg.Storage, health, logger)
	if err != nil {
		return err
	}
	store = storage.Instrument(store, cfg.Storage.Type, metrics)

	if cfg.Storage.CacheEnabled {
		var redisClient *cache.RedisClient
		if cfg.Storage.RedisURL != "" {
			redisClient, err = cache.NewRedisClient(cfg.Storage)
			if err != nil {
				store.Close()
				return err
			}
			health.AddCheck("redis", observability.RedisPinger(redisClient.GetClient()), false)
		}
		cached := cache.New(store, cfg.Storage.CacheSize, cfg.Storage.CacheTTL, redisClient)
		metrics.RegisterCacheCounters(func() (int64, int64, int64) {
			stats := cached.Stats()
			return stats.Hits, stats.RedisHits, stats.Misses
		})
		store = cached
		logger.WithField("size", cfg.Storage.CacheSize).Info("User cache enabled")
	}

	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	issuer := auth.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), auth.WithIssuer(cfg.Auth.Issuer))

	svc, err := users.NewService(store, hasher, issuer, users.Config{
		TokenTTL:         cfg.Auth.TokenTTL,
		RegisterTokenTTL: cfg.Auth.RegisterTokenTTL,
		AllowAdminSignup: cfg.Auth.AllowAdminSignup,
	}, users.WithRecorder(metrics))
	if err != nil {
		store.Close()
		return err
	}

	if cfg.Admin.Email != "" {
		created, err := svc.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			store.Close()
			return fmt.Errorf("failed to seed admin account: %w", err)
		}
		if created {
			logger.WithField("email", cfg.Admin.Email).Info("Seeded admin account")
		}
	}

	authMW := middleware.NewAuthMiddleware(issuer, store, middleware.WithFailureRecorder(metrics))

	opts := api.Options{
		Logger:      logger,
		CORSOrigins: cfg.Server.CORSOrigins,
		Tracing:     cfg.Observability.OTelEnabled,
	}
	if cfg.Observability.MetricsEnabled {
		opts.Metrics = metrics
	}
	if cfg.Server.WebEnabled {
		opts.Frontend = web.Handler()
	}
	if cfg.Server.DocsEnabled {
		docs, err := swagger.NewSwaggerHandlers("/api")
		if err != nil {
			store.Close()
			return err
		}
		opts.Docs = docs
	}

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewServer(svc, authMW, opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health checks and metrics live on a separate port for k8s probes
	opsMux := http.NewServeMux()
	observability.RegisterHealthRoutes(opsMux, health)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(opsMux, registry)
	}
	opsServer := &http.Server{
		Addr:        net.JoinHostPort(cfg.Server.Host, cfg.Server.OpsPort),
		Handler:     opsMux,
		ReadTimeout: cfg.Server.ReadTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, apiServer, opsServer)
	shutdown.RegisterShutdownFunc("store", func(context.Context) error {
		return store.Close()
	})
	if otelProviders != nil {
		shutdown.RegisterShutdownFunc("otel", func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, otelProviders)
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(guarded(logger, "api server", func() error {
		logger.WithField("addr", apiServer.Addr).Info("Starting Warden API server")
		return serve(apiServer)
	}))
	g.Go(guarded(logger, "ops server", func() error {
		logger.WithField("addr", opsServer.Addr).Info("Starting ops server")
		return serve(opsServer)
	}))
	g.Go(guarded(logger, "shutdown", func() error {
		<-gctx.Done()
		logger.Info("Shutting down gracefully...")
		return shutdown.Shutdown(context.Background())
	}))

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Warden stopped")
	return nil
}

// openStore connects the configured backend and registers it as a critical health check
func openStore(ctx context.Context, cfg storage.Config, health *observability.HealthChecker, logger *observability.Logger) (storage.UserStore, error) {
	switch cfg.Type {
	case storage.TypeMemory:
		logger.Warn("Using in-memory storage, users are lost on restart")
		store := storage.NewMemoryStore()
		health.AddCheck("storage", store, true)
		return store, nil
	case storage.TypeMongo:
		store, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			return nil, err
		}
		health.AddCheck("mongodb", store, true)
		logger.WithField("database", cfg.MongoDatabase).Info("Connected to MongoDB")
		return store, nil
	case storage.TypePostgres:
		store, err := postgres.NewUserStoreFromConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		health.AddCheck("postgres", observability.SQLPinger(store.DB()), true)
		logger.Info("Connected to PostgreSQL")
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// guarded turns a panic in fn into an error so the group shuts down cleanly
func guarded(logger *observability.Logger, name string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				observability.LogPanic(logger, name, r)
				err = observability.MustRecover(r)
			}
		}()
		return fn()
	}
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server %s failed: %w", srv.Addr, err)
	}
	return nil
}
