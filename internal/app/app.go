package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/furniture-kart/internal/domain/catalog"
	"github.com/xenking/furniture-kart/internal/domain/kv"
	"github.com/xenking/furniture-kart/internal/domain/locale"
	"github.com/xenking/furniture-kart/internal/domain/session"
	"github.com/xenking/furniture-kart/internal/handler"
	"github.com/xenking/furniture-kart/internal/storage/memory"
	"github.com/xenking/furniture-kart/internal/storage/postgres"
	redisstore "github.com/xenking/furniture-kart/internal/storage/redis"
	"github.com/xenking/furniture-kart/pkg/health"
	"github.com/xenking/furniture-kart/pkg/httpmiddleware"
)

const serviceName = "furniture-api"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("env", cfg.Env),
		zap.String("storage", cfg.Storage.Backend),
	)

	storage, closeStorage, err := openStorage(ctx, lg, cfg.Storage)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer closeStorage()

	index, err := catalog.NewIndex(catalog.DefaultDescriptors(), locale.DefaultDictionary(), catalog.RandomPrices())
	if err != nil {
		return errors.Wrap(err, "build catalog")
	}
	lg.Info("Catalog loaded", zap.Int("products", index.Len()))

	sessions, err := session.NewManager(lg.Named("session"), storage, session.Config{
		IdleTTL: cfg.Session.IdleTTL,
		Meter:   m.MeterProvider().Meter(serviceName),
	})
	if err != nil {
		return errors.Wrap(err, "create session manager")
	}
	sessions.StartJanitor(ctx, cfg.Session.JanitorPeriod)

	// Health check service.
	healthSvc := health.New(lg.Named("health"))
	healthSvc.Add(health.Readiness, "storage", 5*time.Second, health.PingCheck(storage))
	healthSvc.Add(health.Liveness, "goroutines", time.Second, health.GoroutineCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	h := handler.New(handler.Config{
		ImageBaseURL:   cfg.ImageBaseURL,
		ThumbnailCount: cfg.Session.ThumbnailCount,
	}, index, sessions, m.TracerProvider())

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", httpmiddleware.Wrap(
		h.Routes(httpmiddleware.LogRequests()),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.ClientMax,
			Window: cfg.RateLimit.Window,
			Key:    httpmiddleware.ClientKey,
		}),
		httpmiddleware.Session(httpmiddleware.SessionConfig{
			Secure: cfg.Session.SecureCookie,
			MaxAge: cfg.Session.CookieMaxAge,
		}),
		httpmiddleware.RateLimit(ctx, httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
			Key:    httpmiddleware.SessionKey,
		}),
	))

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins: cfg.CORS.Origins,
				AllowHeaders: []string{"Content-Type", "X-Request-ID"},
				MaxAge:       86400,
			}),
			httpmiddleware.Instrument(serviceName, m),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// openStorage connects the configured session backend. The returned func
// releases its connections.
func openStorage(ctx context.Context, lg *zap.Logger, cfg StorageConfig) (kv.Store, func(), error) {
	switch cfg.Backend {
	case BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxConns:        cfg.MaxConns,
			ApplicationName: serviceName,
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		return postgres.NewStore(pool), pool.Close, nil
	case BackendRedis:
		client, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect redis")
		}
		closeClient := func() {
			if err := client.Close(); err != nil {
				lg.Warn("Close redis client", zap.Error(err))
			}
		}
		return redisstore.New(client, cfg.RedisPrefix, cfg.RedisTTL), closeClient, nil
	default:
		lg.Warn("Using in-memory session storage; carts are lost on restart")
		return memory.New(), func() {}, nil
	}
}
