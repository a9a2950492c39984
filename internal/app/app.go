package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/auth"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/cart"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/directory"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/order"
	"github.com/blessingcarter623/amatymasocialapp/internal/handler"
	"github.com/blessingcarter623/amatymasocialapp/internal/media"
	"github.com/blessingcarter623/amatymasocialapp/internal/storage/postgres"
	"github.com/blessingcarter623/amatymasocialapp/internal/storage/redis"
	"github.com/blessingcarter623/amatymasocialapp/pkg/health"
	"github.com/blessingcarter623/amatymasocialapp/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("cart_backend", cfg.Cart.Backend),
	)

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", health.PingCheck("postgres", pool), health.WithTimeout(5*time.Second))
	healthSvc.AddLivenessCheck("goroutines", health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", health.GCMaxPauseCheck(time.Second))

	// Cart slots.
	slots, closeSlots, err := openCartStore(ctx, cfg.Cart, pool, healthSvc)
	if err != nil {
		return errors.Wrap(err, "open cart store")
	}
	defer closeSlots()

	carts, err := cart.NewManager(slots, cart.ManagerConfig{
		Logger:        lg.Named("cart"),
		Notifier:      cart.NewLogNotifier(lg.Named("cart")),
		MeterProvider: m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create cart manager")
	}
	carts.StartSweeper(ctx, cfg.Cart.SweepInterval, cfg.Cart.IdleTimeout)

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	businessRepo := postgres.NewBusinessRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	apikeyRepo := postgres.NewAPIKeyRepository(pool)

	// Domain services.
	directorySvc := directory.NewService(businessRepo, directory.ServiceConfig{
		FetchTimeout: cfg.Directory.FetchTimeout,
		Logger:       lg.Named("directory"),
	})
	orderSvc := order.NewService(orderRepo)

	authn := auth.Chain{auth.NewAPIKeyAuthenticator(apikeyRepo, []byte(cfg.APIKeyPepper))}
	if cfg.JWTSecret != "" {
		jwtAuth, err := auth.NewJWTAuthenticator([]byte(cfg.JWTSecret))
		if err != nil {
			return errors.Wrap(err, "create jwt authenticator")
		}
		authn = append(authn, jwtAuth)
	}

	var uploader media.Uploader
	if cfg.Storage.Bucket != "" {
		s3, err := media.NewS3Uploader(ctx, media.S3Config{
			Bucket:        cfg.Storage.Bucket,
			Region:        cfg.Storage.Region,
			Endpoint:      cfg.Storage.Endpoint,
			Prefix:        cfg.Storage.Prefix,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		})
		if err != nil {
			return errors.Wrap(err, "create s3 uploader")
		}
		healthSvc.AddReadinessCheck("s3", health.PingCheck("s3", s3), health.WithTimeout(5*time.Second))
		uploader = s3
	} else {
		lg.Info("Image uploads disabled: no storage bucket configured")
	}

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// HTTP handlers.
	h := handler.NewHandler(
		handler.HandlerConfig{
			ImageBaseURL:   cfg.ImageBaseURL,
			MaxUploadBytes: cfg.Storage.MaxUploadBytes,
		},
		handler.Deps{
			Products:      productRepo,
			Carts:         carts,
			Orders:        orderSvc,
			Directory:     directorySvc,
			Uploader:      uploader,
			Authenticator: authn,
		},
	)

	// Mux: health endpoints + API routes on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)
	routeFinder := httpmiddleware.MuxRouteFinder(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", handler.APIKeyHeader, handler.CartIDHeader, httpmiddleware.RequestIDHeader},
				ExposeHeaders:    []string{handler.CartIDHeader, httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			handler.Authenticate(authn),
			httpmiddleware.Instrument("amatyma-api", routeFinder, m),
			httpmiddleware.LogRequests(routeFinder),
			httpmiddleware.Labeler(routeFinder),
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

// openCartStore builds the configured slot store and registers its readiness
// check. The returned func releases the store's connections.
func openCartStore(ctx context.Context, cfg CartConfig, pool *pgxpool.Pool, hs *health.Health) (cart.Store, func(), error) {
	switch cfg.Backend {
	case CartBackendRedis:
		client, err := redis.Open(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		store := redis.NewCartStore(client, cfg.TTL)
		hs.AddReadinessCheck("redis", health.PingCheck("redis", store), health.WithTimeout(2*time.Second))
		return store, func() { _ = client.Close() }, nil
	case CartBackendMemory:
		zctx.From(ctx).Warn("Carts are kept in process memory and lost on restart")
		return cart.NewMemoryStore(), func() {}, nil
	default:
		return postgres.NewCartSlotStore(pool), func() {}, nil
	}
}
