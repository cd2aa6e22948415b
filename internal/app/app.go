package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/altshop/storefront/internal/commerce"
	"github.com/altshop/storefront/internal/domain/cart"
	"github.com/altshop/storefront/internal/domain/shop"
	"github.com/altshop/storefront/internal/handler"
	"github.com/altshop/storefront/internal/session"
	"github.com/altshop/storefront/pkg/health"
	"github.com/altshop/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("shop", cfg.Commerce.ShopName))

	// Commerce backend client; serves catalog, shop, and cart gateways.
	client, err := commerce.NewClient(commerce.Config{
		BaseURL:  cfg.Commerce.URL,
		APIKey:   cfg.Commerce.APIKey,
		ShopName: cfg.Commerce.ShopName,
		Timeout:  cfg.Commerce.Timeout,
	})
	if err != nil {
		return errors.Wrap(err, "create commerce client")
	}

	shopResolver := shop.NewResolver(client, cfg.Commerce.ShopName)

	// Session store: Redis when configured, in-process memory otherwise.
	var store cart.IdentifierStore
	var rdb *redis.Client
	if cfg.Session.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		store = session.NewRedis(rdb, cfg.Session.TTL)
		lg.Info("Using Redis session store", zap.String("addr", cfg.Session.RedisAddr))
	} else {
		store = session.NewMemory(cfg.Session.TTL)
		lg.Info("Using in-memory session store")
	}

	carts := cart.NewManager(client, store, shopResolver, cfg.Commerce.ReturnURL)

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCMaxPauseCheck(time.Second))
	healthSvc.AddReadinessCheck("commerce", 5*time.Second, health.ShopConfigCheck(shopResolver))
	if rdb != nil {
		healthSvc.AddReadinessCheck("sessions", 5*time.Second, health.SessionStoreCheck(store))
	}
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// HTTP handlers.
	h := handler.NewHandler(client, shopResolver, carts)

	mux := chi.NewRouter()
	mux.Get("/livez", healthSvc.LiveEndpoint)
	mux.Get("/readyz", healthSvc.ReadyEndpoint)
	mux.Mount("/api", h.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:           cfg.RateLimit.Max,
				Window:        cfg.RateLimit.Window,
				SessionCookie: handler.SessionCookie,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.Instrument("storefront", m.TracerProvider(), m.MeterProvider()),
			httpmiddleware.LogRequests(),
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
