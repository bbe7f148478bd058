package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/dormmess/internal/auth"
	"github.com/mmynk/dormmess/internal/config"
	"github.com/mmynk/dormmess/internal/httpapi"
	"github.com/mmynk/dormmess/internal/metrics"
	"github.com/mmynk/dormmess/internal/middleware"
	"github.com/mmynk/dormmess/internal/rpc"
	"github.com/mmynk/dormmess/internal/service"
	"github.com/mmynk/dormmess/internal/storage/sqlstore"
	"github.com/mmynk/dormmess/pkg/logging"
)

func main() {
	cfg := config.Load()
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	// Clients read money as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	m := metrics.New()

	ctx := context.Background()
	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Driver:       cfg.DBDriver,
		Path:         cfg.DBPath,
		DSN:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DBMaxOpenConns,
		QueryTimeout: cfg.DBQueryTimeout,
		Hooks: []sqlstore.Hook{
			sqlstore.LogHook(slog.Default(), cfg.DBSlowQuery),
			sqlstore.MetricsHook(m),
		},
	})
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", store.Driver())

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)
	authService := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, slog.Default())
	aggregation := service.NewAggregationService(store, cfg.CacheTTL, m)
	ledger := service.NewLedgerService(store, aggregation, cfg.AutoRecompute)

	if logging.ParseLevel(cfg.LogLevel) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.Deps{
		Auth:        authService,
		Ledger:      ledger,
		Menu:        service.NewMenuService(store),
		Aggregation: aggregation,
		Health:      store.Ping,
		Metrics:     m,
	}, httpapi.Options{
		AuthRequired:   cfg.AuthRequired,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	interceptors := middleware.Interceptors(jwtManager, cfg.AuthRequired, m)

	mux := http.NewServeMux()

	// Register Connect services
	rpcPath, rpcHandler := rpc.NewAggregationServiceHandler(rpc.NewAggregationServer(aggregation), interceptors)
	mux.Handle(rpcPath, rpcHandler)

	// Everything else is the REST API
	mux.Handle("/", router)

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "address", srv.Addr, "url", "http://localhost"+srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	slog.Info("Server stopped")
}
