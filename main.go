package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appAudit "github.com/Zhima-Mochi/minishop-checkout/internal/application/audit"
	appCheckout "github.com/Zhima-Mochi/minishop-checkout/internal/application/checkout"
	"github.com/Zhima-Mochi/minishop-checkout/internal/config"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/catalog"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/gateway"
	auditworker "github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/audit/worker"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/paypal"
	redisstore "github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/redis"
	"github.com/Zhima-Mochi/minishop-checkout/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-checkout/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config_load_failed", zap.Error(err))
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, telemetry.Options{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		systemLogger.Fatal("tracer_setup_failed", zap.Error(err))
	}

	counters, histograms := prometrics.Standard(prometrics.New(prometheus.DefaultRegisterer, "", ""))
	tel := infraobs.New(infraobs.Options{
		Tracer:     oteltrace.New(cfg.ServiceName),
		Logger:     zaplogger.New(baseLogger),
		Counters:   counters,
		Histograms: histograms,
	})

	items := catalog.Default()
	if cfg.CatalogFile != "" {
		if items, err = catalog.LoadFile(cfg.CatalogFile); err != nil {
			systemLogger.Fatal("catalog_load_failed", zap.String("path", cfg.CatalogFile), zap.Error(err))
		}
	}
	itemIDs := make([]int, 0, items.Len())
	for _, it := range items.Items() {
		itemIDs = append(itemIDs, it.ID)
	}
	systemLogger.Info("catalog_loaded", zap.Ints("item_ids", itemIDs))

	httpClient := &http.Client{Timeout: cfg.GatewayTimeout}
	tokenProvider := paypal.NewTokenProvider(cfg.PayPalBaseURL, paypal.Credentials{
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
	}, httpClient, tel)

	var tokens gateway.TokenSource = tokenProvider
	if cfg.TokenCache {
		var store gateway.TokenStore = memory.NewTokenStore()
		if cfg.RedisAddr != "" {
			rdb := redisstore.NewClient(cfg.RedisAddr)
			defer func() { _ = rdb.Close() }()
			store = redisstore.NewTokenStore(rdb, cfg.ServiceName)
		}
		tokens = paypal.NewCachingTokenSource(tokenProvider, store, tokenProvider.ClientID(), paypal.DefaultRefreshSkew, tel.Logger())
	}
	gatewayClient := paypal.NewClient(cfg.PayPalBaseURL, tokens, id.NewUUIDGenerator(), httpClient, tel)

	// In-memory event bus feeding the audit worker
	bus := outbox.NewBus(tel.Logger(), outbox.Options{})
	auditworker.New(bus, appAudit.NewRecorder(tel), tel).Start()
	bus.Start(ctx)

	builder := appCheckout.NewOrderBuilder(items, cfg.Currency)
	checkoutService := appCheckout.NewService(
		appCheckout.NewCreateOrderUseCase(builder, gatewayClient, bus, tel),
		appCheckout.NewCaptureOrderUseCase(gatewayClient, bus, tel),
	)

	router := httppresentation.NewHandler(checkoutService, tel).Router()
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.String("paypal_base_url", cfg.PayPalBaseURL),
			zap.Bool("token_cache", cfg.TokenCache),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}

	bus.Stop(shutdownCtx)
	if err := shutdownTracer(shutdownCtx); err != nil {
		systemLogger.Warn("tracer_shutdown_error", zap.Error(err))
	}
}
