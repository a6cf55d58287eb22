// Command server starts the AI mock interview HTTP server.
package main

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

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/ai"
	httpserver "github.com/fairyhunter13/ai-mock-interview/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/observability"
	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-mock-interview/internal/adapter/textextractor/tika"
	"github.com/fairyhunter13/ai-mock-interview/internal/app"
	"github.com/fairyhunter13/ai-mock-interview/internal/config"
	"github.com/fairyhunter13/ai-mock-interview/internal/domain"
	"github.com/fairyhunter13/ai-mock-interview/internal/service/ratelimiter"
	"github.com/fairyhunter13/ai-mock-interview/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()

	providers, err := config.LoadProviders(cfg)
	if err != nil {
		slog.Error("provider configuration invalid", slog.Any("error", err))
		os.Exit(1)
	}

	// Optional Redis: distributed per-provider limiter and readiness.
	var (
		rdb     *redis.Client
		limiter ai.Limiter
	)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		rdb = redis.NewClient(opt)
		defer func() { _ = rdb.Close() }()
		if cfg.ProviderRateLimitPerMin > 0 {
			buckets := make(map[string]ratelimiter.BucketConfig, len(providers.Providers))
			for _, p := range providers.Providers {
				buckets[p.ID] = ratelimiter.NewBucketConfigFromPerMinute(cfg.ProviderRateLimitPerMin)
			}
			limiter = ratelimiter.NewRedisLuaLimiter(rdb, buckets)
			slog.Info("provider rate limiter enabled", slog.Int("per_min", cfg.ProviderRateLimitPerMin))
		}
	}

	engine, cooldown, err := app.BuildEngine(ctx, cfg, providers, limiter)
	if err != nil {
		slog.Error("provider chain setup failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer cooldown.Stop()

	// Optional Postgres: report storage.
	var (
		reports domain.ReportRepository
		pinger  app.Pinger
	)
	if cfg.DBURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DBURL)
		if err != nil {
			slog.Error("db connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			slog.Error("db schema setup failed", slog.Any("error", err))
			os.Exit(1)
		}
		reports = postgres.NewReportRepo(pool)
		pinger = pool
	}

	// Optional Kafka/Redpanda: report events.
	var publisher domain.ReportPublisher
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := redpanda.NewProducer(ctx, cfg.KafkaBrokers, cfg.ReportTopic)
		if err != nil {
			slog.Error("redpanda producer setup failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() { _ = prod.Close() }()
		publisher = prod
	}

	evaluator := usecase.NewEvaluatorService(engine)
	questions := usecase.NewQuestionService(engine)
	interview := usecase.NewInterviewService(evaluator, questions)
	reportSvc := usecase.NewReportService(engine, reports, publisher)
	resumeSvc := usecase.NewResumeService(engine)

	var redisPinger app.RedisPinger
	if rdb != nil {
		redisPinger = rdb
	}
	dbCheck, redisCheck := app.BuildReadinessChecks(pinger, redisPinger)

	srv := httpserver.NewServer(cfg, interview, reportSvc, resumeSvc, dbCheck, redisCheck)
	if cfg.TikaURL != "" {
		srv.Extractor = tika.New(cfg.TikaURL)
		slog.Info("document resume uploads enabled", slog.String("tika", cfg.TikaURL))
	}
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting",
			slog.Int("port", cfg.Port),
			slog.Bool("reports_stored", reports != nil),
			slog.Bool("reports_published", publisher != nil))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
