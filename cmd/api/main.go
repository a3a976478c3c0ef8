package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/netmonitor/internal/bus"
	"github.com/hamed0406/netmonitor/internal/config"
	"github.com/hamed0406/netmonitor/internal/httpapi"
	"github.com/hamed0406/netmonitor/internal/httpapi/middleware"
	"github.com/hamed0406/netmonitor/internal/logging"
	"github.com/hamed0406/netmonitor/internal/metrics"
	"github.com/hamed0406/netmonitor/internal/monitor"
	"github.com/hamed0406/netmonitor/internal/notify"
	"github.com/hamed0406/netmonitor/internal/repo"
	"github.com/hamed0406/netmonitor/internal/repo/memory"
	"github.com/hamed0406/netmonitor/internal/repo/postgres"
	"github.com/hamed0406/netmonitor/internal/speedtest"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		targets repo.TargetStore
		results repo.ResultStore
		prefs   repo.PreferenceStore
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("postgres_connect_failed", zap.Error(err))
		}
		defer pg.Close()
		targets, results, prefs = pg, pg.Results(), pg
		logger.Info("store_postgres")
	} else {
		mem := memory.New()
		targets, results, prefs = mem, mem.Results(), mem
		logger.Info("store_memory")
	}

	b := bus.NewMemory(logger)
	col := metrics.NewCollector()

	svc := &monitor.Service{
		Log:     logger,
		Targets: targets,
		Results: results,
		Runner:  speedtest.NewRunner(2*time.Minute, logger),
		Resolver: &speedtest.Resolver{
			Override:   cfg.SpeedTestURL,
			Production: cfg.Production(),
			Targets:    targets,
			Prefs:      prefs,
			Catalog:    speedtest.DefaultCatalog(),
			Log:        logger,
		},
		Recorder: speedtest.NewRecorder(results, b, logger),
		Metrics:  col,
	}
	svc.Sched = monitor.NewScheduler(logger, targets, svc, col, cfg.MaxConcurrentTests)
	defer svc.Sched.StopAll()

	gw := monitor.NewGateway(svc, b, logger)
	gw.Bind()
	defer gw.Close()

	if cfg.RedisURL != "" {
		relay, err := bus.NewRelay(cfg.RedisURL, b, logger)
		if err != nil {
			logger.Fatal("redis_connect_failed", zap.Error(err))
		}
		relay.Start(bus.BroadcastEvents)
		defer relay.Stop()
		logger.Info("relay_enabled")
	}

	if cfg.SlackWebhook != "" {
		watcher := notify.NewFailureWatcher(b, notify.NewSlack(cfg.SlackWebhook), logger)
		watcher.Bind()
		defer watcher.Close()
		logger.Info("failure_notify_enabled")
	}

	api := httpapi.NewServer(logger, svc, bus.NewCaller(b, logger, cfg.CallTimeout))
	api.Keys = middleware.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys}
	api.Limiter = middleware.NewLimiter(cfg.RateLimitPerMin, cfg.RateLimitBurst)

	srv := &http.Server{Addr: cfg.Addr, Handler: api.Router()}
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("api_serve_failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown_begin")

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Warn("api_shutdown_error", zap.Error(err))
	}
	logger.Info("shutdown_done")
}
