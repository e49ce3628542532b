// cmd/worker-manager/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"homebuyer-workers/internal/catalog"
	"homebuyer-workers/internal/common/camunda"
	"homebuyer-workers/internal/common/config"
	"homebuyer-workers/internal/common/database"
	"homebuyer-workers/internal/common/logger"
	"homebuyer-workers/internal/common/observability"
	"homebuyer-workers/internal/eligibility"
	"homebuyer-workers/internal/httpapi"

	ca "homebuyer-workers/internal/workers/eligibility/calculate-affordability"
	ele "homebuyer-workers/internal/workers/eligibility/evaluate-loan-eligibility"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"app":     cfg.App.Name,
		"version": cfg.App.Version,
	})

	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Catalog ---
	var db *sql.DB
	if cfg.Catalog.Source == config.CatalogSourcePostgres {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			zapLog.Fatal("postgres setup failed", zap.Error(err))
		}
		defer pg.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = pg.Ping(pingCtx)
		cancel()
		if err != nil {
			zapLog.Fatal("postgres unreachable", zap.Error(err))
		}
		db = pg.DB
	}

	source, err := catalog.NewSource(cfg.Catalog, db)
	if err != nil {
		zapLog.Fatal("catalog source setup failed", zap.Error(err))
	}
	programs := catalog.NewOnce(source, log)

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	loaded, err := programs.Get(loadCtx)
	cancel()
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err))
	}

	engine, err := eligibility.NewEngine(loaded,
		eligibility.WithRates(eligibility.Rates{
			Fixed30: cfg.Rates.Fixed30,
			Fixed15: cfg.Rates.Fixed15,
			ARM51:   cfg.Rates.ARM51,
		}),
		eligibility.WithRatePercent(cfg.Engine.DefaultRatePercent),
	)
	if err != nil {
		zapLog.Fatal("engine setup failed", zap.Error(err))
	}

	// --- Result cache ---
	rdb := database.NewRedis(cfg.Database.Redis)
	if rdb != nil {
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rdb.Ping(pingCtx); err != nil {
			zapLog.Warn("redis unreachable, result cache will be bypassed until it recovers", zap.Error(err))
		}
		cancel()
	} else {
		zapLog.Info("redis address not configured, result cache disabled")
	}

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.UsePlaintext,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe connection failed", zap.Error(err))
	}
	defer zeebe.Close()

	workers := camunda.NewWorkerGroup(zeebe.GetClient(), log)

	evaluateCfg := config.GetWorkerConfig(cfg, ele.TaskType)
	evaluate := ele.NewHandler(ele.LoadConfig(evaluateCfg), engine, rdb.Raw(), obs, log)
	workers.Start(ele.TaskType, evaluateCfg, evaluate.Handle)

	affordabilityCfg := config.GetWorkerConfig(cfg, ca.TaskType)
	affordability := ca.NewHandler(ca.LoadConfig(affordabilityCfg, cfg.Engine), obs, log)
	workers.Start(ca.TaskType, affordabilityCfg, affordability.Handle)

	zapLog.Info("workers registered", zap.Strings("taskTypes", workers.Running()))

	// --- HTTP: API, health and metrics ---
	api := httpapi.NewServer(engine, log,
		httpapi.Check{Name: "catalog", Probe: func(ctx context.Context) error {
			_, err := programs.Get(ctx)
			return err
		}},
		httpapi.Check{Name: "zeebe", Probe: zeebe.HealthCheck},
	)
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownTimeout := config.GetDuration(cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	workers.Close(shutdownTimeout)
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing metrics", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
