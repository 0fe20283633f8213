// cmd/grant-engine/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"grant-engine/internal/catalog"
	"grant-engine/internal/common/cache"
	"grant-engine/internal/common/camunda"
	"grant-engine/internal/common/config"
	"grant-engine/internal/common/database"
	"grant-engine/internal/common/logger"
	"grant-engine/internal/common/observability"
	"grant-engine/internal/common/validation"
	"grant-engine/internal/engine"
	"grant-engine/pkg/registry"

	agr "grant-engine/internal/workers/grants/analyze-grant-roi"
	dp "grant-engine/internal/workers/grants/diagnose-profile"
	gcc "grant-engine/internal/workers/grants/grant-catalog-changed"
	gc "grant-engine/internal/workers/grants/grant-counts"
	sar "grant-engine/internal/workers/grants/score-and-rank-grants"
)

const serviceName = "grant-engine"

// pinger is anything /ready should probe.
type pinger interface {
	Ping(ctx context.Context) error
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting grant engine...",
		zap.String("catalog", cfg.Catalog.Backend),
		zap.String("cache", cfg.Cache.Backend),
	)

	obs := observability.New(serviceName, log)
	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	probes := map[string]pinger{}

	// --- Grant catalog ---
	grantCatalog, closeCatalog := buildCatalog(ctx, cfg, zapLog, probes)
	defer closeCatalog()

	// --- Aggregate cache ---
	store, closeStore := buildStore(ctx, cfg, zapLog, probes)
	defer closeStore()

	var cacheOpts []cache.Option
	if cfg.Cache.SingleFlight {
		cacheOpts = append(cacheOpts, cache.WithSingleFlight())
	}
	aggregateCache := cache.New(store, log, cacheOpts...)

	ranker := engine.NewRanker()
	aggregates := catalog.NewAggregates(grantCatalog, aggregateCache, ranker, catalog.AggregatesConfig{
		CountTTL:      cfg.Cache.CountTTL,
		SuggestionTTL: cfg.Cache.SuggestionTTL,
	}, log)
	eng := engine.New(grantCatalog, aggregates, ranker, engine.Config{
		SearchLimit:    cfg.Scoring.SearchLimit,
		DiagnosisLimit: cfg.Scoring.DiagnosisLimit,
		PopularLimit:   cfg.Scoring.PopularLimit,
	}, log)

	reg, err := registry.Builtin()
	if err != nil {
		zapLog.Fatal("activity registry failed", zap.Error(err))
	}
	validator, err := validation.NewValidator(reg)
	if err != nil {
		zapLog.Fatal("input schemas failed to compile", zap.Error(err))
	}

	// --- Workers ---
	handlers := map[string]camunda.JobHandler{
		sar.TaskType: sar.NewHandler(sar.LoadConfig(), eng, validator, log),
		dp.TaskType:  dp.NewHandler(dp.LoadConfig(), eng, validator, log),
		agr.TaskType: agr.NewHandler(agr.LoadConfig(), eng, validator, log),
		gc.TaskType:  gc.NewHandler(gc.LoadConfig(), aggregates, validator, log),
		gcc.TaskType: gcc.NewHandler(gcc.LoadConfig(), aggregates, validator, log),
	}

	var workers []*camunda.CamundaWorker
	for _, activity := range reg.Activities {
		handler, ok := handlers[activity.TaskType]
		if !ok {
			zapLog.Fatal("no handler for registered activity", zap.String("taskType", activity.TaskType))
		}
		if !config.IsWorkerEnabled(cfg, activity.TaskType) {
			zapLog.Info("worker disabled", zap.String("taskType", activity.TaskType))
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, activity.TaskType)
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      activity.TaskType,
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handler, obs, log))
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:    cfg.Metrics.Address,
		Handler: healthMux(zeebe, probes),
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing metrics", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Grant engine stopped gracefully")
}

func buildCatalog(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, probes map[string]pinger) (catalog.Catalog, func()) {
	switch cfg.Catalog.Backend {
	case config.CatalogElasticsearch:
		var es *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", cfg.Catalog.Index))
		probes["elasticsearch"] = es
		return catalog.NewElasticsearchCatalog(es.Client, cfg.Catalog.Index, cfg.Catalog.SearchSize), func() {}

	case config.CatalogMemory:
		zapLog.Warn("using in-memory grant catalog, counts start at zero")
		return catalog.NewMemoryCatalog(), func() {}

	default:
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		zapLog.Info("PostgreSQL connected successfully")
		probes["postgres"] = pg
		return catalog.NewPostgresCatalog(pg.DB), func() { pg.Close() }
	}
}

// buildStore never fails startup on redis: reads compute directly while the
// store is down.
func buildStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, probes map[string]pinger) (cache.Store, func()) {
	if cfg.Cache.Backend == config.CacheMemory {
		return cache.NewMemoryStore(nil), func() {}
	}

	rdb := database.NewRedis(cfg.Database.Redis)
	err := retryWithBackoff(func() error {
		return rdb.Ping(ctx)
	}, 5, time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Warn("redis unreachable, aggregates will be computed per request", zap.Error(err))
	} else {
		zapLog.Info("Redis connected successfully")
	}
	probes["redis"] = rdb
	return cache.NewRedisStore(rdb.Client, cache.WithKeyPrefix(cfg.Cache.KeyPrefix)), func() { rdb.Close() }
}

func healthMux(zeebe *camunda.Client, probes map[string]pinger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		body := map[string]string{"time": time.Now().Format(time.RFC3339)}
		code := http.StatusOK
		if err := zeebe.HealthCheck(ctx); err != nil {
			body["zeebe"] = err.Error()
			code = http.StatusServiceUnavailable
		}
		for name, p := range probes {
			if err := p.Ping(ctx); err != nil {
				body[name] = err.Error()
				// a cache outage degrades latency only
				if name != "redis" {
					code = http.StatusServiceUnavailable
				}
			}
		}
		body["status"] = "ready"
		if code != http.StatusOK {
			body["status"] = "not ready"
		}
		writeStatus(w, code, body)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
