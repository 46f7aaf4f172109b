package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/gpu-reservation-poc/internal/call-audit/cache"
	"github.com/radieske/gpu-reservation-poc/internal/call-audit/repo"
	"github.com/radieske/gpu-reservation-poc/internal/call-audit/worker"
	sharedcache "github.com/radieske/gpu-reservation-poc/internal/shared/cache"
	"github.com/radieske/gpu-reservation-poc/internal/shared/config"
	"github.com/radieske/gpu-reservation-poc/internal/shared/db"
	"github.com/radieske/gpu-reservation-poc/internal/shared/kafka"
	"github.com/radieske/gpu-reservation-poc/internal/shared/logger"
	"github.com/radieske/gpu-reservation-poc/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Postgres guarda o histórico de chamadas
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	store := repo.NewPostgres(pg)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal("ensure schema", zap.Error(err))
	}

	// Redis guarda a última chamada de cada usuário
	rdb, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka consumer dos eventos de chamada e writer da DLQ
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicAPICalls, "call-audit")
	defer reader.Close()

	var dlq kafka.MessageWriter
	if cfg.TopicAPICallsDLQ != "" {
		w := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicAPICallsDLQ)
		defer w.Close()
		dlq = w
	}

	// Servidor HTTP para métricas Prometheus e healthcheck
	srv := metrics.StartMetricsServer(log, cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	proc := worker.NewProcessor(log, prometheus.DefaultRegisterer, store, cache.NewRedisCache(rdb, cfg.LastCallTTL))

	log.Info("call-audit-worker started",
		zap.String("consume", cfg.TopicAPICalls),
		zap.String("dlq", cfg.TopicAPICallsDLQ),
	)

	if err := proc.Run(ctx, reader, dlq); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker stopped", zap.Error(err))
		return
	}
	log.Info("call-audit-worker stopped")
}
