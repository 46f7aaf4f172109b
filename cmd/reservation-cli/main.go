package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/radieske/gpu-reservation-poc/internal/reservation-cli/commands"
	"github.com/radieske/gpu-reservation-poc/internal/shared/config"
	"github.com/radieske/gpu-reservation-poc/internal/shared/logger"
)

func main() {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		// sem SERVICE_NAME o Load cai nas portas default; a CLI não usa
		cfg.ServiceName = "reservation-cli"
		cfg.HTTPPort, cfg.MetricsPort = "", ""
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCmd(cfg, log).ExecuteContext(ctx); err != nil {
		log.Error("command failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}
