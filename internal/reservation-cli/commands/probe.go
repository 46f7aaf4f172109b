package commands

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/radieske/gpu-reservation-poc/internal/shared/metrics"
)

var errAPIUnhealthy = errors.New("gpu api unhealthy")

// probeCmd chama /health periodicamente e expõe as métricas do cliente.
// Roda até o contexto ser cancelado ou --count ser atingido.
func (a *app) probeCmd() *cobra.Command {
	var (
		interval    time.Duration
		count       int
		metricsPort string
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Health check periódico com /metrics e /healthz",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.reg == nil {
				a.reg = prometheus.DefaultRegisterer
			}
			a.metered = true
			return a.setup(cmd, args)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var healthy atomic.Bool

			if metricsPort != "" {
				srv := metrics.StartMetricsServer(a.log, metricsPort, func(context.Context) error {
					if !healthy.Load() {
						return errAPIUnhealthy
					}
					return nil
				})
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(ctx)
				}()
			}

			return a.probe(cmd.Context(), interval, count, &healthy)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "intervalo entre checks")
	cmd.Flags().IntVar(&count, "count", 0, "para depois de N checks; 0 roda até SIGTERM")
	cmd.Flags().StringVar(&metricsPort, "metrics-port", defaultProbePort(a.cfg.MetricsPort), "porta de /metrics e /healthz; vazio desliga")
	return cmd
}

func defaultProbePort(p string) string {
	if p != "" {
		return p
	}
	return "9103"
}

func (a *app) probe(ctx context.Context, interval time.Duration, count int, healthy *atomic.Bool) error {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for n := 1; ; n++ {
		out, err := a.api.HealthCheck(ctx)
		switch {
		case err != nil:
			healthy.Store(false)
			a.log.Warn("probe failed", zap.Int("n", n), zap.Error(err))
		default:
			healthy.Store(true)
			a.log.Info("probe ok", zap.Int("n", n), zap.Any("status", out["status"]))
		}

		if count > 0 && n >= count {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
