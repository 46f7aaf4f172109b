package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Valores fixos da sequência de demonstração
const (
	DemoNLPRequest   = "明日の午後2時から4時間、トレーニング用にA10Gを1台予約したいです。"
	DemoReserveUser  = "user-12345"
	DemoListUser     = "user-abcde"
	DemoCancelUser   = "user-who-owns-reservation"
	demoSeparatorLen = 30
)

// demoCmd roda as quatro operações em sequência. Falhas são logadas e a
// sequência continua.
func (a *app) demoCmd() *cobra.Command {
	var reservationID string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Executa health, reserve, list e cancel em sequência",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id := reservationID
			if id == "" {
				// ID fictício; numa reserva real viria da resposta do reserve
				id = uuid.NewString()
			}
			failed := a.runDemo(cmd.Context(), cmd.OutOrStdout(), id)
			a.log.Info("demo finished", zap.Int("failed", failed), zap.String("url", a.api.BaseURL()))
			return nil
		},
	}
	cmd.Flags().StringVar(&reservationID, "reservation-id", "", "ID usado no cancel (default: uuid aleatório)")
	return cmd
}

type demoStep struct {
	title string
	run   func(ctx context.Context) (any, error)
}

func (a *app) runDemo(ctx context.Context, w io.Writer, reservationID string) int {
	steps := []demoStep{
		{"health check", func(ctx context.Context) (any, error) {
			return a.api.HealthCheck(ctx)
		}},
		{"reserve from natural language", func(ctx context.Context) (any, error) {
			return a.api.ReserveFromNaturalLanguage(ctx, DemoNLPRequest, DemoReserveUser)
		}},
		{fmt.Sprintf("reservations of %s", DemoListUser), func(ctx context.Context) (any, error) {
			return a.api.ListMyReservations(ctx, DemoListUser)
		}},
		{fmt.Sprintf("cancel reservation %s", reservationID), func(ctx context.Context) (any, error) {
			return a.api.CancelReservation(ctx, reservationID, DemoCancelUser)
		}},
	}

	failed := 0
	for i, s := range steps {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "--- %s ---\n", s.title)
		out, err := s.run(ctx)
		if err != nil {
			failed++
			a.log.Warn("demo step failed", zap.String("step", s.title), zap.Error(err))
			fmt.Fprintf(w, "failed: %v\n", err)
		} else if err := printJSON(w, out); err != nil {
			a.log.Warn("print result", zap.Error(err))
		}
		fmt.Fprintln(w, strings.Repeat("-", demoSeparatorLen))
	}
	return failed
}
