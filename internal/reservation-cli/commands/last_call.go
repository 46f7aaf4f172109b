package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radieske/gpu-reservation-poc/internal/call-audit/cache"
	"github.com/radieske/gpu-reservation-poc/internal/reservation/dto"
	sharedcache "github.com/radieske/gpu-reservation-poc/internal/shared/cache"
)

// lastCallCmd lê do Redis a última chamada auditada de um usuário
func (a *app) lastCallCmd() *cobra.Command {
	var (
		userID    string
		redisAddr string
	)
	cmd := &cobra.Command{
		Use:   "last-call",
		Short: "Mostra a última chamada auditada do usuário (Redis)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rdb, err := sharedcache.ConnectRedis(ctx, redisAddr)
			if err != nil {
				return err
			}
			defer rdb.Close()

			ev, ok, err := cache.NewRedisCache(rdb, a.cfg.LastCallTTL).GetLast(ctx, userID)
			if err != nil {
				return fmt.Errorf("get last call: %w", err)
			}
			if !ok {
				return fmt.Errorf("no audited call for user %q", userID)
			}
			return printJSON(cmd.OutOrStdout(), ev)
		},
	}
	cmd.Flags().StringVar(&userID, "user", dto.DefaultUserID, "user_context.sub")
	cmd.Flags().StringVar(&redisAddr, "redis", a.cfg.RedisAddr, "endereço do Redis (env REDIS_ADDR)")
	return cmd
}
