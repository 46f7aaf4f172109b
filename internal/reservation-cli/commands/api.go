package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "GET /health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.api.HealthCheck(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func (a *app) reserveCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "reserve <texto>",
		Short: "Reserva GPU a partir de um pedido em linguagem natural",
		Example: `  reservation-cli reserve "明日の午後2時から4時間、A10Gを1台予約したいです。"
  reservation-cli reserve --user user-12345 tomorrow 2pm, one A10G for 4 hours`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.api.ReserveFromNaturalLanguage(cmd.Context(), strings.Join(args, " "), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user_context.sub (vazio usa o default da operação)")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista as reservas do usuário",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := a.api.ListMyReservations(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user_context.sub (vazio usa o default da operação)")
	return cmd
}

func (a *app) cancelCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "cancel <reservation-id>",
		Short: "Cancela uma reserva",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.api.CancelReservation(cmd.Context(), args[0], userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user_context.sub (vazio usa o default da operação)")
	return cmd
}
