package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/beka-birhanu/vinom-relay-server/api"
)

const adminTimeout = 5 * time.Second

func addAdminFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&cfg.AdminAddr, "admin", cfg.AdminAddr, "Admin gRPC address (env: RELAY_ADMIN)")
}

func withAdmin(cmd *cobra.Command, fn func(ctx context.Context, c *api.Client) error) error {
	c, err := api.Dial(cfg.AdminAddr)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), adminTimeout)
	defer cancel()
	return fn(ctx, c)
}

func newPlayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "List registered players",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, func(ctx context.Context, c *api.Client) error {
				players, err := c.ListPlayers(ctx)
				if err != nil {
					return err
				}
				return printPlayers(cmd.OutOrStdout(), players)
			})
		},
	}
	addAdminFlag(cmd)
	return cmd
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show server level, admission and counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdmin(cmd, func(ctx context.Context, c *api.Client) error {
				info, err := c.ServerInfo(ctx)
				if err != nil {
					return err
				}
				return printInfo(cmd.OutOrStdout(), info)
			})
		},
	}
	addAdminFlag(cmd)
	return cmd
}
