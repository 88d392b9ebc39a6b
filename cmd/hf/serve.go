package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/holdfast-dev/holdfast/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync HTTP server",
		Long:  "Serves the session index, message pages, cached diffs, and a live event stream until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.Start(ctx, server.StartOpts{
				Store:      st,
				Snapshots:  newSnapshots(cfg),
				Addr:       addr,
				GCSchedule: cfg.Snapshot.GCSchedule,
				Out:        cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to holdfast config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
