package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/holdfast-dev/holdfast/internal/watch"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Checkpoint automatically as files change",
		Long:  "Watches the project directory and captures a checkpoint after each burst of file changes, until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			snaps := newSnapshots(cfg)
			if !snaps.Tracked() {
				return fmt.Errorf("watch: %s is not a git repository", cfg.Project.Dir)
			}

			w, err := watch.New(cfg.Project.Dir,
				time.Duration(cfg.Watch.DebounceMS)*time.Millisecond, snaps.Track)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s\n", cfg.Project.Dir)
			if err := w.Run(ctx); err != nil && err != ctx.Err() {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to holdfast config file")
	return cmd
}
