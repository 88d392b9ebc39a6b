package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTrackCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Capture a checkpoint of the working directory",
		Long:  "Stages the current worktree into the shadow repository and prints the checkpoint hash. A no-op outside a git repository or when snapshotting is disabled.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			hash, err := newSnapshots(cfg).Track()
			if err != nil {
				return err
			}
			if hash == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "snapshotting disabled or not a git repository; nothing tracked")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to holdfast config file")
	return cmd
}
