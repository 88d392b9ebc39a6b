package main

import (
	"fmt"

	"github.com/holdfast-dev/holdfast/internal/snapshot"
	"github.com/spf13/cobra"
)

func newRestoreCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "restore <hash>",
		Short: "Restore the worktree to a checkpoint",
		Long:  "Replaces the worktree's tracked content with the checkpoint's tree. Best effort: failures are logged and the worktree should be inspected afterwards.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			newSnapshots(cfg).Restore(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to holdfast config file")
	return cmd
}

func newRevertCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "revert <hash> [file...]",
		Short: "Revert files to their state at a checkpoint",
		Long:  "Restores the named files from the checkpoint; with no files, every path differing from the checkpoint is reverted. Files that did not exist at the checkpoint are deleted.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			snaps := newSnapshots(cfg)

			patch := snapshot.Patch{Hash: args[0], Files: args[1:]}
			if len(patch.Files) == 0 {
				patch = snaps.PatchSet(args[0])
			}
			snaps.Revert([]snapshot.Patch{patch})
			fmt.Fprintf(cmd.OutOrStdout(), "reverted %d file(s) to %s\n", len(patch.Files), args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to holdfast config file")
	return cmd
}
