package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var configPath string
	var nameOnly bool
	var full bool

	cmd := &cobra.Command{
		Use:   "diff <hash> [<to-hash>]",
		Short: "Diff a checkpoint against the worktree or another checkpoint",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			snaps := newSnapshots(cfg)
			out := cmd.OutOrStdout()

			if len(args) == 2 || full {
				if len(args) != 2 {
					return fmt.Errorf("--full requires two checkpoint hashes")
				}
				diffs, err := snaps.DiffFull(args[0], args[1])
				if err != nil {
					return err
				}
				for _, fd := range diffs {
					fmt.Fprintf(out, "%s\t+%d\t-%d\n", fd.File, fd.Additions, fd.Deletions)
				}
				return nil
			}

			if nameOnly {
				patch := snaps.PatchSet(args[0])
				for _, file := range patch.Files {
					fmt.Fprintln(out, file)
				}
				return nil
			}

			fmt.Fprintln(out, snaps.Diff(args[0]))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to holdfast config file")
	cmd.Flags().BoolVar(&nameOnly, "name-only", false, "list changed files instead of the full diff")
	cmd.Flags().BoolVar(&full, "full", false, "per-file stats between two checkpoints")
	return cmd
}
