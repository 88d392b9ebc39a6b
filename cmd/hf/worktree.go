package main

import (
	"fmt"

	"github.com/holdfast-dev/holdfast/internal/worktree"
	"github.com/spf13/cobra"
)

func newWorktreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worktree",
		Short: "Manage sub-session worktrees",
	}

	cmd.AddCommand(newWorktreeAddCmd())
	cmd.AddCommand(newWorktreeRemoveCmd())
	cmd.AddCommand(newWorktreeListCmd())
	return cmd
}

func worktreeManager(configPath string) (*worktree.Manager, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return worktree.NewManager(cfg.Project.Dir, cfg.Worktrees.Root), nil
}

func newWorktreeAddCmd() *cobra.Command {
	var configPath string
	var branch string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a worktree on a fresh branch from HEAD",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := worktreeManager(configPath)
			if err != nil {
				return err
			}
			path, err := mgr.Add(args[0], branch)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to holdfast config file")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch name (defaults to holdfast/<name>)")
	return cmd
}

func newWorktreeRemoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "remove <path>",
		Short: "Remove a managed worktree",
		Long:  "Removes a worktree under the managed root. Refuses paths outside it; a busy worktree is retried and eventually force-deleted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := worktreeManager(configPath)
			if err != nil {
				return err
			}
			if err := mgr.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to holdfast config file")
	return cmd
}

func newWorktreeListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List managed worktrees",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := worktreeManager(configPath)
			if err != nil {
				return err
			}
			paths, err := mgr.List()
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to holdfast config file")
	return cmd
}
