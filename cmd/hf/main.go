package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/holdfast-dev/holdfast/internal/config"
	"github.com/holdfast-dev/holdfast/internal/db"
	"github.com/holdfast-dev/holdfast/internal/locker"
	"github.com/holdfast-dev/holdfast/internal/snapshot"
	"github.com/holdfast-dev/holdfast/internal/store"
	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hf",
		Short: "Holdfast: session persistence and worktree checkpoints",
		Long:  "Holdfast stores coding-agent conversations and keeps point-in-time checkpoints of the working directory for undo, diffing and recovery.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newTrackCmd())
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newRestoreCmd())
	cmd.AddCommand(newRevertCmd())
	cmd.AddCommand(newSessionsCmd())
	cmd.AddCommand(newWorktreeCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newWatchCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hf %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// loadConfig loads an explicit config path, a holdfast.yaml in the
// working directory, or the defaults for the current directory.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat("holdfast.yaml"); err == nil {
		return config.Load("holdfast.yaml")
	}
	return config.Default("")
}

// openStore opens the storage database, migrates the schema, and runs
// the lazy backfills.
func openStore(cfg *config.Config) (*store.Store, error) {
	gdb, err := db.Open(filepath.Join(cfg.DataDir, db.FileName))
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(gdb); err != nil {
		return nil, err
	}
	st := store.New(gdb)
	if err := st.EnsureSessionIndex(); err != nil {
		return nil, err
	}
	if err := st.EnsureMessagePartTypes(); err != nil {
		return nil, err
	}
	return st, nil
}

// newSnapshots builds the checkpoint engine for the configured project.
func newSnapshots(cfg *config.Config) *snapshot.Store {
	return snapshot.New(snapshot.Config{
		DataDir:    cfg.DataDir,
		ProjectID:  cfg.Project.ID,
		ProjectDir: cfg.Project.Dir,
		Disabled:   cfg.Snapshot.Disabled,
		GCInterval: time.Duration(cfg.Snapshot.GCHours) * time.Hour,
	}, locker.New())
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
