package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/holdfast-dev/holdfast/internal/store"
	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	var configPath string
	var q store.SessionQuery
	var allProjects bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			if q.ProjectID == "" && !allProjects {
				q.ProjectID = cfg.Project.ID
			}

			rows, err := st.ListSessionIndex(q)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tUPDATED\tFILES\t+/-")
			for _, row := range rows {
				updated := time.UnixMilli(row.Updated).Format("2006-01-02 15:04")
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t+%d/-%d\n",
					row.ID, row.Title, updated, row.Files, row.Additions, row.Deletions)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to holdfast config file")
	cmd.Flags().StringVar(&q.ProjectID, "project", "", "filter by project id (defaults to the configured project)")
	cmd.Flags().BoolVar(&allProjects, "all-projects", false, "list sessions across every project")
	cmd.Flags().StringVar(&q.Title, "title", "", "filter by title substring")
	cmd.Flags().StringVar(&q.Directory, "directory", "", "filter by working directory")
	cmd.Flags().BoolVar(&q.IncludeArchived, "archived", false, "include archived sessions")
	cmd.Flags().StringVar(&q.AfterID, "after", "", "page cursor: list sessions after this id")
	cmd.Flags().IntVar(&q.Limit, "limit", 50, "maximum sessions to list")
	return cmd
}
