package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sio/issyours/internal/db"
	"github.com/sio/issyours/internal/fetcher"
)

func newReindexCmd(a *app) *cobra.Command {
	var (
		catalog string
		repo    string
	)

	cmd := &cobra.Command{
		Use:   "reindex STORAGE_DIR",
		Short: "Rebuild the SQLite catalog from archive files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			if catalog == "" {
				catalog = a.config.Archive.Catalog
			}
			if catalog == "" {
				return fmt.Errorf("catalog path is required: use --catalog or set archive.catalog")
			}
			repo, err := resolveRepository(root, repo)
			if err != nil {
				return err
			}

			database, err := db.Open(catalog)
			if err != nil {
				return err
			}
			defer database.Close()

			stats, err := fetcher.Reindex(repo, root, database, a.log)
			if err != nil {
				return err
			}
			synced, err := database.GetLastSyncTime(repo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d issues and %d people of %s, synced up to %s\n",
				stats.Issues, stats.People, repo, synced.Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&catalog, "catalog", "", "SQLite catalog path (default archive.catalog)")
	cmd.Flags().StringVar(&repo, "repo", "", "repository in the archive (default: read from the archive stamp)")
	return cmd
}
