package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sio/issyours/config"
	"github.com/sio/issyours/internal/api"
	"github.com/sio/issyours/internal/db"
	"github.com/sio/issyours/internal/fetcher"
	"github.com/sio/issyours/internal/metrics"
)

func newFetchCmd(a *app) *cobra.Command {
	var (
		token   string
		catalog string
	)

	cmd := &cobra.Command{
		Use:   "fetch OWNER/REPO STORAGE_DIR",
		Short: "Fetch issues modified since the previous run",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := fetcher.ParseRepository(args[0]); err != nil {
				return err
			}
			if token != "" {
				a.config.GitHub.Token = token
			}
			if catalog != "" {
				a.config.Archive.Catalog = catalog
			}
			if err := a.config.ValidateForFetch(); err != nil {
				return err
			}

			stats, err := a.fetch(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d issues, %d comments, %d events, %d people, %d attachments\n",
				stats.Issues, stats.Comments, stats.Events, stats.People, stats.Attachments)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "oauth-token", "", "GitHub API token (default $"+config.EnvGithubToken+")")
	cmd.Flags().StringVar(&catalog, "catalog", "", "SQLite catalog to update (default archive.catalog)")
	return cmd
}

func (a *app) fetch(ctx context.Context, repo, root string) (*fetcher.Stats, error) {
	cfg := a.config

	client, err := api.NewGitHubClient(api.ClientOptions{
		Token:   cfg.GitHub.Token,
		BaseURL: cfg.GitHub.BaseURL,
		Timeout: cfg.GitHub.Timeout,
		Logger:  a.log,
	})
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	caller := api.NewCaller(client, api.NewRateLimiter(cfg.GitHub.RequestsPerSecond))
	caller.SetRecorder(collector)

	opts := fetcher.Options{
		Repo:    repo,
		Root:    root,
		Source:  api.NewGitHub(caller),
		Metrics: collector,
		Logger:  a.log,
	}
	if cfg.Archive.Catalog != "" {
		database, err := db.Open(cfg.Archive.Catalog)
		if err != nil {
			return nil, err
		}
		defer database.Close()
		opts.Catalog = database
	}

	f, err := fetcher.New(opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	stats, err := f.Fetch(ctx)
	a.log.Info("Fetch finished", "duration", time.Since(start).String(), "success", err == nil)

	if cfg.Metrics.File != "" {
		if werr := metrics.WriteTextfile(cfg.Metrics.File, registry); werr != nil {
			a.log.Error("Failed to write metrics", "path", cfg.Metrics.File, "error", werr)
		}
	}
	return stats, err
}
