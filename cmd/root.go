package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sio/issyours/config"
	"github.com/sio/issyours/internal/logger"
)

// app holds state shared by every subcommand
type app struct {
	configPath string
	verbose    bool

	config *config.Config
	log    logger.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "issyours",
		Short: "Keep an offline archive of GitHub issues",
		Long: `issyours mirrors the issues, comments, events and attachments of a
GitHub repository into a directory of JSON files. Repeated runs only
download what changed since the previous one.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to configuration file")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug output")

	cmd.AddCommand(newFetchCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newShowCmd(a))
	cmd.AddCommand(newReindexCmd(a))
	cmd.AddCommand(newInitCmd(a))
	return cmd
}

// setup loads configuration and builds the logger. Log lines go to stderr,
// stdout is reserved for command output.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.config = cfg

	logConfig := logger.ConfigFromEnv()
	if cfg.Log.Level != "" {
		logConfig.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		logConfig.Format = cfg.Log.Format
	}
	if a.verbose {
		logConfig.Level = "debug"
	}

	a.log, err = logger.New(
		logger.WithLevel(logConfig.Level),
		logger.WithFormat(logConfig.Format),
		logger.WithOutput(cmd.ErrOrStderr()),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// Execute runs the command line until completion or interrupt
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
