package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sio/issyours/config"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [PATH]",
		Short: "Create a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		// A missing configuration file is what this command fixes
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				var err error
				if path, err = config.DefaultPath(); err != nil {
					return err
				}
			}

			created, err := config.CreateDefaultConfig(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !created {
				fmt.Fprintf(out, "Configuration file %s already exists\n", path)
				return nil
			}
			fmt.Fprintf(out, "Created default configuration file at %s\n", path)
			fmt.Fprintf(out, "Set your GitHub token in the %s environment variable.\n", config.EnvGithubToken)
			return nil
		},
	}
}
