package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var (
		desc bool
		repo string
	)

	cmd := &cobra.Command{
		Use:   "list STORAGE_DIR",
		Short: "List archived issues by creation time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arc, err := a.openArchive(args[0], repo)
			if err != nil {
				return err
			}
			defer arc.Close()

			out := cmd.OutOrStdout()
			if arc.catalog != nil {
				return listCatalog(out, arc, desc)
			}
			for issue, err := range arc.reader.Issues(desc) {
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "#%d\t%s\t%s\n", issue.UID(), issue.Status(), issue.Title())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&desc, "desc", false, "newest first")
	cmd.Flags().StringVar(&repo, "repo", "", "repository in the archive (default: read from the archive stamp)")
	return cmd
}

// listCatalog prints issue summaries from catalog rows without opening the
// issue files
func listCatalog(out io.Writer, arc *archive, desc bool) error {
	numbers, err := arc.catalog.IssueNumbers(arc.repo, desc)
	if err != nil {
		return err
	}
	for _, number := range numbers {
		issue, err := arc.catalog.GetIssue(arc.repo, number)
		if err != nil {
			return err
		}
		if issue == nil {
			continue
		}
		fmt.Fprintf(out, "#%d\t%s\t%s\n", issue.Number, issue.State, issue.Title)
	}
	return nil
}
