package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sio/issyours/internal/models"
)

func newShowCmd(a *app) *cobra.Command {
	var (
		desc bool
		repo string
	)

	cmd := &cobra.Command{
		Use:   "show STORAGE_DIR NUMBER",
		Short: "Print an archived issue with its comments and events",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := strconv.Atoi(args[1])
			if err != nil || uid <= 0 {
				return fmt.Errorf("invalid issue number: %s", args[1])
			}

			arc, err := a.openArchive(args[0], repo)
			if err != nil {
				return err
			}
			defer arc.Close()

			issue, err := arc.reader.Issue(uid)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := printIssue(out, arc, issue); err != nil {
				return err
			}

			for item, err := range arc.reader.Feed(uid, desc) {
				if err != nil {
					return err
				}
				if err := printFeedItem(out, item); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&desc, "desc", false, "newest comments and events first")
	cmd.Flags().StringVar(&repo, "repo", "", "repository in the archive (default: read from the archive stamp)")
	return cmd
}

func printIssue(out io.Writer, arc *archive, issue *models.Issue) error {
	kind := "Issue"
	if issue.PullRequest() {
		kind = "Pull request"
	}
	fmt.Fprintf(out, "%s #%d [%s] %s\n", kind, issue.UID(), issue.Status(), issue.Title())

	author, err := issue.Author()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Author: %s\n", personLine(author))
	fmt.Fprintf(out, "Created: %s\n", formatTime(issue.CreatedAt()))

	if !issue.ClosedAt().IsZero() {
		closedBy, err := issue.ClosedBy()
		if err != nil {
			return err
		}
		line := formatTime(issue.ClosedAt())
		if closedBy != nil {
			line += " by " + personLine(closedBy)
		}
		fmt.Fprintf(out, "Closed: %s\n", line)
	}

	if modified, err := arc.fs.LastModified(issue.UID()); err == nil {
		fmt.Fprintf(out, "Last modified: %s\n", modified.Header())
	}

	if labels := issue.Labels(); len(labels) > 0 {
		names := make([]string, 0, len(labels))
		for _, label := range labels {
			names = append(names, label.Name()+" ("+label.Color()+")")
		}
		fmt.Fprintf(out, "Labels: %s\n", strings.Join(names, ", "))
	}

	assignees, err := issue.Assignees()
	if err != nil {
		return err
	}
	if len(assignees) > 0 {
		names := make([]string, 0, len(assignees))
		for _, person := range assignees {
			names = append(names, person.Nickname())
		}
		fmt.Fprintf(out, "Assignees: %s\n", strings.Join(names, ", "))
	}

	attachments, err := issue.Attachments()
	if err != nil {
		return err
	}
	for _, attachment := range attachments {
		fmt.Fprintf(out, "Attachment: %s (%s)\n", attachment.Name, attachment.URL)
	}

	if issue.URL() != "" {
		fmt.Fprintf(out, "URL: %s\n", issue.URL())
	}
	fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(issue.Body()))
	return nil
}

func printFeedItem(out io.Writer, item models.FeedItem) error {
	switch item := item.(type) {
	case *models.IssueComment:
		author, err := item.Author()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n--- %s comment by %s\n%s\n",
			formatTime(item.CreatedAt()), personLine(author), strings.TrimSpace(item.Body()))
	case *models.IssueEvent:
		actor, err := item.Actor()
		if err != nil {
			return err
		}
		who := "unknown"
		if actor != nil {
			who = actor.Nickname()
		}
		fmt.Fprintf(out, "\n--- %s %s by %s%s\n", formatTime(item.CreatedAt()), item.Type(), who, eventDetail(item))
	}
	return nil
}

// eventDetail describes the payload of common event types
func eventDetail(e *models.IssueEvent) string {
	switch e.Type() {
	case "labeled", "unlabeled":
		return ": " + e.Payload("label")
	case "assigned", "unassigned":
		return ": " + e.Payload("assignee")
	case "milestoned", "demilestoned":
		return ": " + e.Payload("milestone")
	case "renamed":
		return fmt.Sprintf(": %q -> %q", e.Payload("rename_from"), e.Payload("rename_to"))
	case "referenced", "closed", "merged":
		if commit := e.Payload("commit_id"); commit != "" {
			return ": " + commit
		}
	case "locked":
		if reason := e.Payload("lock_reason"); reason != "" {
			return ": " + reason
		}
	}
	return ""
}

func personLine(p *models.Person) string {
	if p.Name() == p.Nickname() {
		return p.Nickname()
	}
	return fmt.Sprintf("%s (%s)", p.Name(), p.Nickname())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
