package db

import (
	"strings"

	"github.com/google/go-github/v57/github"
)

// IssueFromGitHub converts a go-github issue into a catalog row
func IssueFromGitHub(repository string, issue *github.Issue) IssueRecord {
	record := IssueRecord{
		Repository:  repository,
		Number:      issue.GetNumber(),
		Title:       issue.GetTitle(),
		State:       issue.GetState(),
		Author:      issue.GetUser().GetLogin(),
		PullRequest: issue.IsPullRequest(),
		CreatedAt:   issue.GetCreatedAt().Time,
		UpdatedAt:   issue.GetUpdatedAt().Time,
	}

	if issue.ClosedAt != nil {
		closedAt := issue.GetClosedAt().Time
		record.ClosedAt = &closedAt
	}

	for _, label := range issue.Labels {
		record.Labels = append(record.Labels, LabelRecord{
			Name:  label.GetName(),
			Color: strings.TrimPrefix(label.GetColor(), "#"),
		})
	}

	return record
}

// PersonFromGitHub converts a go-github user into a catalog row
func PersonFromGitHub(user *github.User) PersonRecord {
	return PersonRecord{
		Login:     user.GetLogin(),
		Name:      user.GetName(),
		AvatarURL: user.GetAvatarURL(),
	}
}
