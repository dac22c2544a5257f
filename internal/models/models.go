// Package models holds the read-only domain model of an issue archive.
// Values are built once through validating constructors and expose only
// getters.
package models

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/sio/issyours/internal/lazy"
)

// PersonRef is a person that is loaded on first use
type PersonRef = lazy.Object[Person]

// Issue states
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// ErrNoPicture is returned when a person has no stored picture
var ErrNoPicture = errors.New("person has no picture")

// Attachment is a file referenced from an issue or comment body
type Attachment struct {
	URL  string
	Name string
	open func() (io.ReadCloser, error)
}

// NewAttachment describes a stored file; open is called for every Open
func NewAttachment(url, name string, open func() (io.ReadCloser, error)) Attachment {
	return Attachment{URL: url, Name: name, open: open}
}

// Open returns a fresh stream of the attachment. The caller must close it.
func (a Attachment) Open() (io.ReadCloser, error) {
	if a.open == nil {
		return nil, fmt.Errorf("attachment %s is not stored", a.URL)
	}
	return a.open()
}

// IssueParams collects everything needed to build an Issue
type IssueParams struct {
	UID         int
	Author      *PersonRef
	Status      string
	Title       string
	Body        string
	URL         string
	Labels      []Label
	Assignees   []*PersonRef
	ClosedBy    *PersonRef
	PullRequest bool
	CreatedAt   time.Time
	ModifiedAt  time.Time
	FetchedAt   time.Time
	ClosedAt    time.Time
	Attachments func() ([]Attachment, error)
}

// Issue is a single archived issue or pull request
type Issue struct {
	uid         int
	author      *PersonRef
	status      string
	title       string
	body        string
	url         string
	labels      []Label
	assignees   []*PersonRef
	closedBy    *PersonRef
	pullRequest bool
	createdAt   time.Time
	modifiedAt  time.Time
	fetchedAt   time.Time
	closedAt    time.Time
	attachments func() ([]Attachment, error)
}

// NewIssue validates p and builds an immutable Issue
func NewIssue(p IssueParams) (*Issue, error) {
	var missing []string
	if p.UID <= 0 {
		missing = append(missing, "uid")
	}
	if p.Author == nil {
		missing = append(missing, "author")
	}
	if p.Status == "" {
		missing = append(missing, "status")
	}
	if p.Title == "" {
		missing = append(missing, "title")
	}
	if p.CreatedAt.IsZero() {
		missing = append(missing, "created_at")
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("required fields are not filled: %s", strings.Join(missing, ", "))
	}
	if p.Status != StatusOpen && p.Status != StatusClosed {
		return nil, fmt.Errorf("unknown issue status: %q", p.Status)
	}

	labels := make([]Label, len(p.Labels))
	copy(labels, p.Labels)
	assignees := make([]*PersonRef, len(p.Assignees))
	copy(assignees, p.Assignees)

	return &Issue{
		uid:         p.UID,
		author:      p.Author,
		status:      p.Status,
		title:       p.Title,
		body:        p.Body,
		url:         p.URL,
		labels:      labels,
		assignees:   assignees,
		closedBy:    p.ClosedBy,
		pullRequest: p.PullRequest,
		createdAt:   p.CreatedAt.UTC(),
		modifiedAt:  p.ModifiedAt.UTC(),
		fetchedAt:   p.FetchedAt.UTC(),
		closedAt:    p.ClosedAt.UTC(),
		attachments: p.Attachments,
	}, nil
}

func (i *Issue) UID() int              { return i.uid }
func (i *Issue) Status() string        { return i.status }
func (i *Issue) Title() string         { return i.title }
func (i *Issue) Body() string          { return i.body }
func (i *Issue) URL() string           { return i.url }
func (i *Issue) PullRequest() bool     { return i.pullRequest }
func (i *Issue) CreatedAt() time.Time  { return i.createdAt }
func (i *Issue) ModifiedAt() time.Time { return i.modifiedAt }
func (i *Issue) FetchedAt() time.Time  { return i.fetchedAt }

// ClosedAt is zero for open issues
func (i *Issue) ClosedAt() time.Time { return i.closedAt }

// Author loads the person who opened the issue
func (i *Issue) Author() (*Person, error) {
	return i.author.Get()
}

// ClosedBy loads the person who closed the issue, nil if unknown
func (i *Issue) ClosedBy() (*Person, error) {
	if i.closedBy == nil {
		return nil, nil
	}
	return i.closedBy.Get()
}

// Labels returns a copy of the issue labels
func (i *Issue) Labels() []Label {
	out := make([]Label, len(i.labels))
	copy(out, i.labels)
	return out
}

// Assignees loads every assigned person in order
func (i *Issue) Assignees() ([]*Person, error) {
	out := make([]*Person, 0, len(i.assignees))
	for _, ref := range i.assignees {
		p, err := ref.Get()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Attachments runs the deferred lookup of attached files
func (i *Issue) Attachments() ([]Attachment, error) {
	if i.attachments == nil {
		return nil, nil
	}
	return i.attachments()
}
