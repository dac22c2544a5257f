package models

import (
	"fmt"
	"time"
)

// FeedItem is anything shown in the chronological history of an issue
type FeedItem interface {
	IssueUID() int
	CreatedAt() time.Time
}

// CommentParams collects everything needed to build an IssueComment
type CommentParams struct {
	ID          int64
	IssueUID    int
	Author      *PersonRef
	Role        string
	Body        string
	URL         string
	CreatedAt   time.Time
	ModifiedAt  time.Time
	Attachments func() ([]Attachment, error)
}

// IssueComment is a reply in an issue thread. It refers to its issue by uid
// only, so holding a comment does not keep the issue loaded.
type IssueComment struct {
	id          int64
	issueUID    int
	author      *PersonRef
	role        string
	body        string
	url         string
	createdAt   time.Time
	modifiedAt  time.Time
	attachments func() ([]Attachment, error)
}

// NewComment validates p and builds an immutable IssueComment
func NewComment(p CommentParams) (*IssueComment, error) {
	if p.IssueUID <= 0 || p.Author == nil || p.CreatedAt.IsZero() {
		return nil, fmt.Errorf("comment %d: required fields are not filled: issue, author, created_at", p.ID)
	}
	return &IssueComment{
		id:          p.ID,
		issueUID:    p.IssueUID,
		author:      p.Author,
		role:        p.Role,
		body:        p.Body,
		url:         p.URL,
		createdAt:   p.CreatedAt.UTC(),
		modifiedAt:  p.ModifiedAt.UTC(),
		attachments: p.Attachments,
	}, nil
}

func (c *IssueComment) ID() int64             { return c.id }
func (c *IssueComment) IssueUID() int         { return c.issueUID }
func (c *IssueComment) Role() string          { return c.role }
func (c *IssueComment) Body() string          { return c.body }
func (c *IssueComment) URL() string           { return c.url }
func (c *IssueComment) CreatedAt() time.Time  { return c.createdAt }
func (c *IssueComment) ModifiedAt() time.Time { return c.modifiedAt }

func (c *IssueComment) Author() (*Person, error) {
	return c.author.Get()
}

func (c *IssueComment) Attachments() ([]Attachment, error) {
	if c.attachments == nil {
		return nil, nil
	}
	return c.attachments()
}

// EventParams collects everything needed to build an IssueEvent
type EventParams struct {
	ID        int64
	IssueUID  int
	Actor     *PersonRef
	Type      string
	Payload   map[string]string
	CreatedAt time.Time
}

// IssueEvent is a state change in an issue: labeling, closing, renaming and so on
type IssueEvent struct {
	id        int64
	issueUID  int
	actor     *PersonRef
	eventType string
	payload   map[string]string
	createdAt time.Time
}

// NewEvent validates p and builds an immutable IssueEvent. Actor may be nil
// for events produced by deleted accounts.
func NewEvent(p EventParams) (*IssueEvent, error) {
	if p.IssueUID <= 0 || p.Type == "" || p.CreatedAt.IsZero() {
		return nil, fmt.Errorf("event %d: required fields are not filled: issue, type, created_at", p.ID)
	}
	payload := make(map[string]string, len(p.Payload))
	for k, v := range p.Payload {
		payload[k] = v
	}
	return &IssueEvent{
		id:        p.ID,
		issueUID:  p.IssueUID,
		actor:     p.Actor,
		eventType: p.Type,
		payload:   payload,
		createdAt: p.CreatedAt.UTC(),
	}, nil
}

func (e *IssueEvent) ID() int64            { return e.id }
func (e *IssueEvent) IssueUID() int        { return e.issueUID }
func (e *IssueEvent) Type() string         { return e.eventType }
func (e *IssueEvent) CreatedAt() time.Time { return e.createdAt }

// Actor loads the person who caused the event, nil if unknown
func (e *IssueEvent) Actor() (*Person, error) {
	if e.actor == nil {
		return nil, nil
	}
	return e.actor.Get()
}

// Payload returns a single event detail, such as "label" or "rename_from"
func (e *IssueEvent) Payload(key string) string {
	return e.payload[key]
}
