package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/sio/issyours/internal/logger"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the public GitHub REST API root
	DefaultBaseURL = "https://api.github.com/"

	// LastModifiedKey is added to stored issue documents and holds the
	// Last-Modified header of the single-issue response
	LastModifiedKey = "header-last-modified"

	perPage = "100"
)

// ClientOptions configures the underlying HTTP client
type ClientOptions struct {
	Token   string
	BaseURL string
	Timeout time.Duration
	Logger  logger.Logger
}

// NewGitHubClient creates a go-github client authenticated with a bearer token
func NewGitHubClient(opts ClientOptions) (*github.Client, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	var transport http.RoundTripper = &loggingRoundTripper{
		base:   http.DefaultTransport,
		logger: log,
	}
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			Base:   transport,
		}
	}

	client := github.NewClient(&http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	})

	if opts.BaseURL != "" && opts.BaseURL != DefaultBaseURL {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
		}
		client.BaseURL = u
	}

	return client, nil
}

// Resource is a single API document: the raw JSON object as served plus its
// typed go-github view
type Resource[T any] struct {
	Raw          map[string]interface{}
	Data         *T
	LastModified Timestamp
}

// GitHub is a high level read only client for issue archiving
type GitHub struct {
	api *Caller
}

// NewGitHub wraps a Caller with endpoint knowledge
func NewGitHub(caller *Caller) *GitHub {
	return &GitHub{api: caller}
}

// Issues yields every issue and pull request of a repository modified since
// the given time. Each listed stub is fetched again on its own to obtain a
// precise Last-Modified header; stubs that report "not modified" are skipped.
func (g *GitHub) Issues(ctx context.Context, owner, repo string, since Timestamp) iter.Seq2[*Resource[github.Issue], error] {
	return func(yield func(*Resource[github.Issue], error) bool) {
		params := url.Values{
			"filter":   {"all"},
			"state":    {"all"},
			"per_page": {perPage},
		}
		if !since.IsZero() {
			params.Set("since", since.ISO())
		}
		endpoint := fmt.Sprintf("repos/%s/%s/issues", owner, repo)

		for page, err := range g.api.Pages(ctx, endpoint, params, Timestamp{}) {
			if err != nil {
				yield(nil, fmt.Errorf("failed to list issues: %w", err))
				return
			}

			stubs, err := decodeList[github.Issue](page.Body)
			if err != nil {
				yield(nil, fmt.Errorf("failed to decode issue list: %w", err))
				return
			}

			for _, stub := range stubs {
				issue, err := g.issue(ctx, stub.Data.GetURL(), since)
				if IsNotModified(err) {
					continue
				}
				if err != nil {
					yield(nil, fmt.Errorf("failed to fetch issue #%d: %w", stub.Data.GetNumber(), err))
					return
				}
				if !yield(issue, nil) {
					return
				}
			}
		}
	}
}

func (g *GitHub) issue(ctx context.Context, target string, since Timestamp) (*Resource[github.Issue], error) {
	page, err := g.api.Single(ctx, target, nil, since)
	if err != nil {
		return nil, err
	}

	issue, err := decodeResource[github.Issue](page.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode issue: %w", err)
	}

	issue.LastModified = NewTimestamp(issue.Data.GetUpdatedAt().Time)
	if header := page.Header.Get("Last-Modified"); header != "" {
		issue.Raw[LastModifiedKey] = header
		if ts, err := ParseHeader(header); err == nil {
			issue.LastModified = ts
		}
	}
	return issue, nil
}

// Comments yields the comments of an issue. target is the issue's
// comments_url or an endpoint from IssueCommentsEndpoint.
func (g *GitHub) Comments(ctx context.Context, target string, since Timestamp) iter.Seq2[*Resource[github.IssueComment], error] {
	return listAll[github.IssueComment](ctx, g.api, target, since)
}

// Events yields the timeline events of an issue. target is the issue's
// events_url or an endpoint from IssueEventsEndpoint.
func (g *GitHub) Events(ctx context.Context, target string, since Timestamp) iter.Seq2[*Resource[github.IssueEvent], error] {
	return listAll[github.IssueEvent](ctx, g.api, target, since)
}

// Person fetches a single user profile. A profile unchanged since the given
// time yields an error matched by IsNotModified.
func (g *GitHub) Person(ctx context.Context, login string, since Timestamp) (*Resource[github.User], error) {
	page, err := g.api.Single(ctx, "users/"+url.PathEscape(login), nil, since)
	if err != nil {
		return nil, err
	}
	person, err := decodeResource[github.User](page.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", login, err)
	}
	return person, nil
}

// IssueCommentsEndpoint returns the comments endpoint of an issue
func IssueCommentsEndpoint(owner, repo string, number int) string {
	return fmt.Sprintf("repos/%s/%s/issues/%d/comments", owner, repo, number)
}

// IssueEventsEndpoint returns the events endpoint of an issue
func IssueEventsEndpoint(owner, repo string, number int) string {
	return fmt.Sprintf("repos/%s/%s/issues/%d/events", owner, repo, number)
}

func listAll[T any](ctx context.Context, caller *Caller, target string, since Timestamp) iter.Seq2[*Resource[T], error] {
	return func(yield func(*Resource[T], error) bool) {
		params := url.Values{"per_page": {perPage}}
		if !since.IsZero() {
			params.Set("since", since.ISO())
		}

		for page, err := range caller.Pages(ctx, target, params, Timestamp{}) {
			if err != nil {
				yield(nil, err)
				return
			}
			items, err := decodeList[T](page.Body)
			if err != nil {
				yield(nil, fmt.Errorf("failed to decode %s: %w", target, err))
				return
			}
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
		}
	}
}

func decodeList[T any](body []byte) ([]*Resource[T], error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, err
	}
	items := make([]*Resource[T], 0, len(raws))
	for _, raw := range raws {
		item, err := decodeResource[T](raw)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeResource[T any](body []byte) (*Resource[T], error) {
	var data T
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	return &Resource[T]{Raw: raw, Data: &data}, nil
}
