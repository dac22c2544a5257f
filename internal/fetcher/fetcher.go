// Package fetcher mirrors the issues of a GitHub repository into an archive
// directory and records its progress in stamp files, so an interrupted or
// repeated run only downloads what changed.
package fetcher

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/sio/issyours/internal/api"
	"github.com/sio/issyours/internal/db"
	"github.com/sio/issyours/internal/logger"
	"github.com/sio/issyours/internal/markup"
	"github.com/sio/issyours/internal/storage"
)

// Source is the remote issue tracker
type Source interface {
	Issues(ctx context.Context, owner, repo string, since api.Timestamp) iter.Seq2[*api.Resource[github.Issue], error]
	Comments(ctx context.Context, target string, since api.Timestamp) iter.Seq2[*api.Resource[github.IssueComment], error]
	Events(ctx context.Context, target string, since api.Timestamp) iter.Seq2[*api.Resource[github.IssueEvent], error]
	Person(ctx context.Context, login string, since api.Timestamp) (*api.Resource[github.User], error)
}

// Catalog mirrors archive metadata into a queryable index
type Catalog interface {
	SaveIssue(issue db.IssueRecord) error
	SavePerson(person db.PersonRecord) error
	UpdateLastSyncTime(repoFullName string, syncTime time.Time) error
}

// Recorder receives statistics about archive writes
type Recorder interface {
	RecordWrite(kind string)
	RecordFailure(kind string)
	RecordStamp(t time.Time)
}

type nopRecorder struct{}

func (nopRecorder) RecordWrite(string)    {}
func (nopRecorder) RecordFailure(string)  {}
func (nopRecorder) RecordStamp(time.Time) {}

// File kinds reported to the Recorder
const (
	KindIssue      = "issue"
	KindComment    = "comment"
	KindEvent      = "event"
	KindPerson     = "person"
	KindAvatar     = "avatar"
	KindAttachment = "attachment"
	KindPatch      = "patch"
	KindStamp      = "stamp"
)

// Options configures a Fetcher. Repo, Root and Source are required.
type Options struct {
	Repo   string
	Root   string
	Source Source

	// Downloads fetches attachments, avatars and patches. Defaults to an
	// SSRF-safe client.
	Downloads *http.Client
	Catalog   Catalog
	Metrics   Recorder
	Logger    logger.Logger
}

// Stats summarizes a single run
type Stats struct {
	Issues      int
	Comments    int
	Events      int
	People      int
	Attachments int
	Stamp       api.Timestamp
}

// Fetcher downloads one repository into one archive directory. A Fetcher
// is meant for a single goroutine.
type Fetcher struct {
	repo      string
	owner     string
	name      string
	layout    *storage.Layout
	source    Source
	downloads *http.Client
	markup    *markup.Renderer
	catalog   Catalog
	metrics   Recorder
	logger    logger.Logger
}

// New validates opts and creates a Fetcher
func New(opts Options) (*Fetcher, error) {
	owner, name, err := ParseRepository(opts.Repo)
	if err != nil {
		return nil, err
	}
	if opts.Root == "" {
		return nil, fmt.Errorf("archive directory is required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("issue source is required")
	}

	f := &Fetcher{
		repo:      opts.Repo,
		owner:     owner,
		name:      name,
		layout:    storage.NewLayout(opts.Repo, opts.Root),
		source:    opts.Source,
		downloads: opts.Downloads,
		markup:    markup.NewRenderer(),
		catalog:   opts.Catalog,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
	if f.downloads == nil {
		f.downloads = NewDownloadClient(DefaultDownloadTimeout)
	}
	if f.metrics == nil {
		f.metrics = nopRecorder{}
	}
	if f.logger == nil {
		f.logger = logger.NewNop()
	}
	f.logger = f.logger.WithFields("repo", f.repo)
	return f, nil
}

// ParseRepository parses a repository string in the format "owner/name"
func ParseRepository(repo string) (string, string, error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format, expected 'owner/name', got '%s'", repo)
	}
	return parts[0], parts[1], nil
}

// Fetch downloads everything modified since the previous successful run.
// Any error aborts the run before the global stamp is advanced.
func (f *Fetcher) Fetch(ctx context.Context) (*Stats, error) {
	since, _, err := f.readStamp(0)
	if err != nil {
		return nil, err
	}
	if since.IsZero() {
		f.logger.Info("Fetching all issues")
	} else {
		f.logger.Info("Fetching issues", "modified_since", since.ISO())
	}

	run := &run{
		since: since,
		seen:  make(map[string]bool),
		stats: &Stats{},
	}
	latest := since

	for issue, err := range f.source.Issues(ctx, f.owner, f.name, since) {
		if err != nil {
			return run.stats, err
		}
		if err := f.fetchIssue(ctx, run, issue); err != nil {
			return run.stats, fmt.Errorf("issue #%d: %w", issue.Data.GetNumber(), err)
		}
		latest = api.Latest(latest, issue.LastModified)
	}

	if latest.IsZero() {
		// First run against an empty repository: nothing to resume from
		f.logger.Warn("No issues fetched, global stamp not written")
		return run.stats, nil
	}
	if err := f.writeStamp(0, latest); err != nil {
		return run.stats, err
	}
	f.metrics.RecordWrite(KindStamp)
	f.metrics.RecordStamp(latest.Time())
	run.stats.Stamp = latest

	if f.catalog != nil {
		if err := f.catalog.UpdateLastSyncTime(f.repo, latest.Time()); err != nil {
			return run.stats, err
		}
	}

	f.logger.Info("Fetch complete",
		"issues", run.stats.Issues,
		"comments", run.stats.Comments,
		"events", run.stats.Events,
		"people", run.stats.People,
		"stamp", latest.ISO())
	return run.stats, nil
}

// run holds the state of one Fetch call
type run struct {
	since api.Timestamp
	seen  map[string]bool
	stats *Stats
}

func (f *Fetcher) fetchIssue(ctx context.Context, run *run, issue *api.Resource[github.Issue]) error {
	number := issue.Data.GetNumber()
	log := f.logger.WithFields("issue", number)

	// Sub-resources may change without touching the issue itself, so they
	// are requested relative to this issue's own stamp
	issueSince, _, err := f.readStamp(number)
	if err != nil {
		return err
	}

	if err := storage.WriteJSON(f.layout.IssuePath(number), issue.Raw); err != nil {
		return err
	}
	f.metrics.RecordWrite(KindIssue)
	run.stats.Issues++
	log.Info("Saved issue")

	if f.catalog != nil {
		if err := f.catalog.SaveIssue(db.IssueFromGitHub(f.repo, issue.Data)); err != nil {
			return err
		}
	}

	logins := newLoginSet()
	logins.add(issue.Data.GetUser().GetLogin())
	for _, assignee := range issue.Data.Assignees {
		logins.add(assignee.GetLogin())
	}
	logins.add(issue.Data.GetClosedBy().GetLogin())

	f.saveAttachments(ctx, run, number, issue.Data.GetBody())
	if issue.Data.IsPullRequest() {
		if patch := issue.Data.GetPullRequestLinks().GetPatchURL(); patch != "" {
			f.bestEffort(ctx, KindPatch, patch, f.layout.PatchPath(number), false)
		}
	}

	comments := issue.Data.GetCommentsURL()
	if comments == "" {
		comments = api.IssueCommentsEndpoint(f.owner, f.name, number)
	}
	for comment, err := range f.source.Comments(ctx, comments, issueSince) {
		if err != nil {
			return fmt.Errorf("failed to fetch comments: %w", err)
		}
		path := f.layout.CommentPath(number, comment.Data.GetCreatedAt().Unix(), comment.Data.GetID())
		if err := storage.WriteJSON(path, comment.Raw); err != nil {
			return err
		}
		f.metrics.RecordWrite(KindComment)
		run.stats.Comments++
		log.Debug("Saved comment", "id", comment.Data.GetID())

		logins.add(comment.Data.GetUser().GetLogin())
		f.saveAttachments(ctx, run, number, comment.Data.GetBody())
	}

	events := issue.Data.GetEventsURL()
	if events == "" {
		events = api.IssueEventsEndpoint(f.owner, f.name, number)
	}
	for event, err := range f.source.Events(ctx, events, issueSince) {
		if err != nil {
			return fmt.Errorf("failed to fetch events: %w", err)
		}
		path := f.layout.EventPath(number, event.Data.GetCreatedAt().Unix(), event.Data.GetID())
		if err := storage.WriteJSON(path, event.Raw); err != nil {
			return err
		}
		f.metrics.RecordWrite(KindEvent)
		run.stats.Events++
		log.Debug("Saved event", "id", event.Data.GetID())

		logins.add(event.Data.GetActor().GetLogin())
	}

	for _, login := range logins.list {
		if run.seen[login] {
			continue
		}
		run.seen[login] = true
		if err := f.fetchPerson(ctx, run, login); err != nil {
			return err
		}
	}

	// Written last: a crash above leaves the stamp behind and the whole
	// issue is fetched again next time
	if err := f.writeStamp(number, issue.LastModified); err != nil {
		return err
	}
	f.metrics.RecordWrite(KindStamp)
	return nil
}

func (f *Fetcher) fetchPerson(ctx context.Context, run *run, login string) error {
	// Profiles missing from the archive are requested unconditionally
	since := run.since
	archived, err := storage.Exists(f.layout.PersonPath(login))
	if err != nil {
		return err
	}
	if !archived {
		since = api.Timestamp{}
	}

	person, err := f.source.Person(ctx, login, since)
	if api.IsNotModified(err) {
		f.logger.Debug("Person not modified", "login", login)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch person %s: %w", login, err)
	}

	if err := storage.WriteJSON(f.layout.PersonPath(login), person.Raw); err != nil {
		return err
	}
	f.metrics.RecordWrite(KindPerson)
	run.stats.People++
	f.logger.Info("Saved person", "login", login)

	if f.catalog != nil {
		if err := f.catalog.SavePerson(db.PersonFromGitHub(person.Data)); err != nil {
			return err
		}
	}

	if avatar := person.Data.GetAvatarURL(); avatar != "" {
		f.bestEffort(ctx, KindAvatar, avatar, f.layout.PicturePath(login), false)
	}
	return nil
}

// saveAttachments stores files uploaded into an issue or comment body.
// Names are derived from the URL, so files already on disk are skipped.
func (f *Fetcher) saveAttachments(ctx context.Context, run *run, number int, body string) {
	for _, link := range f.markup.AttachmentURLs(body, f.repo) {
		if f.bestEffort(ctx, KindAttachment, link, f.layout.AttachmentPath(number, link), true) {
			run.stats.Attachments++
		}
	}
}

// loginSet keeps distinct logins in the order they were first seen
type loginSet struct {
	list []string
	has  map[string]bool
}

func newLoginSet() *loginSet {
	return &loginSet{has: make(map[string]bool)}
}

func (s *loginSet) add(login string) {
	if login == "" || s.has[login] {
		return
	}
	s.has[login] = true
	s.list = append(s.list, login)
}
