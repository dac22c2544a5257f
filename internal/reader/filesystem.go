package reader

import (
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/sio/issyours/internal/api"
	"github.com/sio/issyours/internal/logger"
	"github.com/sio/issyours/internal/markup"
	"github.com/sio/issyours/internal/models"
	"github.com/sio/issyours/internal/storage"
)

// Index is an optional sorted listing of archive contents
type Index interface {
	IssueNumbers(repository string, desc bool) ([]int, error)
	PersonLogins() ([]string, error)
}

// Filesystem reads the JSON files written by the fetcher
type Filesystem struct {
	repo     string
	layout   *storage.Layout
	renderer *markup.Renderer
	index    Index
	logger   logger.Logger
}

var _ Backend = (*Filesystem)(nil)

// Option configures a Filesystem backend
type Option func(*Filesystem)

// WithIndex lists issues and people from a catalog instead of scanning the
// archive directory
func WithIndex(index Index) Option {
	return func(f *Filesystem) {
		f.index = index
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(f *Filesystem) {
		f.logger = l
	}
}

// NewFilesystem creates a backend for repo archived under root
func NewFilesystem(repo, root string, opts ...Option) *Filesystem {
	f := &Filesystem{
		repo:     repo,
		layout:   storage.NewLayout(repo, root),
		renderer: markup.NewRenderer(),
		logger:   logger.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Open is a shortcut for a cached filesystem Reader
func Open(repo, root string, cacheSize int, opts ...Option) *Cached {
	return NewCached(NewFilesystem(repo, root, opts...), cacheSize)
}

// issueHeader is the part of issue.json needed for sorting
type issueHeader struct {
	Number    int              `json:"number"`
	CreatedAt github.Timestamp `json:"created_at"`
}

func (f *Filesystem) IssueUIDs(desc bool) ([]int, error) {
	if f.index != nil {
		return f.index.IssueNumbers(f.repo, desc)
	}

	entries, err := os.ReadDir(f.layout.IssuesDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	var headers []issueHeader
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		number, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		var header issueHeader
		err = storage.ReadJSON(f.layout.IssuePath(number), &header)
		if os.IsNotExist(err) {
			// Directory left by an interrupted fetch
			continue
		}
		if err != nil {
			return nil, err
		}
		header.Number = number
		headers = append(headers, header)
	}

	sort.Slice(headers, func(i, j int) bool {
		a, b := headers[i], headers[j]
		if !a.CreatedAt.Time.Equal(b.CreatedAt.Time) {
			return a.CreatedAt.Time.Before(b.CreatedAt.Time) != desc
		}
		return (a.Number < b.Number) != desc
	})

	uids := make([]int, len(headers))
	for i, h := range headers {
		uids[i] = h.Number
	}
	return uids, nil
}

func (f *Filesystem) PersonIDs() ([]string, error) {
	if f.index != nil {
		return f.index.PersonLogins()
	}

	entries, err := os.ReadDir(f.layout.PeopleDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}

	var logins []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		logins = append(logins, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(logins)
	return logins, nil
}

func (f *Filesystem) ReadIssue(uid int, people People) (*models.Issue, error) {
	path := f.layout.IssuePath(uid)
	var data github.Issue
	if err := storage.ReadJSON(path, &data); err != nil {
		return nil, fmt.Errorf("failed to read issue #%d: %w", uid, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	body, err := f.renderer.Render(data.GetBody())
	if err != nil {
		return nil, fmt.Errorf("issue #%d: %w", uid, err)
	}

	labels := make([]models.Label, 0, len(data.Labels))
	for _, l := range data.Labels {
		label, err := models.NewLabel(l.GetName(), l.GetColor())
		if err != nil {
			return nil, fmt.Errorf("issue #%d: %w", uid, err)
		}
		labels = append(labels, label)
	}

	var assignees []*models.PersonRef
	for _, a := range data.Assignees {
		if ref := people(a.GetLogin()); ref != nil {
			assignees = append(assignees, ref)
		}
	}

	markdown := data.GetBody()
	number := data.GetNumber()
	if number == 0 {
		number = uid
	}
	issue, err := models.NewIssue(models.IssueParams{
		UID:         number,
		Author:      people(data.GetUser().GetLogin()),
		Status:      data.GetState(),
		Title:       data.GetTitle(),
		Body:        body,
		URL:         data.GetHTMLURL(),
		Labels:      labels,
		Assignees:   assignees,
		ClosedBy:    people(data.GetClosedBy().GetLogin()),
		PullRequest: data.IsPullRequest(),
		CreatedAt:   data.GetCreatedAt().Time,
		ModifiedAt:  data.GetUpdatedAt().Time,
		FetchedAt:   info.ModTime(),
		ClosedAt:    data.GetClosedAt().Time,
		Attachments: func() ([]models.Attachment, error) {
			attachments := f.attachments(uid, markdown)
			if data.IsPullRequest() {
				patch := f.layout.PatchPath(uid)
				if ok, _ := storage.Exists(patch); ok {
					attachments = append(attachments, models.NewAttachment(
						data.GetPullRequestLinks().GetPatchURL(), filepath.Base(patch), opener(patch)))
				}
			}
			return attachments, nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("issue #%d: %w", uid, err)
	}
	return issue, nil
}

func (f *Filesystem) ReadPerson(nickname string) (*models.Person, error) {
	var data github.User
	if err := storage.ReadJSON(f.layout.PersonPath(nickname), &data); err != nil {
		return nil, fmt.Errorf("failed to read person %s: %w", nickname, err)
	}

	var picture func() (io.ReadCloser, error)
	if path := f.layout.PicturePath(nickname); fileExists(path) {
		picture = opener(path)
	}

	login := data.GetLogin()
	if login == "" {
		login = nickname
	}
	return models.NewPerson(login, data.GetName(), data.GetHTMLURL(), picture)
}

func (f *Filesystem) Comments(uid int, desc bool, people People) iter.Seq2[*models.IssueComment, error] {
	return func(yield func(*models.IssueComment, error) bool) {
		for path, err := range f.entries(uid, "comment", desc) {
			if err != nil {
				yield(nil, err)
				return
			}
			comment, err := f.readComment(uid, path, people)
			if !yield(comment, err) || err != nil {
				return
			}
		}
	}
}

func (f *Filesystem) Events(uid int, desc bool, people People) iter.Seq2[*models.IssueEvent, error] {
	return func(yield func(*models.IssueEvent, error) bool) {
		for path, err := range f.entries(uid, "event", desc) {
			if err != nil {
				yield(nil, err)
				return
			}
			event, err := f.readEvent(uid, path, people)
			if !yield(event, err) || err != nil {
				return
			}
		}
	}
}

func (f *Filesystem) readComment(uid int, path string, people People) (*models.IssueComment, error) {
	var data github.IssueComment
	if err := storage.ReadJSON(path, &data); err != nil {
		return nil, err
	}
	body, err := f.renderer.Render(data.GetBody())
	if err != nil {
		return nil, fmt.Errorf("comment %d: %w", data.GetID(), err)
	}
	markdown := data.GetBody()

	return models.NewComment(models.CommentParams{
		ID:         data.GetID(),
		IssueUID:   uid,
		Author:     people(data.GetUser().GetLogin()),
		Role:       data.GetAuthorAssociation(),
		Body:       body,
		URL:        data.GetHTMLURL(),
		CreatedAt:  data.GetCreatedAt().Time,
		ModifiedAt: data.GetUpdatedAt().Time,
		Attachments: func() ([]models.Attachment, error) {
			return f.attachments(uid, markdown), nil
		},
	})
}

func (f *Filesystem) readEvent(uid int, path string, people People) (*models.IssueEvent, error) {
	var data github.IssueEvent
	if err := storage.ReadJSON(path, &data); err != nil {
		return nil, err
	}

	return models.NewEvent(models.EventParams{
		ID:        data.GetID(),
		IssueUID:  uid,
		Actor:     people(data.GetActor().GetLogin()),
		Type:      data.GetEvent(),
		Payload:   eventPayload(&data),
		CreatedAt: data.GetCreatedAt().Time,
	})
}

// eventPayload flattens the event details that renderers display
func eventPayload(e *github.IssueEvent) map[string]string {
	payload := make(map[string]string)
	set := func(key, value string) {
		if value != "" {
			payload[key] = value
		}
	}
	set("label", e.GetLabel().GetName())
	set("label_color", e.GetLabel().GetColor())
	set("assignee", e.GetAssignee().GetLogin())
	set("assigner", e.GetAssigner().GetLogin())
	set("milestone", e.GetMilestone().GetTitle())
	set("rename_from", e.GetRename().GetFrom())
	set("rename_to", e.GetRename().GetTo())
	set("commit_id", e.GetCommitID())
	set("lock_reason", e.GetLockReason())
	return payload
}

// entries yields comment or event files of an issue sorted by creation time
// and id
func (f *Filesystem) entries(uid int, kind string, desc bool) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		dir := f.layout.IssueDir(uid)
		files, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			return
		}
		if err != nil {
			yield("", fmt.Errorf("failed to list %s: %w", dir, err))
			return
		}

		var found []storage.Entry
		for _, file := range files {
			entry, ok := storage.ParseEntryName(file.Name())
			if ok && entry.Kind == kind {
				found = append(found, entry)
			}
		}
		sort.Slice(found, func(i, j int) bool {
			a, b := found[i], found[j]
			if a.CreatedUnix != b.CreatedUnix {
				return (a.CreatedUnix < b.CreatedUnix) != desc
			}
			return (a.ID < b.ID) != desc
		})

		for _, entry := range found {
			var path string
			if kind == "comment" {
				path = f.layout.CommentPath(uid, entry.CreatedUnix, entry.ID)
			} else {
				path = f.layout.EventPath(uid, entry.CreatedUnix, entry.ID)
			}
			if !yield(path, nil) {
				return
			}
		}
	}
}

// attachments lists stored files referenced by markdown; links that were
// never downloaded are left out
func (f *Filesystem) attachments(uid int, markdown string) []models.Attachment {
	var out []models.Attachment
	for _, link := range f.renderer.AttachmentURLs(markdown, f.repo) {
		path := f.layout.AttachmentPath(uid, link)
		if !fileExists(path) {
			f.logger.Debug("Attachment not in archive", "issue", uid, "url", link)
			continue
		}
		out = append(out, models.NewAttachment(link, filepath.Base(path), opener(path)))
	}
	return out
}

func opener(path string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		return os.Open(path)
	}
}

func fileExists(path string) bool {
	ok, err := storage.Exists(path)
	return err == nil && ok
}

// LastModified returns the precise modification time stored with an issue
func (f *Filesystem) LastModified(uid int) (api.Timestamp, error) {
	var raw map[string]interface{}
	if err := storage.ReadJSON(f.layout.IssuePath(uid), &raw); err != nil {
		return api.Timestamp{}, err
	}
	if header, ok := raw[api.LastModifiedKey].(string); ok {
		return api.ParseHeader(header)
	}
	if updated, ok := raw["updated_at"].(string); ok {
		return api.ParseISO(updated)
	}
	return api.Timestamp{}, fmt.Errorf("issue #%d has no modification time", uid)
}
