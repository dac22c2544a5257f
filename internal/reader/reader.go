// Package reader turns an issue archive back into the domain model.
//
// A Backend knows how to parse one kind of storage. Cached wraps any Backend
// so that each issue and person is parsed at most once while it is in use.
package reader

import (
	"iter"

	"github.com/sio/issyours/internal/lazy"
	"github.com/sio/issyours/internal/models"
)

// DefaultCacheSize is the number of issues and people kept alive by a Reader
const DefaultCacheSize = 50

// Reader is everything a renderer needs from an archive
type Reader interface {
	// IssueUIDs lists issues by creation time
	IssueUIDs(desc bool) ([]int, error)
	PersonIDs() ([]string, error)
	Issue(uid int) (*models.Issue, error)
	Person(nickname string) (*models.Person, error)
	// Comments and Events walk the history of an issue by creation time
	Comments(uid int, desc bool) iter.Seq2[*models.IssueComment, error]
	Events(uid int, desc bool) iter.Seq2[*models.IssueEvent, error]
	// Feed merges comments and events into one chronological sequence
	Feed(uid int, desc bool) iter.Seq2[models.FeedItem, error]
}

// People resolves a nickname to a lazily loaded person, nil for an empty one
type People func(nickname string) *models.PersonRef

// Backend parses a specific storage format
type Backend interface {
	IssueUIDs(desc bool) ([]int, error)
	PersonIDs() ([]string, error)
	ReadIssue(uid int, people People) (*models.Issue, error)
	ReadPerson(nickname string) (*models.Person, error)
	Comments(uid int, desc bool, people People) iter.Seq2[*models.IssueComment, error]
	Events(uid int, desc bool, people People) iter.Seq2[*models.IssueEvent, error]
}

// Cached implements Reader on top of a Backend. It is not safe for
// concurrent use.
type Cached struct {
	backend Backend
	issues  *lazy.MultiCache[int, lazy.Object[models.Issue]]
	people  *lazy.MultiCache[string, lazy.Object[models.Person]]
}

var _ Reader = (*Cached)(nil)

// NewCached wraps backend with issue and person caches of the given size
func NewCached(backend Backend, cacheSize int) *Cached {
	if cacheSize < 1 {
		cacheSize = DefaultCacheSize
	}
	return &Cached{
		backend: backend,
		issues:  lazy.NewLazyAwareCache[int, models.Issue](cacheSize),
		people:  lazy.NewLazyAwareCache[string, models.Person](cacheSize),
	}
}

func (c *Cached) IssueUIDs(desc bool) ([]int, error) {
	return c.backend.IssueUIDs(desc)
}

func (c *Cached) PersonIDs() ([]string, error) {
	return c.backend.PersonIDs()
}

// IssueRef returns the cached issue placeholder, reading nothing yet
func (c *Cached) IssueRef(uid int) *lazy.Object[models.Issue] {
	if ref, ok := c.issues.Get(uid); ok {
		return ref
	}
	ref := lazy.New(func() (*models.Issue, error) {
		return c.backend.ReadIssue(uid, c.PersonRef)
	})
	c.issues.Set(uid, ref)
	return ref
}

func (c *Cached) Issue(uid int) (*models.Issue, error) {
	return c.IssueRef(uid).Get()
}

// Issues yields every issue by creation time
func (c *Cached) Issues(desc bool) iter.Seq2[*models.Issue, error] {
	return func(yield func(*models.Issue, error) bool) {
		uids, err := c.IssueUIDs(desc)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, uid := range uids {
			issue, err := c.Issue(uid)
			if !yield(issue, err) || err != nil {
				return
			}
		}
	}
}

// PersonRef returns the cached person placeholder, reading nothing yet
func (c *Cached) PersonRef(nickname string) *models.PersonRef {
	if nickname == "" {
		return nil
	}
	if ref, ok := c.people.Get(nickname); ok {
		return ref
	}
	ref := lazy.New(func() (*models.Person, error) {
		return c.backend.ReadPerson(nickname)
	})
	c.people.Set(nickname, ref)
	return ref
}

func (c *Cached) Person(nickname string) (*models.Person, error) {
	ref := c.PersonRef(nickname)
	if ref == nil {
		return nil, lazy.ErrNilValue
	}
	return ref.Get()
}

func (c *Cached) Comments(uid int, desc bool) iter.Seq2[*models.IssueComment, error] {
	return c.backend.Comments(uid, desc, c.PersonRef)
}

func (c *Cached) Events(uid int, desc bool) iter.Seq2[*models.IssueEvent, error] {
	return c.backend.Events(uid, desc, c.PersonRef)
}

func (c *Cached) Feed(uid int, desc bool) iter.Seq2[models.FeedItem, error] {
	return Interleave(c.Comments(uid, desc), c.Events(uid, desc), desc)
}
