package reader

import (
	"fmt"
	"iter"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sio/issyours/internal/models"
)

// countingBackend builds issues and people in memory and counts reads
type countingBackend struct {
	issueReads  map[int]int
	personReads map[string]int
}

func newCountingBackend() *countingBackend {
	return &countingBackend{issueReads: make(map[int]int), personReads: make(map[string]int)}
}

func (b *countingBackend) IssueUIDs(desc bool) ([]int, error) {
	if desc {
		return []int{3, 2, 1}, nil
	}
	return []int{1, 2, 3}, nil
}

func (b *countingBackend) PersonIDs() ([]string, error) {
	return []string{"alice"}, nil
}

func (b *countingBackend) ReadIssue(uid int, people People) (*models.Issue, error) {
	b.issueReads[uid]++
	if uid > 3 {
		return nil, fmt.Errorf("no issue #%d", uid)
	}
	return models.NewIssue(models.IssueParams{
		UID:       uid,
		Author:    people("alice"),
		Status:    models.StatusOpen,
		Title:     fmt.Sprintf("issue %d", uid),
		CreatedAt: time.Unix(int64(uid), 0),
	})
}

func (b *countingBackend) ReadPerson(nickname string) (*models.Person, error) {
	b.personReads[nickname]++
	return models.NewPerson(nickname, "", "", nil)
}

func (b *countingBackend) Comments(uid int, desc bool, people People) iter.Seq2[*models.IssueComment, error] {
	return func(yield func(*models.IssueComment, error) bool) {
		for _, at := range []int64{10, 30} {
			c, err := models.NewComment(models.CommentParams{ID: at, IssueUID: uid, Author: people("alice"), CreatedAt: time.Unix(at, 0)})
			if !yield(c, err) {
				return
			}
		}
	}
}

func (b *countingBackend) Events(uid int, desc bool, people People) iter.Seq2[*models.IssueEvent, error] {
	return func(yield func(*models.IssueEvent, error) bool) {
		e, err := models.NewEvent(models.EventParams{ID: 20, IssueUID: uid, Type: "closed", CreatedAt: time.Unix(20, 0)})
		yield(e, err)
	}
}

func TestCachedReadsIssueOnce(t *testing.T) {
	backend := newCountingBackend()
	r := NewCached(backend, 10)

	ref := r.IssueRef(1)
	assert.Equal(t, 0, backend.issueReads[1], "references are lazy")
	assert.Same(t, ref, r.IssueRef(1))

	first, err := r.Issue(1)
	require.NoError(t, err)
	second, err := r.Issue(1)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, backend.issueReads[1])
}

func TestCachedSharesPeople(t *testing.T) {
	backend := newCountingBackend()
	r := NewCached(backend, 10)

	for uid := 1; uid <= 3; uid++ {
		issue, err := r.Issue(uid)
		require.NoError(t, err)
		author, err := issue.Author()
		require.NoError(t, err)
		assert.Equal(t, "alice", author.Nickname())
	}
	person, err := r.Person("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", person.Nickname())

	assert.Equal(t, 1, backend.personReads["alice"])
	assert.Nil(t, r.PersonRef(""))
}

func TestCachedIssues(t *testing.T) {
	r := NewCached(newCountingBackend(), 2)

	var titles []string
	for issue, err := range r.Issues(true) {
		require.NoError(t, err)
		titles = append(titles, issue.Title())
	}
	assert.Equal(t, []string{"issue 3", "issue 2", "issue 1"}, titles)
}

func TestCachedErrorsAreNotCached(t *testing.T) {
	backend := newCountingBackend()
	r := NewCached(backend, 10)

	_, err := r.Issue(9)
	assert.Error(t, err)
	_, err = r.Issue(9)
	assert.Error(t, err)
	assert.Equal(t, 2, backend.issueReads[9])
}

func TestCachedFeed(t *testing.T) {
	r := NewCached(newCountingBackend(), 10)

	var kinds []string
	for item, err := range r.Feed(1, false) {
		require.NoError(t, err)
		switch item.(type) {
		case *models.IssueComment:
			kinds = append(kinds, "comment")
		case *models.IssueEvent:
			kinds = append(kinds, "event")
		}
	}
	assert.Equal(t, []string{"comment", "event", "comment"}, kinds)
}

func TestNewCachedDefaultSize(t *testing.T) {
	r := NewCached(newCountingBackend(), 0)
	for uid := 1; uid <= 3; uid++ {
		r.IssueRef(uid)
	}
	assert.Equal(t, 3, r.issues.Len())
}
