package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func day(d int) time.Time {
	return time.Date(2020, 1, d, 12, 0, 0, 0, time.UTC)
}

func TestIssueNumbersOrder(t *testing.T) {
	db := openTestDB(t)

	for _, issue := range []IssueRecord{
		{Repository: "o/r", Number: 3, Title: "third", State: "open", CreatedAt: day(3), UpdatedAt: day(3)},
		{Repository: "o/r", Number: 1, Title: "first", State: "open", CreatedAt: day(1), UpdatedAt: day(1)},
		{Repository: "o/r", Number: 2, Title: "second", State: "closed", CreatedAt: day(2), UpdatedAt: day(2)},
		{Repository: "x/y", Number: 9, Title: "elsewhere", State: "open", CreatedAt: day(1), UpdatedAt: day(1)},
	} {
		require.NoError(t, db.SaveIssue(issue))
	}

	asc, err := db.IssueNumbers("o/r", false)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, asc)

	desc, err := db.IssueNumbers("o/r", true)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 1}, desc)

	none, err := db.IssueNumbers("nobody/here", false)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveIssueUpsert(t *testing.T) {
	db := openTestDB(t)

	issue := IssueRecord{
		Repository: "o/r",
		Number:     7,
		Title:      "before",
		State:      "open",
		Author:     "alice",
		CreatedAt:  day(1),
		UpdatedAt:  day(1),
		Labels:     []LabelRecord{{Name: "bug", Color: "d73a4a"}, {Name: "ui", Color: "000000"}},
	}
	require.NoError(t, db.SaveIssue(issue))

	closed := day(5)
	issue.Title = "after"
	issue.State = "closed"
	issue.ClosedAt = &closed
	issue.UpdatedAt = day(5)
	issue.Labels = []LabelRecord{{Name: "bug", Color: "ff0000"}}
	require.NoError(t, db.SaveIssue(issue))

	got, err := db.GetIssue("o/r", 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, "closed", got.State)
	assert.Equal(t, "alice", got.Author)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, closed.Equal(*got.ClosedAt))
	assert.True(t, day(1).Equal(got.CreatedAt))
	assert.Equal(t, []LabelRecord{{Name: "bug", Color: "ff0000"}}, got.Labels)

	numbers, err := db.IssueNumbers("o/r", false)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, numbers)

	missing, err := db.GetIssue("o/r", 8)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPeople(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SavePerson(PersonRecord{Login: "zed"}))
	require.NoError(t, db.SavePerson(PersonRecord{Login: "alice", Name: "Alice"}))
	require.NoError(t, db.SavePerson(PersonRecord{Login: "alice", Name: "Alice A."}))

	logins, err := db.PersonLogins()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "zed"}, logins)
}

func TestLastSyncTime(t *testing.T) {
	db := openTestDB(t)

	got, err := db.GetLastSyncTime("o/r")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	stamp := time.Unix(1577494923, 0)
	require.NoError(t, db.UpdateLastSyncTime("o/r", stamp))
	require.NoError(t, db.UpdateLastSyncTime("o/r", stamp.Add(time.Hour)))

	got, err = db.GetLastSyncTime("o/r")
	require.NoError(t, err)
	assert.Equal(t, stamp.Add(time.Hour).Unix(), got.Unix())
}

func TestClearRepository(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveIssue(IssueRecord{Repository: "o/r", Number: 1, Title: "t", State: "open", CreatedAt: day(1), UpdatedAt: day(1)}))
	require.NoError(t, db.SaveIssue(IssueRecord{Repository: "x/y", Number: 1, Title: "t", State: "open", CreatedAt: day(1), UpdatedAt: day(1)}))
	require.NoError(t, db.UpdateLastSyncTime("o/r", day(2)))

	require.NoError(t, db.ClearRepository("o/r"))

	numbers, err := db.IssueNumbers("o/r", false)
	require.NoError(t, err)
	assert.Empty(t, numbers)
	last, err := db.GetLastSyncTime("o/r")
	require.NoError(t, err)
	assert.True(t, last.IsZero())

	numbers, err = db.IssueNumbers("x/y", false)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, numbers)
}

func TestConvert(t *testing.T) {
	closed := github.Timestamp{Time: day(4)}
	issue := &github.Issue{
		Number:           github.Int(12),
		Title:            github.String("Broken"),
		State:            github.String("closed"),
		User:             &github.User{Login: github.String("alice")},
		CreatedAt:        &github.Timestamp{Time: day(1)},
		UpdatedAt:        &github.Timestamp{Time: day(4)},
		ClosedAt:         &closed,
		Labels:           []*github.Label{{Name: github.String("bug"), Color: github.String("d73a4a")}},
		PullRequestLinks: &github.PullRequestLinks{URL: github.String("https://api.github.com/repos/o/r/pulls/12")},
	}

	record := IssueFromGitHub("o/r", issue)
	assert.Equal(t, 12, record.Number)
	assert.Equal(t, "alice", record.Author)
	assert.True(t, record.PullRequest)
	require.NotNil(t, record.ClosedAt)
	assert.Equal(t, day(4), *record.ClosedAt)
	assert.Equal(t, []LabelRecord{{Name: "bug", Color: "d73a4a"}}, record.Labels)

	open := IssueFromGitHub("o/r", &github.Issue{Number: github.Int(1)})
	assert.Nil(t, open.ClosedAt)
	assert.False(t, open.PullRequest)

	person := PersonFromGitHub(&github.User{Login: github.String("bob"), Name: github.String("Bob"), AvatarURL: github.String("https://a/b.png")})
	assert.Equal(t, PersonRecord{Login: "bob", Name: "Bob", AvatarURL: "https://a/b.png"}, person)
}
