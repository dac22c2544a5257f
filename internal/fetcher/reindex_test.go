package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sio/issyours/internal/api"
	"github.com/sio/issyours/internal/db"
	"github.com/sio/issyours/internal/storage"
)

func openCatalog(t *testing.T) *db.DB {
	t.Helper()
	catalog, err := db.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { catalog.Close() })
	return catalog
}

func TestReindex(t *testing.T) {
	_, server := newFakeGitHub(t)
	root := t.TempDir()
	f := newTestFetcher(t, server, root, newDownloads(t), Options{})
	_, err := f.Fetch(context.Background())
	require.NoError(t, err)

	// Leftovers that are not issues
	layout := storage.NewLayout("o/r", root)
	require.NoError(t, os.MkdirAll(filepath.Join(layout.IssuesDir(), "tmp"), 0755))
	require.NoError(t, os.MkdirAll(layout.IssueDir(9), 0755))

	catalog := openCatalog(t)
	require.NoError(t, catalog.SaveIssue(db.IssueRecord{Repository: "o/r", Number: 42, Title: "stale", State: "open"}))

	stats, err := Reindex("o/r", root, catalog, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Issues)
	assert.Equal(t, 3, stats.People)
	assert.Equal(t, issueStampUnix, stats.Stamp.Unix())

	numbers, err := catalog.IssueNumbers("o/r", false)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, numbers)

	issue, err := catalog.GetIssue("o/r", 1)
	require.NoError(t, err)
	require.NotNil(t, issue)
	assert.Equal(t, "Crash <on> start", issue.Title)
	assert.Equal(t, "alice", issue.Author)
	assert.True(t, issue.PullRequest)

	logins, err := catalog.PersonLogins()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, logins)

	synced, err := catalog.GetLastSyncTime("o/r")
	require.NoError(t, err)
	assert.Equal(t, issueStampUnix, synced.Unix())
}

func TestReindexRequiresArchive(t *testing.T) {
	catalog := openCatalog(t)

	_, err := Reindex("o/r", t.TempDir(), catalog, nil)
	assert.ErrorContains(t, err, "no archive found")

	_, err = Reindex("not-a-repo", t.TempDir(), catalog, nil)
	assert.Error(t, err)
}

func TestReindexRejectsForeignArchive(t *testing.T) {
	root := t.TempDir()
	f, err := New(Options{Repo: "o/other", Root: root, Source: api.NewGitHub(nil)})
	require.NoError(t, err)
	require.NoError(t, f.writeStamp(0, api.FromUnix(1577494923)))

	_, err = Reindex("o/r", root, openCatalog(t), nil)
	var stampErr *StampValidationError
	require.ErrorAs(t, err, &stampErr)
	assert.Equal(t, "repo", stampErr.Field)
}
