package fetcher

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/sio/issyours/internal/db"
	"github.com/sio/issyours/internal/logger"
	"github.com/sio/issyours/internal/storage"
)

// IndexCatalog is a Catalog that can drop everything it knows about a repository
type IndexCatalog interface {
	Catalog
	ClearRepository(repository string) error
}

// Reindex rebuilds the catalog rows of repo from the archive under root.
// Nothing is requested from the network.
func Reindex(repo, root string, catalog IndexCatalog, log logger.Logger) (*Stats, error) {
	if _, _, err := ParseRepository(repo); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	f := &Fetcher{
		repo:    repo,
		layout:  storage.NewLayout(repo, root),
		metrics: nopRecorder{},
		logger:  log.WithFields("repo", repo),
	}

	stamp, ok, err := f.readStamp(0)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w in %s", ErrNoArchive, root)
	}

	if err := catalog.ClearRepository(repo); err != nil {
		return nil, err
	}
	stats := &Stats{Stamp: stamp}

	numbers, err := f.archivedIssues()
	if err != nil {
		return stats, err
	}
	for _, number := range numbers {
		var issue github.Issue
		if err := storage.ReadJSON(f.layout.IssuePath(number), &issue); err != nil {
			if os.IsNotExist(err) {
				f.logger.Debug("Skipping directory without issue", "issue", number)
				continue
			}
			return stats, err
		}
		if err := catalog.SaveIssue(db.IssueFromGitHub(repo, &issue)); err != nil {
			return stats, err
		}
		stats.Issues++
	}

	logins, err := f.archivedPeople()
	if err != nil {
		return stats, err
	}
	for _, login := range logins {
		var person github.User
		if err := storage.ReadJSON(f.layout.PersonPath(login), &person); err != nil {
			return stats, err
		}
		if err := catalog.SavePerson(db.PersonFromGitHub(&person)); err != nil {
			return stats, err
		}
		stats.People++
	}

	if err := catalog.UpdateLastSyncTime(repo, stamp.Time()); err != nil {
		return stats, err
	}

	f.logger.Info("Reindex complete", "issues", stats.Issues, "people", stats.People)
	return stats, nil
}

func (f *Fetcher) archivedIssues() ([]int, error) {
	entries, err := os.ReadDir(f.layout.IssuesDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	var numbers []int
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		number, err := strconv.Atoi(entry.Name())
		if err != nil || number <= 0 {
			continue
		}
		numbers = append(numbers, number)
	}
	return numbers, nil
}

func (f *Fetcher) archivedPeople() ([]string, error) {
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
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		logins = append(logins, strings.TrimSuffix(name, ".json"))
	}
	return logins, nil
}
