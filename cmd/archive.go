package main

import (
	"errors"

	"github.com/sio/issyours/internal/db"
	"github.com/sio/issyours/internal/fetcher"
	"github.com/sio/issyours/internal/reader"
)

// archive is an opened archive directory
type archive struct {
	repo    string
	fs      *reader.Filesystem
	reader  *reader.Cached
	catalog *db.DB
}

// openArchive opens the archive under root. The repository is read from the
// archive stamp unless given explicitly.
func (a *app) openArchive(root, repo string) (*archive, error) {
	repo, err := resolveRepository(root, repo)
	if err != nil {
		return nil, err
	}

	opts := []reader.Option{reader.WithLogger(a.log)}
	arc := &archive{repo: repo}
	if a.config.Archive.Catalog != "" {
		catalog, err := db.Open(a.config.Archive.Catalog)
		if err != nil {
			return nil, err
		}
		arc.catalog = catalog
		opts = append(opts, reader.WithIndex(catalog))
	}

	arc.fs = reader.NewFilesystem(repo, root, opts...)
	arc.reader = reader.NewCached(arc.fs, a.config.Reader.CacheSize)
	return arc, nil
}

// resolveRepository checks an explicitly given repository against the
// archive stamp. Without a stamp the explicit value is trusted.
func resolveRepository(root, repo string) (string, error) {
	stamped, err := fetcher.ArchiveRepository(root)
	switch {
	case err == nil && repo != "" && repo != stamped:
		return "", &fetcher.StampValidationError{Field: "repo", Expected: repo, Received: stamped}
	case err == nil:
		return stamped, nil
	case repo != "" && errors.Is(err, fetcher.ErrNoArchive):
		_, _, err := fetcher.ParseRepository(repo)
		return repo, err
	default:
		return "", err
	}
}

func (arc *archive) Close() error {
	if arc.catalog != nil {
		return arc.catalog.Close()
	}
	return nil
}
