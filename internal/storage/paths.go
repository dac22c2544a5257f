// Package storage maps archived entities onto the archive directory tree and
// writes them safely.
//
// Layout, rooted at the archive directory:
//
//	fetcher.json                          global stamp
//	issues/<no>/issue.json
//	issues/<no>/comment-<unixtime>-<id>.json
//	issues/<no>/event-<unixtime>-<id>.json
//	issues/<no>/attach-<hash>
//	issues/<no>/attached.patch
//	issues/<no>/fetcher.json              per-issue stamp
//	people/<login>.json
//	people/<login>.jpg
package storage

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// StampFile is the name of both global and per-issue stamp files
	StampFile = "fetcher.json"

	issuesDir     = "issues"
	peopleDir     = "people"
	issueFile     = "issue.json"
	patchFile     = "attached.patch"
	commentPrefix = "comment-"
	eventPrefix   = "event-"
	attachPrefix  = "attach-"
	jsonSuffix    = ".json"
	pictureSuffix = ".jpg"
)

// Layout computes archive paths for one repository. It performs no I/O.
type Layout struct {
	Repo string
	Root string
}

// NewLayout creates a path layout for repo archived under root
func NewLayout(repo, root string) *Layout {
	return &Layout{Repo: repo, Root: root}
}

// IssuesDir is the directory holding every issue directory
func (l *Layout) IssuesDir() string {
	return filepath.Join(l.Root, issuesDir)
}

// IssueDir is the directory holding all data of a single issue
func (l *Layout) IssueDir(number int) string {
	return filepath.Join(l.IssuesDir(), strconv.Itoa(number))
}

// IssuePath is the main JSON document of an issue
func (l *Layout) IssuePath(number int) string {
	return filepath.Join(l.IssueDir(number), issueFile)
}

// CommentPath names a comment file by creation time and id, so a plain
// directory listing sorts comments in creation order
func (l *Layout) CommentPath(number int, createdUnix, id int64) string {
	return filepath.Join(l.IssueDir(number), entryName(commentPrefix, createdUnix, id))
}

// EventPath names an event file the same way as comments
func (l *Layout) EventPath(number int, createdUnix, id int64) string {
	return filepath.Join(l.IssueDir(number), entryName(eventPrefix, createdUnix, id))
}

// PeopleDir is the directory holding user profiles
func (l *Layout) PeopleDir() string {
	return filepath.Join(l.Root, peopleDir)
}

// PersonPath is the JSON profile of a user
func (l *Layout) PersonPath(login string) string {
	return filepath.Join(l.PeopleDir(), login+jsonSuffix)
}

// PicturePath is the avatar image of a user
func (l *Layout) PicturePath(login string) string {
	return filepath.Join(l.PeopleDir(), login+pictureSuffix)
}

// AttachmentPath is a content-addressed name derived from the source URL
func (l *Layout) AttachmentPath(number int, url string) string {
	return filepath.Join(l.IssueDir(number), AttachmentName(url))
}

// PatchPath is the diff of a pull request
func (l *Layout) PatchPath(number int) string {
	return filepath.Join(l.IssueDir(number), patchFile)
}

// StampPath is the per-issue stamp file
func (l *Layout) StampPath(number int) string {
	return filepath.Join(l.IssueDir(number), StampFile)
}

// GlobalStampPath is the stamp of the whole archive
func (l *Layout) GlobalStampPath() string {
	return filepath.Join(l.Root, StampFile)
}

// AttachmentName hashes url into a stable, filesystem-safe file name
func AttachmentName(url string) string {
	sum := sha256.Sum256([]byte(url))
	return attachPrefix + base64.RawURLEncoding.EncodeToString(sum[:])
}

// Entry is a comment or event file name split into its parts
type Entry struct {
	Kind        string
	CreatedUnix int64
	ID          int64
}

// ParseEntryName recognizes comment and event file names; ok is false for
// any other file
func ParseEntryName(name string) (entry Entry, ok bool) {
	var kind string
	switch {
	case strings.HasPrefix(name, commentPrefix):
		kind = "comment"
	case strings.HasPrefix(name, eventPrefix):
		kind = "event"
	default:
		return Entry{}, false
	}
	if !strings.HasSuffix(name, jsonSuffix) {
		return Entry{}, false
	}

	parts := strings.Split(strings.TrimSuffix(name, jsonSuffix), "-")
	if len(parts) != 3 {
		return Entry{}, false
	}
	created, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Entry{}, false
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Entry{}, false
	}
	return Entry{Kind: kind, CreatedUnix: created, ID: id}, true
}

func entryName(prefix string, createdUnix, id int64) string {
	return fmt.Sprintf("%s%d-%d%s", prefix, createdUnix, id, jsonSuffix)
}
