package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayoutPaths(t *testing.T) {
	l := NewLayout("o/r", "/archive")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"issues dir", l.IssuesDir(), "/archive/issues"},
		{"issue dir", l.IssueDir(12), "/archive/issues/12"},
		{"issue", l.IssuePath(12), "/archive/issues/12/issue.json"},
		{"comment", l.CommentPath(12, 1577494923, 501), "/archive/issues/12/comment-1577494923-501.json"},
		{"event", l.EventPath(12, 1577494923, 77), "/archive/issues/12/event-1577494923-77.json"},
		{"person", l.PersonPath("alice"), "/archive/people/alice.json"},
		{"picture", l.PicturePath("alice"), "/archive/people/alice.jpg"},
		{"patch", l.PatchPath(12), "/archive/issues/12/attached.patch"},
		{"issue stamp", l.StampPath(12), "/archive/issues/12/fetcher.json"},
		{"global stamp", l.GlobalStampPath(), "/archive/fetcher.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, filepath.FromSlash(tt.want), tt.got)
		})
	}
}

func TestLayoutDeterministic(t *testing.T) {
	a := NewLayout("o/r", "/archive")
	b := NewLayout("o/r", "/archive")

	assert.Equal(t, a.CommentPath(1, 10, 20), b.CommentPath(1, 10, 20))
	assert.Equal(t, a.AttachmentPath(1, "https://example.com/x.png"), b.AttachmentPath(1, "https://example.com/x.png"))
}

func TestAttachmentName(t *testing.T) {
	one := AttachmentName("https://user-images.githubusercontent.com/1/a.png")
	two := AttachmentName("https://user-images.githubusercontent.com/1/b.png")

	assert.Equal(t, one, AttachmentName("https://user-images.githubusercontent.com/1/a.png"))
	assert.NotEqual(t, one, two)
	assert.True(t, strings.HasPrefix(one, "attach-"))
	assert.NotContains(t, one, "=")
	assert.NotContains(t, one, "/")
	assert.NotContains(t, one, "+")
	assert.Len(t, strings.TrimPrefix(one, "attach-"), 43)
}

func TestParseEntryName(t *testing.T) {
	tests := []struct {
		name string
		want Entry
		ok   bool
	}{
		{"comment-1577494923-501.json", Entry{Kind: "comment", CreatedUnix: 1577494923, ID: 501}, true},
		{"event-10-7.json", Entry{Kind: "event", CreatedUnix: 10, ID: 7}, true},
		{"issue.json", Entry{}, false},
		{"fetcher.json", Entry{}, false},
		{"comment-x-1.json", Entry{}, false},
		{"comment-1-2.json.tmp", Entry{}, false},
		{".comment-1-2.json.12345", Entry{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEntryName(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
