package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `See [docs](https://example.com/docs) and ![shot](https://user-images.githubusercontent.com/1/a.png).
Bare https://github.com/o/r/files/123/log.txt link, [docs again](https://example.com/docs).

<img src="https://user-images.githubusercontent.com/1/b.png" width="100">

Inline <a href="https://github.com/user-attachments/files/1/x.zip">archive</a> here.
`

func TestRender(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name     string
		markdown string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			markdown: "**bold** and _italic_",
			contains: []string{"<strong>bold</strong>", "<em>italic</em>"},
		},
		{
			name:     "table",
			markdown: "| a |\n|---|\n| b |\n",
			contains: []string{"<table>", "<td>b</td>"},
		},
		{
			name:     "strikethrough",
			markdown: "~~gone~~",
			contains: []string{"<del>gone</del>"},
		},
		{
			name:     "script is stripped",
			markdown: "hello <script>alert(1)</script>",
			contains: []string{"hello"},
			excludes: []string{"<script", "alert(1)"},
		},
		{
			name:     "event handlers are stripped",
			markdown: `<img src="https://example.com/a.png" onerror="alert(1)">`,
			contains: []string{`src="https://example.com/a.png"`},
			excludes: []string{"onerror"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(tt.markdown)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestLinks(t *testing.T) {
	r := NewRenderer()

	assert.Equal(t, []string{
		"https://example.com/docs",
		"https://user-images.githubusercontent.com/1/a.png",
		"https://github.com/o/r/files/123/log.txt",
		"https://user-images.githubusercontent.com/1/b.png",
		"https://github.com/user-attachments/files/1/x.zip",
	}, r.Links(sampleBody))

	assert.Empty(t, r.Links("plain text without links"))
}

func TestLinksFromRawHTML(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name     string
		markdown string
		want     []string
	}{
		{
			name:     "unquoted src",
			markdown: "<img width=200 src=https://user-images.githubusercontent.com/1/a.png>",
			want:     []string{"https://user-images.githubusercontent.com/1/a.png"},
		},
		{
			name:     "data attribute is not a link",
			markdown: `<img data-src="https://user-images.githubusercontent.com/1/c.png">`,
			want:     nil,
		},
		{
			name:     "uppercase attribute and entity",
			markdown: `<IMG SRC='https://github.com/o/r/files/1/a.txt?x=1&amp;y=2'/>`,
			want:     []string{"https://github.com/o/r/files/1/a.txt?x=1&y=2"},
		},
		{
			name:     "inline tags",
			markdown: `Text <a title="x" href="https://github.com/user-attachments/files/1/x.zip">zip</a> end`,
			want:     []string{"https://github.com/user-attachments/files/1/x.zip"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.AttachmentURLs(tt.markdown, "o/r"))
		})
	}
}

func TestAttachmentURLs(t *testing.T) {
	r := NewRenderer()

	assert.Equal(t, []string{
		"https://user-images.githubusercontent.com/1/a.png",
		"https://github.com/o/r/files/123/log.txt",
		"https://user-images.githubusercontent.com/1/b.png",
		"https://github.com/user-attachments/files/1/x.zip",
	}, r.AttachmentURLs(sampleBody, "o/r"))

	assert.Equal(t, []string{
		"https://user-images.githubusercontent.com/1/a.png",
		"https://user-images.githubusercontent.com/1/b.png",
		"https://github.com/user-attachments/files/1/x.zip",
	}, r.AttachmentURLs(sampleBody, "other/repo"))
}

func TestIsAttachment(t *testing.T) {
	tests := []struct {
		link string
		want bool
	}{
		{"https://user-images.githubusercontent.com/1/a.png", true},
		{"https://private-user-images.githubusercontent.com/1/a.png", true},
		{"https://github.com/O/R/files/1/log.txt", true},
		{"https://github.com/user-attachments/assets/abc", true},
		{"https://github.com/o/r/issues/1", false},
		{"https://example.com/a.png", false},
		{"ftp://user-images.githubusercontent.com/a.png", false},
		{"/relative/path.png", false},
		{"://broken", false},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAttachment(tt.link, "o/r"))
		})
	}
}
