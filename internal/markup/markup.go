// Package markup renders issue bodies to sanitized HTML and finds the
// files they reference.
package markup

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// userContentHosts serve files uploaded through the issue tracker UI
var userContentHosts = map[string]bool{
	"user-images.githubusercontent.com":         true,
	"private-user-images.githubusercontent.com": true,
}

// Renderer converts GitHub-flavored Markdown to safe HTML
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// NewRenderer creates a GFM renderer with the UGC sanitizing policy
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	return &Renderer{md: md, policy: bluemonday.UGCPolicy()}
}

// Render converts markdown to sanitized HTML
func (r *Renderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}

// Links returns every link and image destination in markdown, including
// src and href attributes of embedded HTML, in document order without
// duplicates
func (r *Renderer) Links(markdown string) []string {
	source := []byte(markdown)
	doc := r.md.Parser().Parse(text.NewReader(source))

	var links []string
	seen := make(map[string]bool)
	add := func(link string) {
		link = strings.TrimSpace(link)
		if link == "" || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	}
	addHTML := func(raw []byte) {
		for _, link := range htmlLinks(raw) {
			add(link)
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			add(string(node.Destination))
		case *ast.Image:
			add(string(node.Destination))
		case *ast.AutoLink:
			add(string(node.URL(source)))
		case *ast.RawHTML:
			var raw []byte
			for i := 0; i < node.Segments.Len(); i++ {
				segment := node.Segments.At(i)
				raw = append(raw, segment.Value(source)...)
			}
			addHTML(raw)
		case *ast.HTMLBlock:
			var raw []byte
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				raw = append(raw, segment.Value(source)...)
			}
			if node.HasClosure() {
				raw = append(raw, node.ClosureLine.Value(source)...)
			}
			addHTML(raw)
		}
		return ast.WalkContinue, nil
	})
	return links
}

// htmlLinks returns src and href attribute values of the tags in a raw
// HTML fragment
func htmlLinks(raw []byte) []string {
	var links []string
	tokenizer := html.NewTokenizer(bytes.NewReader(raw))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return links
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := tokenizer.TagName()
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = tokenizer.TagAttr()
				switch string(key) {
				case "src", "href":
					links = append(links, string(val))
				}
			}
		}
	}
}

// AttachmentURLs filters Links down to files uploaded to the tracker for
// repo ("owner/name")
func (r *Renderer) AttachmentURLs(markdown, repo string) []string {
	var out []string
	for _, link := range r.Links(markdown) {
		if IsAttachment(link, repo) {
			out = append(out, link)
		}
	}
	return out
}

// IsAttachment reports whether link points to a file uploaded to the tracker
func IsAttachment(link, repo string) bool {
	u, err := url.Parse(link)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return false
	}
	host := strings.ToLower(u.Host)
	if userContentHosts[host] {
		return true
	}
	if host != "github.com" {
		return false
	}
	path := strings.ToLower(u.Path)
	return strings.HasPrefix(path, "/user-attachments/") ||
		strings.HasPrefix(path, "/"+strings.ToLower(repo)+"/files/")
}
