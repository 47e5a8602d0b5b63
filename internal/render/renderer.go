package render

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrRender wraps failures while producing a page.
var ErrRender = errors.New("render: page failed")

// Site carries the values shared by every page.
type Site struct {
	Title       string
	Language    string
	BaseURL     string
	RoutePrefix string
	Stylesheets []string
}

// Renderer turns a post and its compiled document into a full HTML page.
// It is safe for concurrent use.
type Renderer struct {
	site   Site
	layout *template.Template
	image  imageComponent
}

// NewRenderer parses the embedded layout.
func NewRenderer(site Site) (*Renderer, error) {
	layout, err := template.ParseFS(templateFS, "templates/post.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse layout: %w", err)
	}
	if strings.TrimSpace(site.Language) == "" {
		site.Language = "en"
	}
	return &Renderer{
		site:   site,
		layout: layout,
		image:  MarkdownImage,
	}, nil
}

type pageData struct {
	Site      Site
	Found     bool
	Post      *posts.Post
	Body      template.HTML
	Canonical string
}

// Render writes the page for post to w. A nil post or document renders the
// "Post not found" placeholder.
func (r *Renderer) Render(w io.Writer, post *posts.Post, doc *interfaces.CompiledDocument) error {
	data := pageData{Site: r.site}
	if post != nil && doc != nil {
		body, err := r.RenderBody(doc)
		if err != nil {
			return err
		}
		data.Found = true
		data.Post = post
		data.Body = body
		data.Canonical = r.canonical(post.Slug)
	}
	if err := r.layout.ExecuteTemplate(w, "post.html", data); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

// RenderString is Render into a string.
func (r *Renderer) RenderString(post *posts.Post, doc *interfaces.CompiledDocument) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, post, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderBody parses the compiled HTML fragment, applies the element
// overrides listed on doc and serialises the result.
func (r *Renderer) RenderBody(doc *interfaces.CompiledDocument) (template.HTML, error) {
	if doc == nil || strings.TrimSpace(doc.HTML) == "" {
		return "", nil
	}

	bodyContext := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(doc.HTML), bodyContext)
	if err != nil {
		return "", fmt.Errorf("%w: parse body: %w", ErrRender, err)
	}

	root := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	for _, node := range nodes {
		root.AppendChild(node)
	}

	enabled := make(map[interfaces.ElementKind]bool, len(doc.Overrides))
	for _, kind := range doc.Overrides {
		if kind.Valid() {
			enabled[kind] = true
		}
	}
	r.applyOverrides(root, enabled)

	var buf bytes.Buffer
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return "", fmt.Errorf("%w: serialise body: %w", ErrRender, err)
		}
	}
	return template.HTML(buf.String()), nil
}

func (r *Renderer) canonical(slug string) string {
	if strings.TrimSpace(r.site.BaseURL) == "" {
		return ""
	}
	base, err := url.Parse(r.site.BaseURL)
	if err != nil {
		return ""
	}
	base.Path = path.Join("/", base.Path, r.site.RoutePrefix, slug) + "/"
	return base.String()
}
