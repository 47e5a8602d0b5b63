package generator

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	// DefaultAssetDir is where local images are resolved from.
	DefaultAssetDir = "public"

	pageSlugRequiredCode = "PAGE_SLUG_REQUIRED"
)

// PageProps is the result of building one page. Both fields are nil when
// the slug did not resolve to a post with content.
type PageProps struct {
	Post     *posts.Post
	Document *interfaces.CompiledDocument
}

// Found reports whether the page resolved.
func (p PageProps) Found() bool {
	return p.Post != nil && p.Document != nil
}

// Compiler compiles raw post content.
type Compiler interface {
	Compile(ctx context.Context, source []byte, stages ...markdown.Stage) (*interfaces.CompiledDocument, error)
}

// PageConfig scopes the compile stages of a PageBuilder.
type PageConfig struct {
	AssetDir       string
	HighlightStyle string
	// Assets replaces the asset directory filesystem.
	Assets fs.FS
}

// PageBuilder resolves a slug and compiles its content.
type PageBuilder struct {
	lookup   posts.Lookup
	compiler Compiler
	stages   []markdown.Stage
}

// NewPageBuilder wires a PageBuilder. Content is compiled with image
// dimension inference followed by syntax highlighting.
func NewPageBuilder(lookup posts.Lookup, compiler Compiler, cfg PageConfig) *PageBuilder {
	assetDir := strings.TrimSpace(cfg.AssetDir)
	if assetDir == "" {
		assetDir = DefaultAssetDir
	}
	return &PageBuilder{
		lookup:   lookup,
		compiler: compiler,
		stages: []markdown.Stage{
			&markdown.ImageSizeStage{Dir: assetDir, FS: cfg.Assets},
			&markdown.HighlightStage{Style: cfg.HighlightStyle},
		},
	}
}

// Stages returns the stage names in the order they run.
func (b *PageBuilder) Stages() []string {
	names := make([]string, 0, len(b.stages))
	for _, stage := range b.stages {
		names = append(names, stage.Name())
	}
	return names
}

// BuildPage looks up slug and compiles its content. A miss, or a post without
// content, returns empty PageProps and no error.
func (b *PageBuilder) BuildPage(ctx context.Context, slug string) (PageProps, error) {
	if strings.TrimSpace(slug) == "" {
		return PageProps{}, goerrors.Wrap(posts.ErrSlugRequired, goerrors.CategoryValidation, "page slug is required").
			WithTextCode(pageSlugRequiredCode)
	}

	post, err := b.lookup.GetBySlug(ctx, slug)
	if err != nil {
		if posts.IsNotFound(err) {
			return PageProps{}, nil
		}
		return PageProps{}, fmt.Errorf("generator: lookup %q: %w", slug, err)
	}
	if !post.HasContent() {
		return PageProps{}, nil
	}

	doc, err := b.compiler.Compile(ctx, []byte(post.Content), b.stages...)
	if err != nil {
		return PageProps{}, fmt.Errorf("generator: compile %q: %w", slug, err)
	}
	return PageProps{Post: post, Document: doc}, nil
}
