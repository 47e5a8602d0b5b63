package generator

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/goliatone/go-blog/internal/posts"
)

// Fallback tells the hosting layer how to treat paths that were not declared.
type Fallback string

// FallbackNone declares that no paths exist beyond the enumerated ones.
const FallbackNone Fallback = "none"

// StaticPaths lists the slugs to pre-render, in index order.
type StaticPaths struct {
	Slugs    []string `json:"slugs"`
	Fallback Fallback `json:"fallback"`
}

// Contains reports whether slug was declared.
func (p StaticPaths) Contains(slug string) bool {
	return slices.Contains(p.Slugs, slug)
}

// EnumeratePaths lists the slugs to pre-render. Drafts are dropped when
// production is set. An empty index yields empty paths.
func EnumeratePaths(ctx context.Context, index posts.Index, production bool) (StaticPaths, error) {
	records, err := declaredPosts(ctx, index, production)
	if err != nil {
		return StaticPaths{}, err
	}
	return staticPathsFor(records), nil
}

// declaredPosts returns the index records that become pages.
func declaredPosts(ctx context.Context, index posts.Index, production bool) ([]*posts.Post, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	records, err := index.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("generator: enumerate paths: %w", err)
	}

	declared := make([]*posts.Post, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		if production && record.Draft {
			continue
		}
		declared = append(declared, record)
	}
	return declared, nil
}

func staticPathsFor(records []*posts.Post) StaticPaths {
	slugs := make([]string, 0, len(records))
	for _, record := range records {
		slugs = append(slugs, record.Slug)
	}
	return StaticPaths{Slugs: slugs, Fallback: FallbackNone}
}

func buildOutputPath(prefix string, slug string) string {
	clean := strings.Trim(strings.TrimSpace(prefix), "/")
	if clean == "" {
		return path.Join(slug, "index.html")
	}
	return path.Join(clean, slug, "index.html")
}

func buildRoute(prefix string, slug string) string {
	return path.Join("/", strings.TrimSpace(prefix), slug) + "/"
}
