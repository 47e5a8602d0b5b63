package posts

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-blog/internal/validation"
)

func TestFileRepositoryDerivesMetadata(t *testing.T) {
	fsys := fstest.MapFS{
		"hello.md":            &fstest.MapFile{Data: []byte("---\ntitle: Hello\ndraft: true\ndate: 2024-05-01T00:00:00Z\n---\n# Hello\n")},
		"getting-started.mdx": &fstest.MapFile{Data: []byte("Plain body\n")},
		"custom.md":           &fstest.MapFile{Data: []byte("---\nslug: my-custom-slug\n---\nbody\n")},
	}
	repo := NewFileRepository(fsys, FileConfig{ValidateSchema: true})

	list, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 posts, got %d", len(list))
	}
	if list[0].Slug != "hello" || !list[0].Draft {
		t.Fatalf("expected dated draft first, got %+v", list[0])
	}
	for _, entry := range list {
		if entry.Content != "" {
			t.Fatalf("expected index entries without content")
		}
	}

	post, err := repo.GetBySlug(context.Background(), "getting-started")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if post.Title != "Getting Started" {
		t.Fatalf("expected title from file name, got %q", post.Title)
	}
	if post.Content != "Plain body\n" {
		t.Fatalf("unexpected content %q", post.Content)
	}
	if post.SourcePath != "getting-started.mdx" {
		t.Fatalf("unexpected source path %q", post.SourcePath)
	}

	custom, err := repo.GetBySlug(context.Background(), "my-custom-slug")
	if err != nil {
		t.Fatalf("get custom: %v", err)
	}
	if custom.Title != "Custom" {
		t.Fatalf("expected derived title, got %q", custom.Title)
	}

	if _, err := repo.GetBySlug(context.Background(), "custom"); !IsNotFound(err) {
		t.Fatalf("expected front matter slug to replace file name, got %v", err)
	}
}

func TestFileRepositoryRejectsDuplicateSlugs(t *testing.T) {
	fsys := fstest.MapFS{
		"a.md": &fstest.MapFile{Data: []byte("---\nslug: same\n---\n")},
		"b.md": &fstest.MapFile{Data: []byte("---\nslug: same\n---\n")},
	}
	_, err := NewFileRepository(fsys, FileConfig{}).List(context.Background())
	if !errors.Is(err, ErrDuplicateSlug) {
		t.Fatalf("expected ErrDuplicateSlug, got %v", err)
	}
	var dup *DuplicateSlugError
	if !errors.As(err, &dup) || len(dup.Paths) != 2 {
		t.Fatalf("expected both paths in error, got %v", err)
	}
}

func TestFileRepositoryValidatesFrontMatter(t *testing.T) {
	fsys := fstest.MapFS{
		"bad.md": &fstest.MapFile{Data: []byte("---\nslug: Not Valid\n---\n")},
	}

	_, err := NewFileRepository(fsys, FileConfig{ValidateSchema: true}).List(context.Background())
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}

	list, err := NewFileRepository(fsys, FileConfig{}).List(context.Background())
	if err != nil {
		t.Fatalf("expected unvalidated load to normalise the slug, got %v", err)
	}
	if len(list) != 1 || !IsValidSlug(list[0].Slug) {
		t.Fatalf("expected one post with a normalised slug, got %+v", list)
	}
}
