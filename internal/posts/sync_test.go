package posts

import (
	"context"
	"testing"
)

func TestSyncCopiesContent(t *testing.T) {
	src := NewMemoryRepository(
		&Post{Slug: "a", Title: "A", Content: "alpha"},
		&Post{Slug: "b", Title: "B", Content: "beta", Draft: true},
	)
	dst := NewMemoryRepository()

	result, err := Sync(context.Background(), src, dst, false)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Copied != 2 {
		t.Fatalf("expected 2 copied, got %d", result.Copied)
	}
	post, err := dst.GetBySlug(context.Background(), "b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if post.Content != "beta" || !post.Draft {
		t.Fatalf("expected content and draft flag to be copied, got %+v", post)
	}
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	src := NewMemoryRepository(&Post{Slug: "a", Title: "A", Content: "alpha"})
	dst := NewMemoryRepository()

	result, err := Sync(context.Background(), src, dst, true)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Copied != 1 || len(result.Slugs) != 1 {
		t.Fatalf("expected dry run to report one post, got %+v", result)
	}
	list, _ := dst.List(context.Background())
	if len(list) != 0 {
		t.Fatalf("expected destination untouched, got %d posts", len(list))
	}
}
