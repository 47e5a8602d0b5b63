package posts_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/testsupport"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

func newPostsDB(t *testing.T, name string) *bun.DB {
	t.Helper()
	db, err := testsupport.NewBunMemoryDB(name)
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := posts.CreateSchema(context.Background(), db); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func TestBunRepositorySaveAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := posts.NewBunRepository(newPostsDB(t, "posts_save"))

	created, err := repo.Save(ctx, &posts.Post{
		Slug:    "hello",
		Title:   "Hello",
		Draft:   true,
		Date:    time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Tags:    []string{"go", "blog"},
		Content: "# Hello",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if created.ID.String() == "" {
		t.Fatalf("expected id to be assigned")
	}

	got, err := repo.GetBySlug(ctx, "hello")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Hello" || !got.Draft || got.Content != "# Hello" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[1] != "blog" {
		t.Fatalf("expected tags round trip, got %v", got.Tags)
	}

	if _, err := repo.Save(ctx, &posts.Post{Slug: "hello", Title: "Hello again", Content: "# Again"}); err != nil {
		t.Fatalf("save update: %v", err)
	}
	updated, err := repo.GetBySlug(ctx, "hello")
	if err != nil {
		t.Fatalf("get updated: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("expected upsert to keep id %s, got %s", created.ID, updated.ID)
	}
	if updated.Title != "Hello again" || updated.Draft {
		t.Fatalf("expected replaced fields, got %+v", updated)
	}

	if _, err := repo.GetBySlug(ctx, "missing"); !posts.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBunRepositoryListWithCache(t *testing.T) {
	ctx := context.Background()
	db := newPostsDB(t, "posts_cache")

	writer := posts.NewBunRepository(db)
	for _, record := range []*posts.Post{
		{Slug: "first", Title: "First", Content: "1", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Slug: "second", Title: "Second", Content: "2", Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	} {
		if _, err := writer.Save(ctx, record); err != nil {
			t.Fatalf("save %s: %v", record.Slug, err)
		}
	}

	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = time.Minute
	cacheSvc, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		t.Fatalf("cache service: %v", err)
	}
	repo := posts.NewBunRepositoryWithCache(db, cacheSvc, repocache.NewDefaultKeySerializer())

	for range 2 {
		list, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 2 || list[0].Slug != "second" || list[1].Slug != "first" {
			t.Fatalf("unexpected order: %+v", list)
		}
		if list[0].Content != "" {
			t.Fatalf("expected index without content")
		}
	}

	post, err := repo.GetBySlug(ctx, "first")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if post.Content != "1" {
		t.Fatalf("expected content through cache, got %q", post.Content)
	}
}
