package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// NewPostRepository returns the generic bun repository for posts keyed by slug.
func NewPostRepository(db *bun.DB) repository.Repository[*Post] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			p.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(p *Post) string {
			return p.Slug
		},
	})
}

// BunRepository stores posts in a SQL database through go-repository-bun.
type BunRepository struct {
	db   *bun.DB
	repo repository.Repository[*Post]
}

var (
	_ Repository = (*BunRepository)(nil)
	_ Writer     = (*BunRepository)(nil)
)

func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache wraps reads with the go-repository-cache
// decorator when both cacheService and keySerializer are set.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunRepository {
	base := NewPostRepository(db)
	if cacheService != nil && keySerializer != nil {
		base = repositorycache.New(base, cacheService, keySerializer)
	}
	return &BunRepository{db: db, repo: base}
}

// CreateSchema creates the posts table when it does not exist.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return fmt.Errorf("posts: database not configured")
	}
	if _, err := db.NewCreateTable().Model((*Post)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("posts: create table: %w", err)
	}
	return nil
}

func (r *BunRepository) List(ctx context.Context) ([]*Post, error) {
	records, _, err := r.repo.List(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "")
	}
	out := make([]*Post, 0, len(records))
	for _, record := range records {
		out = append(out, record.Metadata())
	}
	SortPosts(out)
	return out, nil
}

func (r *BunRepository) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	key := strings.TrimSpace(slug)
	if key == "" {
		return nil, ErrSlugRequired
	}
	record, err := r.repo.GetByIdentifier(ctx, key)
	if err != nil {
		return nil, mapRepositoryError(err, key)
	}
	if record == nil {
		return nil, &NotFoundError{Slug: key}
	}
	return record.Clone(), nil
}

// Save inserts post, or updates the stored record with the same slug.
func (r *BunRepository) Save(ctx context.Context, post *Post) (*Post, error) {
	if post == nil {
		return nil, ErrPostRequired
	}
	record := post.Clone()
	record.Slug = strings.TrimSpace(record.Slug)
	if record.Slug == "" {
		return nil, ErrSlugRequired
	}
	record.UpdatedAt = time.Now().UTC()

	existing, err := r.repo.GetByIdentifier(ctx, record.Slug)
	switch {
	case err == nil && existing != nil:
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		updated, err := r.repo.Update(ctx, record,
			repository.UpdateByID(record.ID.String()),
			repository.UpdateColumns(
				"title",
				"draft",
				"date",
				"summary",
				"tags",
				"source_path",
				"content",
				"updated_at",
			),
		)
		if err != nil {
			return nil, mapRepositoryError(err, record.Slug)
		}
		return updated, nil
	case err == nil || IsNotFound(mapRepositoryError(err, record.Slug)):
		if record.ID == uuid.Nil {
			record.ID = postID(record.Slug)
		}
		created, err := r.repo.Create(ctx, record)
		if err != nil {
			return nil, mapRepositoryError(err, record.Slug)
		}
		return created, nil
	default:
		return nil, mapRepositoryError(err, record.Slug)
	}
}

func mapRepositoryError(err error, slug string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) || errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{Slug: slug}
	}
	return fmt.Errorf("posts repository error: %w", err)
}
