package posts

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps posts in memory. It is safe for concurrent use.
type MemoryRepository struct {
	mu     sync.RWMutex
	bySlug map[string]*Post
	now    func() time.Time
}

var (
	_ Repository = (*MemoryRepository)(nil)
	_ Writer     = (*MemoryRepository)(nil)
)

// NewMemoryRepository returns a repository seeded with records. Seeding
// panics on records without a slug.
func NewMemoryRepository(records ...*Post) *MemoryRepository {
	repo := &MemoryRepository{
		bySlug: make(map[string]*Post, len(records)),
		now:    time.Now,
	}
	for _, record := range records {
		if _, err := repo.Save(context.Background(), record); err != nil {
			panic(err)
		}
	}
	return repo
}

func (r *MemoryRepository) List(ctx context.Context) ([]*Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]*Post, 0, len(r.bySlug))
	for _, record := range r.bySlug {
		out = append(out, record.Metadata())
	}
	r.mu.RUnlock()

	SortPosts(out)
	return out, nil
}

func (r *MemoryRepository) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(slug)
	if key == "" {
		return nil, ErrSlugRequired
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.bySlug[key]
	if !ok {
		return nil, &NotFoundError{Slug: key}
	}
	return record.Clone(), nil
}

func (r *MemoryRepository) Save(ctx context.Context, post *Post) (*Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostRequired
	}
	record := post.Clone()
	record.Slug = strings.TrimSpace(record.Slug)
	if record.Slug == "" {
		return nil, ErrSlugRequired
	}
	if record.ID == uuid.Nil {
		record.ID = postID(record.Slug)
	}

	now := r.now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.bySlug[record.Slug]; ok {
		record.CreatedAt = existing.CreatedAt
	} else if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	r.bySlug[record.Slug] = record
	return record.Clone(), nil
}
