package posts

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/goliatone/go-blog/internal/identity"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Post is a blog post. Records returned by Index implementations never carry
// Content; Lookup implementations always do.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID         uuid.UUID `bun:",pk,type:uuid" json:"id"`
	Slug       string    `bun:"slug,notnull,unique" json:"slug"`
	Title      string    `bun:"title,notnull" json:"title"`
	Draft      bool      `bun:"draft,notnull,default:false" json:"draft"`
	Date       time.Time `bun:"date,nullzero" json:"date,omitempty"`
	Summary    string    `bun:"summary" json:"summary,omitempty"`
	Tags       []string  `bun:"tags,type:jsonb" json:"tags,omitempty"`
	SourcePath string    `bun:"source_path" json:"source_path,omitempty"`
	Content    string    `bun:"content" json:"content,omitempty"`
	CreatedAt  time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// HasContent reports whether the post carries renderable content.
func (p *Post) HasContent() bool {
	return p != nil && p.Content != ""
}

// Clone returns a deep copy of p.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	cloned := *p
	cloned.Tags = slices.Clone(p.Tags)
	return &cloned
}

// Metadata returns a copy of p without its content.
func (p *Post) Metadata() *Post {
	cloned := p.Clone()
	if cloned != nil {
		cloned.Content = ""
	}
	return cloned
}

// Index lists every known post's metadata.
type Index interface {
	List(ctx context.Context) ([]*Post, error)
}

// Lookup resolves a single post with its content. A miss returns an error
// matching ErrPostNotFound.
type Lookup interface {
	GetBySlug(ctx context.Context, slug string) (*Post, error)
}

// Repository is a readable post store.
type Repository interface {
	Index
	Lookup
}

// Writer persists posts. Save inserts or replaces the post with the same slug.
type Writer interface {
	Save(ctx context.Context, post *Post) (*Post, error)
}

// SortPosts orders records newest first, breaking ties by slug.
func SortPosts(records []*Post) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Slug < b.Slug
	})
}

func postID(slug string) uuid.UUID {
	return identity.PostUUID(slug)
}
