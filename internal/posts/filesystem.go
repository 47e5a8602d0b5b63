package posts

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/validation"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// FileConfig configures a FileRepository.
type FileConfig struct {
	// Pattern is a comma separated glob list. Defaults to markdown.DefaultPattern.
	Pattern   string
	Recursive bool
	// ValidateSchema checks front matter against the embedded schema.
	ValidateSchema bool
}

// FileRepository reads posts from Markdown and MDX files. Every call reads the
// directory again, so edits are visible without a restart.
type FileRepository struct {
	loader   *markdown.Loader
	validate bool
	logger   interfaces.Logger
}

var _ Repository = (*FileRepository)(nil)

// FileOption customises a FileRepository.
type FileOption func(*FileRepository)

// WithFileLogger sets the logger used for load diagnostics.
func WithFileLogger(logger interfaces.Logger) FileOption {
	return func(r *FileRepository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewFileRepository returns a repository reading post files from fsys.
func NewFileRepository(fsys fs.FS, cfg FileConfig, opts ...FileOption) *FileRepository {
	repo := &FileRepository{
		loader: markdown.NewLoader(fsys, markdown.LoaderConfig{
			Pattern:   cfg.Pattern,
			Recursive: cfg.Recursive,
		}),
		validate: cfg.ValidateSchema,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

func (r *FileRepository) List(ctx context.Context) ([]*Post, error) {
	records, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Post, 0, len(records))
	for _, record := range records {
		out = append(out, record.Metadata())
	}
	SortPosts(out)
	return out, nil
}

func (r *FileRepository) GetBySlug(ctx context.Context, slug string) (*Post, error) {
	key := strings.TrimSpace(slug)
	if key == "" {
		return nil, ErrSlugRequired
	}
	records, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	record, ok := records[key]
	if !ok {
		return nil, &NotFoundError{Slug: key}
	}
	return record, nil
}

func (r *FileRepository) load(ctx context.Context) (map[string]*Post, error) {
	docs, err := r.loader.LoadDirectory(ctx, ".", interfaces.LoadOptions{})
	if err != nil {
		return nil, fmt.Errorf("posts: load directory: %w", err)
	}

	records := make(map[string]*Post, len(docs))
	for _, doc := range docs {
		record, err := r.postFromDocument(doc)
		if err != nil {
			return nil, err
		}
		if existing, dup := records[record.Slug]; dup {
			return nil, &DuplicateSlugError{
				Slug:  record.Slug,
				Paths: []string{existing.SourcePath, record.SourcePath},
			}
		}
		records[record.Slug] = record
	}
	r.logger.Debug("posts loaded", "count", len(records))
	return records, nil
}

func (r *FileRepository) postFromDocument(doc *interfaces.SourceDocument) (*Post, error) {
	meta := doc.FrontMatter
	if r.validate {
		if err := validation.ValidateFrontMatter(meta.Raw); err != nil {
			return nil, fmt.Errorf("posts: %s: %w", doc.FilePath, err)
		}
	}

	var (
		slug string
		err  error
	)
	if strings.TrimSpace(meta.Slug) == "" {
		slug, err = slugFromPath(doc.FilePath)
	} else {
		slug, err = NormalizeSlug(meta.Slug)
	}
	if err != nil {
		return nil, fmt.Errorf("posts: %s: %w", doc.FilePath, err)
	}

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = TitleFromPath(doc.FilePath)
	}

	return &Post{
		ID:         postID(slug),
		Slug:       slug,
		Title:      title,
		Draft:      meta.Draft,
		Date:       meta.Date,
		Summary:    meta.Summary,
		Tags:       append([]string(nil), meta.Tags...),
		SourcePath: doc.FilePath,
		Content:    string(doc.Body),
		CreatedAt:  doc.LastModified,
		UpdatedAt:  doc.LastModified,
	}, nil
}
