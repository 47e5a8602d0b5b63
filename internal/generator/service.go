package generator

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	notFoundFileName   = "404.html"
	highlightCSSPath   = "assets/highlight.css"
	defaultRoutePrefix = "blog"
)

var (
	// ErrDeclaredPathUnresolved is returned when an enumerated slug does not
	// resolve to a post with content at build time.
	ErrDeclaredPathUnresolved = errors.New("generator: declared path did not resolve")
	// ErrUndeclaredPath is returned when a build is narrowed to a slug that
	// the path enumerator did not declare.
	ErrUndeclaredPath = errors.New("generator: path not declared")
	// ErrIndexRequired is returned when no post index is configured.
	ErrIndexRequired    = errors.New("generator: post index is required")
	errRendererRequired = errors.New("generator: page renderer is required")
	errCompilerRequired = errors.New("generator: compiler is required")
)

// Service describes the static site generator contract.
type Service interface {
	Build(ctx context.Context, opts BuildOptions) (*BuildResult, error)
	Paths(ctx context.Context) (StaticPaths, error)
	Preview(ctx context.Context, slug string, w io.Writer) error
	Clean(ctx context.Context) error
}

// PageRenderer produces the final markup for a page. A nil post or document
// renders the not-found page.
type PageRenderer interface {
	Render(w io.Writer, post *posts.Post, doc *interfaces.CompiledDocument) error
}

// Config captures runtime behaviour toggles for the generator.
type Config struct {
	OutputDir      string
	RoutePrefix    string
	AssetDir       string
	HighlightStyle string
	Workers        int
	CleanBuild     bool
	CopyAssets     bool
	// Production drops draft posts from the declared paths.
	Production bool

	// BaseURL makes sitemap and feed links absolute.
	BaseURL         string
	SiteTitle       string
	Language        string
	GenerateSitemap bool
	GenerateRobots  bool
	GenerateFeed    bool
}

// Dependencies lists the collaborators required by the generator.
type Dependencies struct {
	Posts    posts.Repository
	Compiler Compiler
	Renderer PageRenderer
	// Assets replaces the asset directory filesystem.
	Assets fs.FS
	Logger interfaces.Logger
}

// BuildOptions narrows the scope of a generator run.
type BuildOptions struct {
	// Slugs limits the build to these declared slugs. Empty builds all.
	Slugs  []string
	DryRun bool
}

// RenderedPage describes one written page.
type RenderedPage struct {
	Slug     string
	Route    string
	Output   string
	Checksum string
	Draft    bool
	Duration time.Duration
}

// BuildResult reports aggregated build metadata.
type BuildResult struct {
	Paths        StaticPaths
	PagesBuilt   int
	AssetsCopied int
	Rendered     []RenderedPage
	Duration     time.Duration
	DryRun       bool
}

// NewService wires a generator implementation with the provided configuration and dependencies.
func NewService(cfg Config, deps Dependencies) Service {
	if strings.TrimSpace(cfg.RoutePrefix) == "" {
		cfg.RoutePrefix = defaultRoutePrefix
	}
	if strings.TrimSpace(cfg.AssetDir) == "" {
		cfg.AssetDir = DefaultAssetDir
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &service{
		cfg:    cfg,
		deps:   deps,
		pages:  NewPageBuilder(deps.Posts, deps.Compiler, PageConfig{AssetDir: cfg.AssetDir, HighlightStyle: cfg.HighlightStyle, Assets: deps.Assets}),
		logger: logger,
		now:    time.Now,
	}
}

type service struct {
	cfg    Config
	deps   Dependencies
	pages  *PageBuilder
	logger interfaces.Logger
	now    func() time.Time
}

func (s *service) Paths(ctx context.Context) (StaticPaths, error) {
	if s.deps.Posts == nil {
		return StaticPaths{}, ErrIndexRequired
	}
	return EnumeratePaths(ctx, s.deps.Posts, s.cfg.Production)
}

func (s *service) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	start := s.now()

	declared, err := declaredPosts(ctx, s.deps.Posts, s.cfg.Production)
	if err != nil {
		return nil, err
	}
	paths := staticPathsFor(declared)
	slugs, err := selectSlugs(paths, opts.Slugs)
	if err != nil {
		return nil, err
	}

	logger := logging.WithFields(s.logger, map[string]any{
		"output_dir": s.cfg.OutputDir,
		"dry_run":    opts.DryRun,
	})
	logger.Info("build.start",
		"declared", len(paths.Slugs),
		"selected", len(slugs),
		"stages", s.pages.Stages(),
	)

	writer := newArtifactWriter(s.cfg.OutputDir, opts.DryRun)
	if s.cfg.CleanBuild && len(opts.Slugs) == 0 {
		if err := writer.Clean(ctx); err != nil {
			return nil, fmt.Errorf("generator: clean output: %w", err)
		}
	}
	if err := writer.EnsureDir(ctx, "."); err != nil {
		return nil, fmt.Errorf("generator: ensure output dir: %w", err)
	}

	result := &BuildResult{Paths: paths, DryRun: opts.DryRun}
	if s.cfg.CopyAssets {
		copied, err := s.copyAssets(ctx, writer)
		if err != nil {
			return nil, err
		}
		result.AssetsCopied = copied
	}
	if err := s.writeHighlightCSS(ctx, writer); err != nil {
		return nil, err
	}

	rendered, err := s.renderConcurrently(ctx, slugs, writer)
	if err != nil {
		logger.Error("build.failed", "error", err)
		return nil, err
	}
	result.Rendered = rendered
	result.PagesBuilt = len(rendered)

	if err := s.writeNotFound(ctx, writer); err != nil {
		return nil, err
	}
	if err := s.persistManifest(ctx, writer, paths, rendered); err != nil {
		return nil, err
	}
	if err := s.writeDiscovery(ctx, writer, declared); err != nil {
		return nil, err
	}

	result.Duration = s.now().Sub(start)
	logger.Info("build.complete",
		"pages", result.PagesBuilt,
		"assets", result.AssetsCopied,
		"duration", result.Duration,
	)
	return result, nil
}

func (s *service) Preview(ctx context.Context, slug string, w io.Writer) error {
	if err := s.ready(); err != nil {
		return err
	}
	if w == nil {
		return errors.New("generator: preview requires a writer")
	}
	props, err := s.pages.BuildPage(ctx, slug)
	if err != nil {
		return err
	}
	if !props.Found() {
		return &posts.NotFoundError{Slug: slug}
	}
	return s.deps.Renderer.Render(w, props.Post, props.Document)
}

func (s *service) Clean(ctx context.Context) error {
	return newArtifactWriter(s.cfg.OutputDir, false).Clean(ctx)
}

func (s *service) ready() error {
	switch {
	case s.deps.Posts == nil:
		return ErrIndexRequired
	case s.deps.Compiler == nil:
		return errCompilerRequired
	case s.deps.Renderer == nil:
		return errRendererRequired
	}
	return nil
}

func (s *service) renderConcurrently(ctx context.Context, slugs []string, writer artifactWriter) ([]RenderedPage, error) {
	if len(slugs) == 0 {
		return []RenderedPage{}, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.effectiveWorkerCount(len(slugs)))

	rendered := make([]RenderedPage, len(slugs))
	for i, slug := range slugs {
		group.Go(func() error {
			page, err := s.renderPage(groupCtx, slug, writer)
			if err != nil {
				return err
			}
			rendered[i] = page
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return rendered, nil
}

func (s *service) renderPage(ctx context.Context, slug string, writer artifactWriter) (RenderedPage, error) {
	if err := ctx.Err(); err != nil {
		return RenderedPage{}, err
	}
	started := s.now()
	page := RenderedPage{
		Slug:   slug,
		Route:  buildRoute(s.cfg.RoutePrefix, slug),
		Output: buildOutputPath(s.cfg.RoutePrefix, slug),
	}

	props, err := s.pages.BuildPage(ctx, slug)
	if err != nil {
		return RenderedPage{}, err
	}
	if !props.Found() {
		return RenderedPage{}, fmt.Errorf("%w: %q", ErrDeclaredPathUnresolved, slug)
	}
	logger := logging.WithPageContext(s.logger, slug, page.Route, props.Post.SourcePath)

	var buf bytes.Buffer
	if err := s.deps.Renderer.Render(&buf, props.Post, props.Document); err != nil {
		logger.Error("page.render.failed", "error", err)
		return RenderedPage{}, fmt.Errorf("generator: render %q: %w", slug, err)
	}
	page.Checksum = computeHash(buf.Bytes())
	page.Draft = props.Post.Draft

	if err := writer.EnsureDir(ctx, path.Dir(page.Output)); err != nil {
		return RenderedPage{}, fmt.Errorf("generator: ensure dir for %q: %w", slug, err)
	}
	size := buf.Len()
	if err := writer.WriteFile(ctx, writeFileRequest{
		Path:     page.Output,
		Content:  &buf,
		Category: categoryPage,
		Checksum: page.Checksum,
	}); err != nil {
		return RenderedPage{}, fmt.Errorf("generator: write %q: %w", slug, err)
	}

	page.Duration = s.now().Sub(started)
	logger.Debug("page.rendered", "duration", page.Duration, "bytes", size)
	return page, nil
}

func (s *service) writeNotFound(ctx context.Context, writer artifactWriter) error {
	var buf bytes.Buffer
	if err := s.deps.Renderer.Render(&buf, nil, nil); err != nil {
		return fmt.Errorf("generator: render not found page: %w", err)
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:     notFoundFileName,
		Content:  bytes.NewReader(buf.Bytes()),
		Category: categoryPage,
		Checksum: computeHash(buf.Bytes()),
	})
}

func (s *service) writeHighlightCSS(ctx context.Context, writer artifactWriter) error {
	css, err := markdown.HighlightCSS(s.cfg.HighlightStyle)
	if err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:     highlightCSSPath,
		Content:  bytes.NewReader(css),
		Category: categoryAsset,
		Checksum: computeHash(css),
	})
}

func (s *service) persistManifest(ctx context.Context, writer artifactWriter, paths StaticPaths, rendered []RenderedPage) error {
	data, err := newPathsManifest(s.cfg.RoutePrefix, paths, rendered, s.now()).encode()
	if err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:     pathsFileName,
		Content:  bytes.NewReader(data),
		Category: categoryManifest,
	})
}

// writeDiscovery writes sitemap.xml, robots.txt and feed.xml over every
// declared post, including those a slug-filtered build did not render.
func (s *service) writeDiscovery(ctx context.Context, writer artifactWriter, declared []*posts.Post) error {
	at := s.now()
	site := siteInfo{
		BaseURL:  s.cfg.BaseURL,
		Title:    s.cfg.SiteTitle,
		Language: s.cfg.Language,
		Prefix:   s.cfg.RoutePrefix,
	}
	var files []writeFileRequest
	if s.cfg.GenerateSitemap {
		data, err := buildSitemap(site, declared, at)
		if err != nil {
			return err
		}
		files = append(files, writeFileRequest{Path: sitemapFileName, Content: bytes.NewReader(data), Category: categorySitemap, Checksum: computeHash(data)})
	}
	if s.cfg.GenerateRobots {
		data := buildRobots(site.BaseURL, s.cfg.GenerateSitemap)
		files = append(files, writeFileRequest{Path: robotsFileName, Content: bytes.NewReader(data), Category: categoryRobots, Checksum: computeHash(data)})
	}
	if s.cfg.GenerateFeed {
		data, err := buildRSSFeed(site, declared, at)
		if err != nil {
			return err
		}
		files = append(files, writeFileRequest{Path: feedFileName, Content: bytes.NewReader(data), Category: categoryFeed})
	}
	for _, req := range files {
		if err := writer.WriteFile(ctx, req); err != nil {
			return fmt.Errorf("generator: write %s: %w", req.Category, err)
		}
	}
	return nil
}

// copyAssets mirrors the asset directory into the output root so image
// sources like /img/a.png keep resolving once deployed.
func (s *service) copyAssets(ctx context.Context, writer artifactWriter) (int, error) {
	assets := s.deps.Assets
	if assets == nil {
		info, err := os.Stat(s.cfg.AssetDir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				s.logger.Debug("assets.skipped", "asset_dir", s.cfg.AssetDir)
				return 0, nil
			}
			return 0, fmt.Errorf("generator: stat asset dir: %w", err)
		}
		if !info.IsDir() {
			return 0, fmt.Errorf("generator: asset dir %s is not a directory", s.cfg.AssetDir)
		}
		assets = os.DirFS(s.cfg.AssetDir)
	}

	copied := 0
	err := fs.WalkDir(assets, ".", func(name string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if name != "." && strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(assets, name)
		if err != nil {
			return err
		}
		if err := writer.WriteFile(ctx, writeFileRequest{
			Path:     name,
			Content:  bytes.NewReader(data),
			Category: categoryAsset,
			Checksum: computeHash(data),
		}); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("generator: copy assets: %w", err)
	}
	return copied, nil
}

func (s *service) effectiveWorkerCount(pages int) int {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > pages {
		workers = pages
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

func selectSlugs(paths StaticPaths, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return paths.Slugs, nil
	}
	selected := make([]string, 0, len(requested))
	seen := make(map[string]struct{}, len(requested))
	for _, slug := range requested {
		slug = strings.TrimSpace(slug)
		if _, ok := seen[slug]; ok {
			continue
		}
		if !paths.Contains(slug) {
			return nil, fmt.Errorf("%w: %q", ErrUndeclaredPath, slug)
		}
		seen[slug] = struct{}{}
		selected = append(selected, slug)
	}
	return selected, nil
}

func computeHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
