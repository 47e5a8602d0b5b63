package di

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/logging/console"
	"github.com/goliatone/go-blog/internal/logging/gologger"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/render"
	"github.com/goliatone/go-blog/internal/runtimeconfig"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// highlightStylesheet is the route of the chroma stylesheet written by the generator.
const highlightStylesheet = "/assets/highlight.css"

// Container wires the blog build from a validated configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider

	bunDB         *bun.DB
	ownsDB        bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	postsFS  fs.FS
	assetsFS fs.FS

	postRepo posts.Repository
	fileRepo *posts.FileRepository
	dbRepo   *posts.BunRepository

	compiler  *markdown.Compiler
	renderer  *render.Renderer
	generator generator.Service

	closeOnce sync.Once
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by Logging.Provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		if provider != nil {
			c.loggerProvider = provider
		}
	}
}

// WithBunDB supplies the database used by the database content provider. The
// container does not close a supplied database.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache built from Storage.CacheTTL.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithPostRepository replaces the configured post store.
func WithPostRepository(repo posts.Repository) Option {
	return func(c *Container) {
		c.postRepo = repo
	}
}

// WithPostsFS replaces the posts directory filesystem.
func WithPostsFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.postsFS = fsys
	}
}

// WithAssetsFS replaces the asset directory filesystem.
func WithAssetsFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.assetsFS = fsys
	}
}

// NewContainer validates cfg and builds every collaborator of a build.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configurePosts(); err != nil {
		_ = c.Close()
		return nil, err
	}

	c.compiler = markdown.NewCompiler(interfaces.CompileOptions{
		Extensions: cfg.Markdown.Extensions,
		HardWraps:  cfg.Markdown.HardWraps,
		Unsafe:     cfg.Markdown.Unsafe,
	})

	renderer, err := render.NewRenderer(render.Site{
		Title:       cfg.Generator.SiteTitle,
		Language:    cfg.Generator.Language,
		BaseURL:     cfg.Generator.BaseURL,
		RoutePrefix: cfg.Generator.RoutePrefix,
		Stylesheets: []string{highlightStylesheet},
	})
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.renderer = renderer

	c.generator = generator.NewService(generator.Config{
		OutputDir:      cfg.Generator.OutputDir,
		RoutePrefix:    cfg.Generator.RoutePrefix,
		AssetDir:       cfg.Markdown.AssetDir,
		HighlightStyle: cfg.Markdown.HighlightStyle,
		Workers:        cfg.Generator.Workers,
		CleanBuild:     cfg.Generator.CleanBuild,
		CopyAssets:     cfg.Generator.CopyAssets,
		Production:     cfg.IsProduction(),

		BaseURL:         cfg.Generator.BaseURL,
		SiteTitle:       cfg.Generator.SiteTitle,
		Language:        cfg.Generator.Language,
		GenerateSitemap: cfg.Generator.GenerateSitemap,
		GenerateRobots:  cfg.Generator.GenerateRobots,
		GenerateFeed:    cfg.Generator.GenerateFeed,
	}, generator.Dependencies{
		Posts:    c.postRepo,
		Compiler: c.compiler,
		Renderer: c.renderer,
		Assets:   c.assetsFS,
		Logger:   logging.GeneratorLogger(c.loggerProvider),
	})

	logging.ModuleLogger(c.loggerProvider, "blog").Debug("container.configured",
		"environment", cfg.Environment,
		"content_provider", cfg.Content.Provider,
		"production", cfg.IsProduction(),
	)
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "", "console":
		provider, err := console.NewProvider(console.Options{Level: c.Config.Logging.Level})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		return fmt.Errorf("%w: %s", runtimeconfig.ErrLoggingProviderUnknown, c.Config.Logging.Provider)
	}
	return nil
}

func (c *Container) configurePosts() error {
	if c.postRepo != nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Config.Content.Provider)) {
	case runtimeconfig.ContentProviderDatabase:
		repo, err := c.DatabaseRepository()
		if err != nil {
			return err
		}
		c.postRepo = repo
	default:
		c.postRepo = c.FileRepository()
	}
	return nil
}

// LoggerProvider returns the active logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Posts returns the configured post store.
func (c *Container) Posts() posts.Repository {
	return c.postRepo
}

// FileRepository returns the posts directory store regardless of the
// configured provider. It is the source of an import.
func (c *Container) FileRepository() *posts.FileRepository {
	if c.fileRepo != nil {
		return c.fileRepo
	}
	fsys := c.postsFS
	if fsys == nil {
		fsys = os.DirFS(c.Config.Content.PostsDir)
	}
	c.fileRepo = posts.NewFileRepository(fsys, posts.FileConfig{
		Pattern:        c.Config.Content.Pattern,
		Recursive:      c.Config.Content.Recursive,
		ValidateSchema: c.Config.Content.ValidateSchema,
	}, posts.WithFileLogger(logging.PostsLogger(c.loggerProvider)))
	return c.fileRepo
}

// DatabaseRepository opens the database store on first use, creating the
// schema when Storage.AutoMigrate is set.
func (c *Container) DatabaseRepository() (*posts.BunRepository, error) {
	if c.dbRepo != nil {
		return c.dbRepo, nil
	}
	if c.bunDB == nil {
		if strings.TrimSpace(c.Config.Storage.DSN) == "" {
			return nil, runtimeconfig.ErrStorageDSNRequired
		}
		db, err := posts.OpenDatabase(c.Config.Storage.Driver, c.Config.Storage.DSN)
		if err != nil {
			return nil, err
		}
		c.bunDB = db
		c.ownsDB = true
	}
	if c.Config.Storage.AutoMigrate {
		if err := posts.CreateSchema(context.Background(), c.bunDB); err != nil {
			return nil, err
		}
	}
	if err := c.configureCache(); err != nil {
		return nil, err
	}
	c.dbRepo = posts.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
	return c.dbRepo, nil
}

func (c *Container) configureCache() error {
	if c.cacheService != nil && c.keySerializer != nil {
		return nil
	}
	if c.Config.Storage.CacheTTL <= 0 {
		return nil
	}
	cacheCfg := repocache.DefaultConfig()
	cacheCfg.TTL = c.Config.Storage.CacheTTL
	service, err := repocache.NewCacheService(cacheCfg)
	if err != nil {
		return fmt.Errorf("di: cache service: %w", err)
	}
	c.cacheService = service
	c.keySerializer = repocache.NewDefaultKeySerializer()
	return nil
}

// Compiler returns the content compiler.
func (c *Container) Compiler() *markdown.Compiler {
	return c.compiler
}

// Renderer returns the page renderer.
func (c *Container) Renderer() *render.Renderer {
	return c.renderer
}

// GeneratorService returns the site builder.
func (c *Container) GeneratorService() generator.Service {
	return c.generator
}

// Close releases the database opened by the container.
func (c *Container) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.ownsDB && c.bunDB != nil {
			err = c.bunDB.Close()
		}
	})
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}
