// Package blog builds a statically generated blog: one HTML page per post
// slug plus a paths manifest declaring that no other paths exist.
package blog

import (
	"github.com/goliatone/go-command"

	"github.com/goliatone/go-blog/internal/commands"
	postscmd "github.com/goliatone/go-blog/internal/commands/posts"
	staticcmd "github.com/goliatone/go-blog/internal/commands/static"
	"github.com/goliatone/go-blog/internal/di"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// GeneratorService exports the static site generator contract.
type GeneratorService = generator.Service

// PostRepository exports the readable post store contract.
type PostRepository = posts.Repository

// Post exports the post record.
type Post = posts.Post

// BuildOptions exports the generator build options.
type BuildOptions = generator.BuildOptions

// BuildResult exports the generator build result.
type BuildResult = generator.BuildResult

// StaticPaths exports the declared paths.
type StaticPaths = generator.StaticPaths

// Option customises module wiring.
type Option = di.Option

var (
	WithLoggerProvider = di.WithLoggerProvider
	WithBunDB          = di.WithBunDB
	WithCache          = di.WithCache
	WithPostRepository = di.WithPostRepository
	WithPostsFS        = di.WithPostsFS
	WithAssetsFS       = di.WithAssetsFS
)

// Module is the entry point for consumers of the blog package.
type Module struct {
	container *di.Container
}

// New validates cfg and wires the build.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Config returns the validated configuration.
func (m *Module) Config() Config {
	return m.container.Config
}

// Generator returns the site builder.
func (m *Module) Generator() GeneratorService {
	return m.container.GeneratorService()
}

// Posts returns the configured post store.
func (m *Module) Posts() PostRepository {
	return m.container.Posts()
}

// Logger returns a module-scoped logger from the configured provider.
func (m *Module) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(m.container.LoggerProvider(), module)
}

// BuildHandler returns the build command handler.
func (m *Module) BuildHandler() *staticcmd.BuildSiteHandler {
	return staticcmd.NewBuildSiteHandler(
		m.Generator(),
		commands.CommandLogger(m.container.LoggerProvider(), "static"),
		timeoutOption[staticcmd.BuildSiteCommand](m.container.Config),
	)
}

// PreviewHandler returns the preview command handler.
func (m *Module) PreviewHandler() *staticcmd.PreviewPostHandler {
	return staticcmd.NewPreviewPostHandler(
		m.Generator(),
		commands.CommandLogger(m.container.LoggerProvider(), "static"),
		timeoutOption[staticcmd.PreviewPostCommand](m.container.Config),
	)
}

// PathsHandler returns the path listing command handler.
func (m *Module) PathsHandler() *staticcmd.ListPathsHandler {
	return staticcmd.NewListPathsHandler(
		m.Generator(),
		commands.CommandLogger(m.container.LoggerProvider(), "static"),
	)
}

// CleanHandler returns the output cleaning command handler.
func (m *Module) CleanHandler() *staticcmd.CleanSiteHandler {
	return staticcmd.NewCleanSiteHandler(
		m.Generator(),
		commands.CommandLogger(m.container.LoggerProvider(), "static"),
	)
}

// ImportHandler returns a handler copying the posts directory into the
// database store. It fails when no database is configured.
func (m *Module) ImportHandler() (*postscmd.ImportPostsHandler, error) {
	dst, err := m.container.DatabaseRepository()
	if err != nil {
		return nil, err
	}
	return postscmd.NewImportPostsHandler(
		m.container.FileRepository(),
		dst,
		commands.CommandLogger(m.container.LoggerProvider(), "posts"),
		timeoutOption[postscmd.ImportPostsCommand](m.container.Config),
	), nil
}

// timeoutOption keeps the handler default unless the configuration sets a
// timeout.
func timeoutOption[T command.Message](cfg Config) commands.HandlerOption[T] {
	if cfg.Generator.Timeout <= 0 {
		return nil
	}
	return commands.WithTimeout[T](cfg.Generator.Timeout)
}

// Close releases resources opened by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}
