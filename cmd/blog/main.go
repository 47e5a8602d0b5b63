package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	blog "github.com/goliatone/go-blog"
	postscmd "github.com/goliatone/go-blog/internal/commands/posts"
	staticcmd "github.com/goliatone/go-blog/internal/commands/static"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/internal/watch"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// CLI is the blog command line.
type CLI struct {
	Config      string   `short:"c" help:"Configuration file path" default:"blog.yaml"`
	EnvFile     []string `name:"env-file" help:"Dotenv files read before BLOG_* overrides" default:".env"`
	Environment string   `short:"e" help:"Override the configured environment (production leaves drafts out)"`

	Build   BuildCmd   `cmd:"" help:"Render every declared post path into the output directory"`
	Paths   PathsCmd   `cmd:"" help:"List the slugs that would be generated"`
	Preview PreviewCmd `cmd:"" help:"Render a single post to stdout"`
	Clean   CleanCmd   `cmd:"" help:"Remove the output directory"`
	Import  ImportCmd  `cmd:"" help:"Copy the posts directory into the database store"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever posts, assets or the config change"`
}

// BuildCmd renders the site.
type BuildCmd struct {
	DryRun bool     `help:"Render without writing files"`
	Output string   `short:"o" help:"Override the configured output directory"`
	Slugs  []string `arg:"" optional:"" help:"Restrict the build to these slugs"`
}

// PathsCmd prints the declared paths.
type PathsCmd struct {
	JSON bool `help:"Print the paths as JSON"`
}

// PreviewCmd prints one rendered page.
type PreviewCmd struct {
	Slug string `arg:"" help:"Post slug"`
}

// CleanCmd removes generated output.
type CleanCmd struct{}

// ImportCmd syncs file posts into the database.
type ImportCmd struct {
	DryRun bool `help:"Report what would be imported without writing"`
}

// WatchCmd rebuilds on change.
type WatchCmd struct {
	Output string `short:"o" help:"Override the configured output directory"`
}

type buildHandler interface {
	Execute(context.Context, staticcmd.BuildSiteCommand) error
}

type previewHandler interface {
	Execute(context.Context, staticcmd.PreviewPostCommand) error
}

type pathsHandler interface {
	Execute(context.Context, staticcmd.ListPathsCommand) error
}

type cleanHandler interface {
	Execute(context.Context, staticcmd.CleanSiteCommand) error
}

type importHandler interface {
	Execute(context.Context, postscmd.ImportPostsCommand) error
}

type handlerSet struct {
	build    buildHandler
	preview  previewHandler
	paths    pathsHandler
	clean    cleanHandler
	importer func() (importHandler, error)
}

type moduleOptions struct {
	ConfigPath  string
	DotEnv      []string
	Environment string
	OutputDir   string
}

type moduleResources struct {
	handlers   handlerSet
	watchPaths []string
	logger     interfaces.Logger
	close      func() error
}

func (r *moduleResources) Close() error {
	if r == nil || r.close == nil {
		return nil
	}
	return r.close()
}

var moduleBuilder = buildModule

func buildModule(opts moduleOptions) (*moduleResources, error) {
	cfg, err := blog.LoadConfig(blog.LoadOptions{Path: opts.ConfigPath, DotEnv: opts.DotEnv})
	if err != nil {
		return nil, err
	}
	if env := strings.TrimSpace(opts.Environment); env != "" {
		cfg.Environment = env
	}
	if out := strings.TrimSpace(opts.OutputDir); out != "" {
		cfg.Generator.OutputDir = out
	}

	module, err := blog.New(cfg)
	if err != nil {
		return nil, err
	}

	return &moduleResources{
		handlers: handlerSet{
			build:   module.BuildHandler(),
			preview: module.PreviewHandler(),
			paths:   module.PathsHandler(),
			clean:   module.CleanHandler(),
			importer: func() (importHandler, error) {
				handler, err := module.ImportHandler()
				if err != nil {
					return nil, err
				}
				return handler, nil
			},
		},
		watchPaths: watchPathsFor(cfg, opts.ConfigPath),
		logger:     module.Logger("cli"),
		close:      module.Close,
	}, nil
}

// watchPathsFor lists what watch observes. The posts directory only matters
// when posts are read from files.
func watchPathsFor(cfg blog.Config, configPath string) []string {
	paths := []string{cfg.Markdown.AssetDir}
	if !strings.EqualFold(strings.TrimSpace(cfg.Content.Provider), blog.ContentProviderDatabase) {
		paths = append(paths, cfg.Content.PostsDir)
	}
	if strings.TrimSpace(configPath) != "" {
		paths = append(paths, configPath)
	}
	return paths
}

// app carries the per-invocation state bound into each command's Run.
type app struct {
	ctx    context.Context
	opts   moduleOptions
	stdout io.Writer
	stderr io.Writer
}

func (a *app) open(output string) (*moduleResources, error) {
	opts := a.opts
	if strings.TrimSpace(output) != "" {
		opts.OutputDir = output
	}
	return moduleBuilder(opts)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "blog: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("blog"),
		kong.Description("Generate a static blog from markdown posts."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return kctx.Run(&app{
		ctx: ctx,
		opts: moduleOptions{
			ConfigPath:  cli.Config,
			DotEnv:      cli.EnvFile,
			Environment: cli.Environment,
		},
		stdout: stdout,
		stderr: stderr,
	})
}

// Run executes the build command.
func (c *BuildCmd) Run(a *app) error {
	res, err := a.open(c.Output)
	if err != nil {
		return err
	}
	defer res.Close()
	return runBuild(a.ctx, res, a.stdout, c.Slugs, c.DryRun)
}

func runBuild(ctx context.Context, res *moduleResources, out io.Writer, slugs []string, dryRun bool) error {
	if res.handlers.build == nil {
		return errors.New("build handler not configured")
	}
	return res.handlers.build.Execute(ctx, staticcmd.BuildSiteCommand{
		Slugs:  slugs,
		DryRun: dryRun,
		ResultCallback: func(env staticcmd.ResultEnvelope) {
			printBuildSummary(out, env.Result)
		},
	})
}

func printBuildSummary(out io.Writer, result *generator.BuildResult) {
	if result == nil {
		return
	}
	label := "built"
	if result.DryRun {
		label = "dry run"
	}
	fmt.Fprintf(out, "%s: %d pages, %d assets in %s\n", label, result.PagesBuilt, result.AssetsCopied, result.Duration)
	for _, page := range result.Rendered {
		marker := ""
		if page.Draft {
			marker = " [draft]"
		}
		fmt.Fprintf(out, "  %s -> %s%s\n", page.Route, page.Output, marker)
	}
}

// Run executes the paths command.
func (c *PathsCmd) Run(a *app) error {
	res, err := a.open("")
	if err != nil {
		return err
	}
	defer res.Close()
	if res.handlers.paths == nil {
		return errors.New("paths handler not configured")
	}

	var printErr error
	err = res.handlers.paths.Execute(a.ctx, staticcmd.ListPathsCommand{
		Callback: func(paths generator.StaticPaths) {
			if c.JSON {
				printErr = printJSON(a.stdout, paths)
				return
			}
			for _, slug := range paths.Slugs {
				fmt.Fprintln(a.stdout, slug)
			}
		},
	})
	if err != nil {
		return err
	}
	return printErr
}

// Run executes the preview command.
func (c *PreviewCmd) Run(a *app) error {
	res, err := a.open("")
	if err != nil {
		return err
	}
	defer res.Close()
	if res.handlers.preview == nil {
		return errors.New("preview handler not configured")
	}
	return res.handlers.preview.Execute(a.ctx, staticcmd.PreviewPostCommand{Slug: c.Slug, Writer: a.stdout})
}

// Run executes the clean command.
func (c *CleanCmd) Run(a *app) error {
	res, err := a.open("")
	if err != nil {
		return err
	}
	defer res.Close()
	if res.handlers.clean == nil {
		return errors.New("clean handler not configured")
	}
	if err := res.handlers.clean.Execute(a.ctx, staticcmd.CleanSiteCommand{}); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "cleaned output directory")
	return nil
}

// Run executes the import command.
func (c *ImportCmd) Run(a *app) error {
	res, err := a.open("")
	if err != nil {
		return err
	}
	defer res.Close()
	if res.handlers.importer == nil {
		return errors.New("import handler not configured")
	}
	handler, err := res.handlers.importer()
	if err != nil {
		return err
	}
	return handler.Execute(a.ctx, postscmd.ImportPostsCommand{
		DryRun: c.DryRun,
		ResultCallback: func(result posts.SyncResult) {
			fmt.Fprintf(a.stdout, "imported %d posts, skipped %d\n", result.Copied, result.Skipped)
		},
	})
}

// Run executes the watch command. Each rebuild reopens the module so that
// configuration edits take effect.
func (c *WatchCmd) Run(a *app) error {
	res, err := a.open(c.Output)
	if err != nil {
		return err
	}
	logger := res.logger
	if logger == nil {
		logger = logging.NoOp()
	}
	paths := res.watchPaths
	if err := runBuild(a.ctx, res, a.stdout, nil, false); err != nil {
		logger.Error("watch.initial_build_failed", "error", err)
	}
	_ = res.Close()

	rebuild := func(ctx context.Context) error {
		next, err := a.open(c.Output)
		if err != nil {
			return err
		}
		defer next.Close()
		return runBuild(ctx, next, a.stdout, nil, false)
	}

	watcher, err := watch.New(watch.Config{Paths: absolutePaths(paths)}, rebuild, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "watching %s\n", strings.Join(paths, ", "))
	if err := watcher.Run(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func absolutePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}

func printJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
