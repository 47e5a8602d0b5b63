package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	blog "github.com/goliatone/go-blog"
	postscmd "github.com/goliatone/go-blog/internal/commands/posts"
	staticcmd "github.com/goliatone/go-blog/internal/commands/static"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/posts"
)

type stubHandlers struct {
	build    *stubBuildHandler
	preview  *stubPreviewHandler
	paths    *stubPathsHandler
	clean    *stubCleanHandler
	importer *stubImportHandler
	opts     []moduleOptions
}

type stubBuildHandler struct {
	last staticcmd.BuildSiteCommand
	err  error
}

func (s *stubBuildHandler) Execute(ctx context.Context, msg staticcmd.BuildSiteCommand) error {
	s.last = msg
	if s.err != nil {
		return s.err
	}
	if msg.ResultCallback != nil {
		msg.ResultCallback(staticcmd.ResultEnvelope{
			Result: &generator.BuildResult{
				PagesBuilt: 1,
				DryRun:     msg.DryRun,
				Rendered: []generator.RenderedPage{
					{Slug: "hello", Route: "/blog/hello/", Output: "blog/hello/index.html"},
				},
			},
			Metadata: map[string]any{"operation": "build"},
		})
	}
	return nil
}

type stubPreviewHandler struct {
	last staticcmd.PreviewPostCommand
}

func (s *stubPreviewHandler) Execute(ctx context.Context, msg staticcmd.PreviewPostCommand) error {
	s.last = msg
	if msg.Slug != "hello" {
		return &posts.NotFoundError{Slug: msg.Slug}
	}
	_, err := io.WriteString(msg.Writer, "<h1>Hello</h1>")
	return err
}

type stubPathsHandler struct{}

func (s *stubPathsHandler) Execute(ctx context.Context, msg staticcmd.ListPathsCommand) error {
	msg.Callback(generator.StaticPaths{Slugs: []string{"hello", "world"}, Fallback: generator.FallbackNone})
	return nil
}

type stubCleanHandler struct {
	calls int
}

func (s *stubCleanHandler) Execute(ctx context.Context, msg staticcmd.CleanSiteCommand) error {
	s.calls++
	return nil
}

type stubImportHandler struct {
	last postscmd.ImportPostsCommand
}

func (s *stubImportHandler) Execute(ctx context.Context, msg postscmd.ImportPostsCommand) error {
	s.last = msg
	if msg.ResultCallback != nil {
		msg.ResultCallback(posts.SyncResult{Copied: 2, Slugs: []string{"hello", "world"}})
	}
	return nil
}

func withStubModule(t *testing.T) *stubHandlers {
	t.Helper()
	original := moduleBuilder
	stubs := &stubHandlers{
		build:    &stubBuildHandler{},
		preview:  &stubPreviewHandler{},
		paths:    &stubPathsHandler{},
		clean:    &stubCleanHandler{},
		importer: &stubImportHandler{},
	}

	moduleBuilder = func(opts moduleOptions) (*moduleResources, error) {
		stubs.opts = append(stubs.opts, opts)
		return &moduleResources{
			handlers: handlerSet{
				build:   stubs.build,
				preview: stubs.preview,
				paths:   stubs.paths,
				clean:   stubs.clean,
				importer: func() (importHandler, error) {
					return stubs.importer, nil
				},
			},
		}, nil
	}

	t.Cleanup(func() { moduleBuilder = original })
	return stubs
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRunBuild_UsesCommandHandler(t *testing.T) {
	stubs := withStubModule(t)

	out, err := runCLI(t, "--config", "site.yaml", "--environment", "production", "build", "--dry-run", "-o", "dist", "hello", "world")
	if err != nil {
		t.Fatalf("run build: %v", err)
	}

	got := stubs.build.last
	if !got.DryRun {
		t.Fatal("expected dry run to propagate")
	}
	if !slices.Equal(got.Slugs, []string{"hello", "world"}) {
		t.Fatalf("unexpected slugs: %v", got.Slugs)
	}
	opts := stubs.opts[0]
	if opts.ConfigPath != "site.yaml" || opts.Environment != "production" || opts.OutputDir != "dist" {
		t.Fatalf("unexpected module options: %#v", opts)
	}
	if !strings.Contains(out, "dry run: 1 pages") || !strings.Contains(out, "/blog/hello/") {
		t.Fatalf("expected build summary, got %q", out)
	}
}

func TestRunBuild_PropagatesErrors(t *testing.T) {
	stubs := withStubModule(t)
	stubs.build.err = errors.New("boom")

	if _, err := runCLI(t, "build"); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected propagated error, got %v", err)
	}
}

func TestRunPaths(t *testing.T) {
	withStubModule(t)

	out, err := runCLI(t, "paths")
	if err != nil {
		t.Fatalf("run paths: %v", err)
	}
	if out != "hello\nworld\n" {
		t.Fatalf("unexpected paths output: %q", out)
	}

	out, err = runCLI(t, "paths", "--json")
	if err != nil {
		t.Fatalf("run paths --json: %v", err)
	}
	if !strings.Contains(out, `"fallback": "none"`) {
		t.Fatalf("expected fallback in json output, got %q", out)
	}
}

func TestRunPreview(t *testing.T) {
	stubs := withStubModule(t)

	out, err := runCLI(t, "preview", "hello")
	if err != nil {
		t.Fatalf("run preview: %v", err)
	}
	if out != "<h1>Hello</h1>" {
		t.Fatalf("unexpected preview output: %q", out)
	}
	if stubs.preview.last.Slug != "hello" {
		t.Fatalf("unexpected slug: %q", stubs.preview.last.Slug)
	}

	if _, err := runCLI(t, "preview", "missing"); !posts.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRunClean(t *testing.T) {
	stubs := withStubModule(t)

	if _, err := runCLI(t, "clean"); err != nil {
		t.Fatalf("run clean: %v", err)
	}
	if stubs.clean.calls != 1 {
		t.Fatalf("expected clean handler called once, got %d", stubs.clean.calls)
	}
}

func TestRunImport(t *testing.T) {
	stubs := withStubModule(t)

	out, err := runCLI(t, "import", "--dry-run")
	if err != nil {
		t.Fatalf("run import: %v", err)
	}
	if !stubs.importer.last.DryRun {
		t.Fatal("expected dry run to propagate")
	}
	if !strings.Contains(out, "imported 2 posts") {
		t.Fatalf("unexpected import output: %q", out)
	}
}

func TestRun_ErrorsWhenHandlersMissing(t *testing.T) {
	original := moduleBuilder
	moduleBuilder = func(opts moduleOptions) (*moduleResources, error) {
		return &moduleResources{}, nil
	}
	t.Cleanup(func() { moduleBuilder = original })

	if _, err := runCLI(t, "build"); err == nil || !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("expected handler error, got %v", err)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	withStubModule(t)
	if _, err := runCLI(t, "unknown"); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRun_NoArgs(t *testing.T) {
	withStubModule(t)
	if _, err := runCLI(t); err == nil {
		t.Fatal("expected error without a command")
	}
}

func TestRunBuild_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	postsDir := filepath.Join(dir, "posts")
	assetDir := filepath.Join(dir, "public")
	outDir := filepath.Join(dir, "out")
	for _, d := range []string{postsDir, assetDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	if err := os.WriteFile(filepath.Join(postsDir, "hello.md"), []byte("---\ntitle: Hello\n---\nSome text.\n"), 0o644); err != nil {
		t.Fatalf("write post: %v", err)
	}
	if err := os.WriteFile(filepath.Join(postsDir, "wip.md"), []byte("---\ntitle: WIP\ndraft: true\n---\nLater.\n"), 0o644); err != nil {
		t.Fatalf("write draft: %v", err)
	}
	configPath := filepath.Join(dir, "blog.yaml")
	config := "environment: production\n" +
		"content:\n  posts_dir: " + postsDir + "\n" +
		"markdown:\n  asset_dir: " + assetDir + "\n" +
		"generator:\n  output_dir: " + outDir + "\n" +
		"logging:\n  level: error\n"
	if err := os.WriteFile(configPath, []byte(config), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := runCLI(t, "-c", configPath, "--env-file", filepath.Join(dir, "missing.env"), "build")
	if err != nil {
		t.Fatalf("run build: %v", err)
	}
	if !strings.Contains(out, "built: 1 pages") {
		t.Fatalf("unexpected summary: %q", out)
	}
	if _, err := os.Stat(filepath.Join(outDir, "blog", "hello", "index.html")); err != nil {
		t.Fatalf("expected hello page: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "blog", "wip", "index.html")); !os.IsNotExist(err) {
		t.Fatalf("expected draft to be skipped in production, got %v", err)
	}
}

func TestWatchPathsForNormalisesProvider(t *testing.T) {
	cfg := blog.Config{}
	cfg.Markdown.AssetDir = "public"
	cfg.Content.PostsDir = "posts"

	for _, provider := range []string{" Database ", "DATABASE", "database"} {
		cfg.Content.Provider = provider
		if got := watchPathsFor(cfg, ""); slices.Contains(got, "posts") {
			t.Fatalf("provider %q: expected posts dir skipped, got %v", provider, got)
		}
	}

	cfg.Content.Provider = "file"
	got := watchPathsFor(cfg, "blog.yaml")
	if !slices.Equal(got, []string{"public", "posts", "blog.yaml"}) {
		t.Fatalf("unexpected watch paths %v", got)
	}
}
