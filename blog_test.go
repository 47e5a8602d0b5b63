package blog_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	blog "github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/internal/commands"
	staticcmd "github.com/goliatone/go-blog/internal/commands/static"
	"github.com/goliatone/go-blog/internal/generator"
)

func newModule(t *testing.T, env string, postsFS fstest.MapFS) (*blog.Module, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out")
	cfg := blog.DefaultConfig()
	cfg.Environment = env
	cfg.Generator.OutputDir = out
	cfg.Logging.Level = "error"

	module, err := blog.New(cfg, blog.WithPostsFS(postsFS), blog.WithAssetsFS(fstest.MapFS{}))
	if err != nil {
		t.Fatalf("blog.New: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })
	return module, out
}

func samplePosts() fstest.MapFS {
	return fstest.MapFS{
		"hello-world.md": &fstest.MapFile{Data: []byte("---\ntitle: Hello World\n---\nIntro.\n\n```go\nfunc main() {}\n```\n")},
		"draft-post.md":  &fstest.MapFile{Data: []byte("---\ntitle: Not Yet\ndraft: true\n---\nPending.\n")},
	}
}

func TestModuleBuildHandlerProduction(t *testing.T) {
	module, out := newModule(t, blog.EnvironmentProduction, samplePosts())

	var result *generator.BuildResult
	err := module.BuildHandler().Execute(context.Background(), staticcmd.BuildSiteCommand{
		ResultCallback: func(env staticcmd.ResultEnvelope) { result = env.Result },
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result == nil || result.PagesBuilt != 1 {
		t.Fatalf("expected one page, got %#v", result)
	}
	if !slices.Equal(result.Paths.Slugs, []string{"hello-world"}) {
		t.Fatalf("unexpected paths: %v", result.Paths.Slugs)
	}

	page, err := os.ReadFile(filepath.Join(out, "blog", "hello-world", "index.html"))
	if err != nil {
		t.Fatalf("read page: %v", err)
	}
	html := string(page)
	if !strings.Contains(html, "<h1>Hello World</h1>") {
		t.Fatalf("expected title heading, got %s", html)
	}
	if !strings.Contains(html, `class="language-go"`) {
		t.Fatalf("expected highlighted code block, got %s", html)
	}
	if _, err := os.Stat(filepath.Join(out, "paths.json")); err != nil {
		t.Fatalf("expected paths manifest: %v", err)
	}
}

func TestModulePreviewMarksDrafts(t *testing.T) {
	module, _ := newModule(t, blog.EnvironmentDevelopment, samplePosts())

	var buf bytes.Buffer
	err := module.PreviewHandler().Execute(context.Background(), staticcmd.PreviewPostCommand{Slug: "draft-post", Writer: &buf})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !strings.Contains(buf.String(), "[DRAFT]") {
		t.Fatalf("expected draft marker, got %s", buf.String())
	}
}

func TestModulePreviewMissingPost(t *testing.T) {
	module, _ := newModule(t, blog.EnvironmentDevelopment, samplePosts())

	err := module.PreviewHandler().Execute(context.Background(), staticcmd.PreviewPostCommand{Slug: "nope", Writer: &bytes.Buffer{}})
	if err == nil {
		t.Fatal("expected error for missing post")
	}
	if code := commands.TextCode(err); code != "POST_NOT_FOUND" {
		t.Fatalf("expected POST_NOT_FOUND, got %q", code)
	}
}

func TestModulePathsHandlerDevelopmentIncludesDrafts(t *testing.T) {
	module, _ := newModule(t, blog.EnvironmentDevelopment, samplePosts())

	var paths generator.StaticPaths
	err := module.PathsHandler().Execute(context.Background(), staticcmd.ListPathsCommand{
		Callback: func(p generator.StaticPaths) { paths = p },
	})
	if err != nil {
		t.Fatalf("paths: %v", err)
	}
	if len(paths.Slugs) != 2 || paths.Fallback != generator.FallbackNone {
		t.Fatalf("unexpected paths: %#v", paths)
	}
}

func TestModuleImportHandlerRequiresDatabase(t *testing.T) {
	module, _ := newModule(t, blog.EnvironmentDevelopment, samplePosts())

	if _, err := module.ImportHandler(); !errors.Is(err, blog.ErrStorageDSNRequired) {
		t.Fatalf("expected ErrStorageDSNRequired, got %v", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := blog.DefaultConfig()
	cfg.Generator.OutputDir = ""
	if _, err := blog.New(cfg); !errors.Is(err, blog.ErrGeneratorOutputDirRequired) {
		t.Fatalf("expected ErrGeneratorOutputDirRequired, got %v", err)
	}
}
