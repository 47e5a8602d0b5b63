package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type writeCategory string

const (
	categoryPage     writeCategory = "page"
	categoryAsset    writeCategory = "asset"
	categorySitemap  writeCategory = "sitemap"
	categoryRobots   writeCategory = "robots"
	categoryFeed     writeCategory = "feed"
	categoryManifest writeCategory = "manifest"
)

// writeFileRequest describes a file write routed through the artifact writer.
// When Checksum is set and the file on disk already hashes to it, the write
// is skipped so unchanged outputs keep their modification time.
type writeFileRequest struct {
	Path     string
	Content  io.Reader
	Category writeCategory
	Checksum string
}

// artifactWriter abstracts where generator outputs land. Paths are slash
// separated and relative to the output root.
type artifactWriter interface {
	EnsureDir(ctx context.Context, path string) error
	WriteFile(ctx context.Context, req writeFileRequest) error
	Clean(ctx context.Context) error
}

func newArtifactWriter(outputDir string, dryRun bool) artifactWriter {
	if dryRun {
		return noopWriter{}
	}
	return &dirWriter{root: outputDir}
}

type dirWriter struct {
	root string
}

func (w *dirWriter) EnsureDir(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(path) == "" || path == "." {
		return os.MkdirAll(w.root, 0o755)
	}
	target, err := w.resolve(path)
	if err != nil {
		return err
	}
	return os.MkdirAll(target, 0o755)
}

func (w *dirWriter) WriteFile(ctx context.Context, req writeFileRequest) error {
	if req.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	if strings.TrimSpace(req.Path) == "" {
		return errors.New("generator: write requires path")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := w.resolve(req.Path)
	if err != nil {
		return err
	}
	if req.Checksum != "" && fileChecksum(target) == req.Checksum {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	file, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, req.Content); err != nil {
		_ = file.Close()
		return fmt.Errorf("generator: write %s %s: %w", req.Category, req.Path, err)
	}
	return file.Close()
}

func (w *dirWriter) Clean(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(w.root) == "" {
		return errors.New("generator: clean requires an output directory")
	}
	return os.RemoveAll(w.root)
}

func (w *dirWriter) resolve(rel string) (string, error) {
	rel = strings.TrimPrefix(rel, "/")
	if !fs.ValidPath(rel) {
		return "", fmt.Errorf("generator: invalid output path %q", rel)
	}
	return filepath.Join(w.root, filepath.FromSlash(rel)), nil
}

func fileChecksum(target string) string {
	file, err := os.Open(target)
	if err != nil {
		return ""
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return ""
	}
	return hex.EncodeToString(hash.Sum(nil))
}

type noopWriter struct{}

func (noopWriter) EnsureDir(context.Context, string) error { return nil }

func (noopWriter) WriteFile(_ context.Context, req writeFileRequest) error {
	if req.Content == nil {
		return errors.New("generator: write requires content reader")
	}
	return nil
}

func (noopWriter) Clean(context.Context) error { return nil }
