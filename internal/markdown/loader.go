package markdown

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// DefaultPattern matches the post file extensions the loader accepts when no
// pattern is configured.
const DefaultPattern = "*.md,*.mdx"

// LoaderConfig configures how post files are discovered.
type LoaderConfig struct {
	// Pattern is a comma separated glob list. Defaults to DefaultPattern.
	Pattern string
	// Recursive controls whether sub-directories are traversed.
	Recursive bool
}

// Loader reads post source files from a filesystem.
type Loader struct {
	fs        fs.FS
	patterns  []string
	recursive bool
}

// NewLoader constructs a Loader over filesystem.
func NewLoader(filesystem fs.FS, cfg LoaderConfig) *Loader {
	return &Loader{
		fs:        filesystem,
		patterns:  splitPatterns(cfg.Pattern),
		recursive: cfg.Recursive,
	}
}

// LoadFile reads and parses a single document. name is slash separated and
// relative to the loader root.
func (l *Loader) LoadFile(ctx context.Context, name string) (*interfaces.SourceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name = path.Clean(strings.TrimPrefix(name, "/"))
	data, err := fs.ReadFile(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("markdown loader read %s: %w", name, err)
	}

	info, err := fs.Stat(l.fs, name)
	if err != nil {
		return nil, fmt.Errorf("markdown loader stat %s: %w", name, err)
	}

	return BuildDocument(name, data, info.ModTime())
}

// LoadDirectory returns every matching document under dir ordered by path.
func (l *Loader) LoadDirectory(ctx context.Context, dir string, opts interfaces.LoadOptions) ([]*interfaces.SourceDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root := path.Clean(strings.TrimPrefix(dir, "/"))
	if root == "" {
		root = "."
	}

	recursive := l.recursive
	if opts.Recursive != nil {
		recursive = *opts.Recursive
	}
	patterns := l.patterns
	if strings.TrimSpace(opts.Pattern) != "" {
		patterns = splitPatterns(opts.Pattern)
	}

	var docs []*interfaces.SourceDocument
	walkErr := fs.WalkDir(l.fs, root, func(current string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if current != root && (!recursive || strings.HasPrefix(d.Name(), ".")) {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !matchesAny(patterns, current) {
			return nil
		}

		doc, err := l.LoadFile(ctx, current)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].FilePath < docs[j].FilePath
	})
	return docs, nil
}

func splitPatterns(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		raw = DefaultPattern
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, strings.ReplaceAll(trimmed, "**/", ""))
		}
	}
	return out
}

func matchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		target := path.Base(name)
		if strings.Contains(pattern, "/") {
			target = name
		}
		if ok, err := path.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}
