package markdown

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ImageSizeStageName identifies the image dimension stage in compiled documents.
const ImageSizeStageName = "image-size"

// ErrImageNotFound is recorded when a local image referenced by a post does
// not exist under the asset directory.
var ErrImageNotFound = errors.New("markdown: image not found")

// ImageSizeStage sets width and height on image nodes whose source is a local
// file under Dir. A leading slash in the source is relative to Dir, matching
// how the asset directory is served from the site root.
type ImageSizeStage struct {
	Dir string
	// FS overrides the filesystem rooted at Dir. Used by tests.
	FS fs.FS
}

func (s *ImageSizeStage) Name() string { return ImageSizeStageName }

func (s *ImageSizeStage) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&imageSizeTransformer{fsys: s.filesystem()}, 500),
	))
}

func (s *ImageSizeStage) filesystem() fs.FS {
	if s.FS != nil {
		return s.FS
	}
	dir := s.Dir
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	return os.DirFS(dir)
}

type imageSizeTransformer struct {
	fsys fs.FS
}

func (t *imageSizeTransformer) Transform(doc *ast.Document, _ text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}
		if _, set := img.AttributeString("width"); set {
			return ast.WalkContinue, nil
		}
		if _, set := img.AttributeString("height"); set {
			return ast.WalkContinue, nil
		}

		name, local := localImagePath(string(img.Destination))
		if !local {
			return ast.WalkContinue, nil
		}
		width, height, err := t.dimensions(name)
		switch {
		case err == nil:
			img.SetAttributeString("width", []byte(strconv.Itoa(width)))
			img.SetAttributeString("height", []byte(strconv.Itoa(height)))
		case errors.Is(err, ErrImageNotFound):
			recordStageError(pc, err)
		}
		return ast.WalkContinue, nil
	})
}

// dimensions decodes only the image header. Formats without a registered
// decoder return image.ErrFormat and are left unsized.
func (t *imageSizeTransformer) dimensions(name string) (int, int, error) {
	file, err := t.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, 0, fmt.Errorf("%w: %s", ErrImageNotFound, name)
		}
		return 0, 0, err
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// localImagePath maps an image destination to a path inside the asset
// filesystem. Remote, protocol relative and data URLs are not local.
func localImagePath(dest string) (string, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "//") {
		return "", false
	}
	parsed, err := url.Parse(dest)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return "", false
	}
	name := path.Clean(strings.TrimPrefix(parsed.Path, "/"))
	if name == "." || !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}
