package markdown

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// ErrCompile wraps every failure returned by Compile.
var ErrCompile = errors.New("markdown: compile failed")

// Stage is one transformation applied while compiling a document. Stages are
// goldmark extenders and run in the order they are passed to Compile.
type Stage interface {
	goldmark.Extender
	Name() string
}

// Compiler turns raw post content into compiled documents. It holds no
// per-call state; a goldmark engine is built for every Compile call so stages
// never leak between documents.
type Compiler struct {
	opts  interfaces.CompileOptions
	clock func() time.Time
}

// NewCompiler builds a Compiler. Raw HTML is kept only when opts.Unsafe is set.
func NewCompiler(opts interfaces.CompileOptions) *Compiler {
	return &Compiler{opts: opts, clock: time.Now}
}

// Compile converts source into a CompiledDocument applying stages in order.
func (c *Compiler) Compile(ctx context.Context, source []byte, stages ...Stage) (*interfaces.CompiledDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	engine, names := c.engine(stages)
	pctx := parser.NewContext()

	var buf bytes.Buffer
	if err := engine.Convert(source, &buf, parser.WithContext(pctx)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	if err := stageErrors(pctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompile, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum := sha256.Sum256(source)
	return &interfaces.CompiledDocument{
		HTML:       buf.String(),
		Stages:     names,
		Overrides:  interfaces.OverrideKinds(),
		Checksum:   hex.EncodeToString(sum[:]),
		CompiledAt: c.clock().UTC(),
	}, nil
}

func (c *Compiler) engine(stages []Stage) (goldmark.Markdown, []string) {
	rendererOptions := []renderer.Option{}
	if c.opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if c.opts.Unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	extenders := collectExtensions(c.opts.Extensions)
	names := make([]string, 0, len(stages))
	for _, stage := range stages {
		if stage == nil {
			continue
		}
		extenders = append(extenders, stage)
		names = append(names, stage.Name())
	}

	return goldmark.New(
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
		goldmark.WithExtensions(extenders...),
	), names
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Footnote}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		extenders = append(extenders, ext)
	}
	return extenders
}

var stageErrorsKey = parser.NewContextKey()

// recordStageError stores err on the parser context. AST transformers cannot
// return errors, so Compile collects them after conversion.
func recordStageError(pc parser.Context, err error) {
	if pc == nil || err == nil {
		return
	}
	var errs []error
	if existing, ok := pc.Get(stageErrorsKey).([]error); ok {
		errs = existing
	}
	pc.Set(stageErrorsKey, append(errs, err))
}

func stageErrors(pc parser.Context) error {
	errs, _ := pc.Get(stageErrorsKey).([]error)
	return errors.Join(errs...)
}
