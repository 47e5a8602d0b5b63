package markdown

import (
	"bytes"
	"fmt"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/util"
)

// HighlightStageName identifies the syntax highlighting stage.
const HighlightStageName = "highlight"

// DefaultHighlightStyle is the chroma style used when none is configured.
const DefaultHighlightStyle = "github"

// HighlightStage highlights fenced code blocks with chroma CSS classes. The
// wrapper keeps the fence language as a language-* class on both pre and
// code so the page renderer sees it.
type HighlightStage struct {
	Style string
}

func (s *HighlightStage) Name() string { return HighlightStageName }

func (s *HighlightStage) Extend(m goldmark.Markdown) {
	highlighting.NewHighlighting(
		highlighting.WithStyle(s.style()),
		highlighting.WithFormatOptions(
			chromahtml.WithClasses(true),
			chromahtml.PreventSurroundingPre(true),
		),
		highlighting.WithWrapperRenderer(wrapCodeBlock),
	).Extend(m)
}

func (s *HighlightStage) style() string {
	if strings.TrimSpace(s.Style) == "" {
		return DefaultHighlightStyle
	}
	return s.Style
}

func wrapCodeBlock(w util.BufWriter, c highlighting.CodeBlockContext, entering bool) {
	if !entering {
		_, _ = w.WriteString("</code></pre>\n")
		return
	}
	lang, ok := c.Language()
	if !ok || len(bytes.TrimSpace(lang)) == 0 {
		_, _ = w.WriteString("<pre><code>")
		return
	}
	class := "language-" + string(util.EscapeHTML(bytes.TrimSpace(lang)))
	_, _ = fmt.Fprintf(w, `<pre class="%s"><code class="%s">`, class, class)
}

// HighlightCSS returns the chroma stylesheet for style, matching the classes
// emitted by HighlightStage.
func HighlightCSS(style string) ([]byte, error) {
	if strings.TrimSpace(style) == "" {
		style = DefaultHighlightStyle
	}
	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&buf, styles.Get(style)); err != nil {
		return nil, fmt.Errorf("markdown: highlight css: %w", err)
	}
	return buf.Bytes(), nil
}
