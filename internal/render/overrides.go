package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

// DefaultCodeClass is applied to code and pre elements that carry no
// language class.
const DefaultCodeClass = "language-any"

// imageComponent renders the replacement for one img element.
type imageComponent func(ImageProps) *html.Node

// kindOf maps an element to its override kind. Elements without an override
// report false.
func kindOf(n *html.Node) (interfaces.ElementKind, bool) {
	if n.Type != html.ElementNode {
		return "", false
	}
	switch n.DataAtom {
	case atom.Img:
		return interfaces.ElementImage, true
	case atom.Code:
		return interfaces.ElementCode, true
	case atom.Pre:
		return interfaces.ElementPreformatted, true
	default:
		return "", false
	}
}

// applyOverrides walks the children of root and rewrites every element whose
// kind is enabled.
func (r *Renderer) applyOverrides(root *html.Node, enabled map[interfaces.ElementKind]bool) {
	for child := root.FirstChild; child != nil; {
		next := child.NextSibling
		kind, ok := kindOf(child)
		if ok && enabled[kind] {
			next = r.override(kind, child, next)
		}
		if child.Parent != nil && child.FirstChild != nil {
			r.applyOverrides(child, enabled)
		}
		child = next
	}
}

// override applies the rewrite for kind to n and returns the sibling the walk
// continues from.
func (r *Renderer) override(kind interfaces.ElementKind, n, next *html.Node) *html.Node {
	switch kind {
	case interfaces.ElementImage:
		return r.replaceImage(n, next)
	case interfaces.ElementCode, interfaces.ElementPreformatted:
		ensureLanguageClass(n)
	}
	return next
}

func (r *Renderer) replaceImage(img, next *html.Node) *html.Node {
	parent := img.Parent
	if parent == nil {
		return next
	}
	// A paragraph holding nothing but the image is replaced as a whole.
	standalone := parent.DataAtom == atom.P && parent.Parent != nil && onlyElementChild(parent, img)

	props := ImageProps{
		Src:     attrValue(img, "src"),
		Width:   attrValue(img, "width"),
		Height:  attrValue(img, "height"),
		Options: attrValue(img, "alt"),
		Inline:  !standalone && phrasingOnly(parent),
	}
	replacement := r.image(props)
	if replacement == nil {
		return next
	}

	if standalone {
		parent.Parent.InsertBefore(replacement, parent)
		parent.Parent.RemoveChild(parent)
		return next
	}
	parent.InsertBefore(replacement, img)
	parent.RemoveChild(img)
	return next
}

// phrasingOnly reports whether n only admits phrasing content.
func phrasingOnly(n *html.Node) bool {
	switch n.DataAtom {
	case atom.P, atom.A, atom.Span, atom.Em, atom.Strong, atom.B, atom.I, atom.Small,
		atom.Label, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	default:
		return false
	}
}

func ensureLanguageClass(n *html.Node) {
	for i := range n.Attr {
		if n.Attr[i].Key != "class" {
			continue
		}
		if strings.TrimSpace(n.Attr[i].Val) == "" {
			n.Attr[i].Val = DefaultCodeClass
		}
		return
	}
	n.Attr = append(n.Attr, attr("class", DefaultCodeClass))
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func onlyElementChild(parent, target *html.Node) bool {
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c == target {
			continue
		}
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		return false
	}
	return true
}
