package render

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ImageProps is what the image component receives for every img element in
// a post body. Options carries the Markdown alt text verbatim.
type ImageProps struct {
	Src     string
	Width   string
	Height  string
	Options string
	// Inline is set when the img sits in phrasing content, where a figure
	// is not allowed.
	Inline bool
}

// ImageOptions is the parsed form of ImageProps.Options.
type ImageOptions struct {
	Alt     string
	Caption string
	Class   string
	Loading string
	Extra   map[string]string
}

// ParseImageOptions reads "key=value" pairs separated by ";". A segment
// without "=" is taken as the alt text, so plain alt text keeps working.
func ParseImageOptions(raw string) ImageOptions {
	opts := ImageOptions{}
	for _, segment := range strings.Split(raw, ";") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, value, found := strings.Cut(segment, "=")
		if !found {
			if opts.Alt == "" {
				opts.Alt = segment
			} else {
				opts.Alt += "; " + segment
			}
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch key {
		case "alt":
			opts.Alt = value
		case "caption":
			opts.Caption = value
		case "class":
			opts.Class = value
		case "loading":
			opts.Loading = value
		default:
			if opts.Extra == nil {
				opts.Extra = map[string]string{}
			}
			opts.Extra[key] = value
		}
	}
	return opts
}

// MarkdownImage renders a figure with the image and an optional caption.
// Inline images get span wrappers instead. When the options carry no alt
// text the caption doubles as alt.
func MarkdownImage(props ImageProps) *html.Node {
	opts := ParseImageOptions(props.Options)

	alt := opts.Alt
	if alt == "" {
		alt = opts.Caption
	}
	loading := opts.Loading
	if loading == "" {
		loading = "lazy"
	}

	img := element(atom.Img,
		attr("src", props.Src),
		attr("alt", alt),
		attr("loading", loading),
		attr("decoding", "async"),
	)
	if props.Width != "" {
		img.Attr = append(img.Attr, attr("width", props.Width))
	}
	if props.Height != "" {
		img.Attr = append(img.Attr, attr("height", props.Height))
	}

	class := "markdown-image"
	if opts.Class != "" {
		class += " " + opts.Class
	}
	wrapper, caption := element(atom.Figure, attr("class", class)), element(atom.Figcaption)
	if props.Inline {
		wrapper = element(atom.Span, attr("class", class))
		caption = element(atom.Span, attr("class", "markdown-image-caption"))
	}
	wrapper.AppendChild(img)

	if opts.Caption != "" {
		caption.AppendChild(&html.Node{Type: html.TextNode, Data: opts.Caption})
		wrapper.AppendChild(caption)
	}
	return wrapper
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func attr(key, value string) html.Attribute {
	return html.Attribute{Key: key, Val: value}
}
