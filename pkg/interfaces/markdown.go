package interfaces

import (
	"time"
)

// SourceDocument is a Markdown or MDX file read from disk with its front
// matter split from the body.
type SourceDocument struct {
	FilePath     string
	FrontMatter  FrontMatter
	Body         []byte
	LastModified time.Time
	// Checksum is the SHA-256 digest of the whole file.
	Checksum []byte
}

// FrontMatter models the metadata block at the top of a post file. Unknown
// keys land in Custom.
type FrontMatter struct {
	Title   string         `yaml:"title" json:"title"`
	Slug    string         `yaml:"slug" json:"slug"`
	Summary string         `yaml:"summary" json:"summary"`
	Tags    []string       `yaml:"tags" json:"tags"`
	Author  string         `yaml:"author" json:"author"`
	Date    time.Time      `yaml:"date" json:"date"`
	Draft   bool           `yaml:"draft" json:"draft"`
	Custom  map[string]any `yaml:",inline" json:"custom"`
	Raw     map[string]any `yaml:"-" json:"raw"`
}

// LoadOptions controls directory discovery.
type LoadOptions struct {
	Recursive *bool
	// Pattern is a comma separated list of glob patterns matched against
	// file names, for example "*.md,*.mdx".
	Pattern string
}

// CompileOptions toggles renderer behaviour for the content compiler.
type CompileOptions struct {
	Extensions []string
	HardWraps  bool
	// Unsafe keeps raw HTML embedded in the source.
	Unsafe bool
}

// ElementKind names an element the page renderer substitutes with a custom
// component. The set is closed.
type ElementKind string

const (
	ElementImage        ElementKind = "image"
	ElementCode         ElementKind = "code"
	ElementPreformatted ElementKind = "preformatted"
)

// OverrideKinds lists every element kind the renderer overrides, in the order
// they are documented.
func OverrideKinds() []ElementKind {
	return []ElementKind{ElementImage, ElementCode, ElementPreformatted}
}

// Valid reports whether k is one of the known kinds.
func (k ElementKind) Valid() bool {
	switch k {
	case ElementImage, ElementCode, ElementPreformatted:
		return true
	default:
		return false
	}
}

// CompiledDocument is the serialisable output of the content compiler. It is
// produced at build time and consumed by the page renderer.
type CompiledDocument struct {
	HTML       string        `json:"html"`
	Stages     []string      `json:"stages"`
	Overrides  []ElementKind `json:"overrides"`
	Checksum   string        `json:"checksum"`
	CompiledAt time.Time     `json:"compiled_at"`
}
