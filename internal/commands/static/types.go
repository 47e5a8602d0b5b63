package staticcmd

import (
	"io"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/posts"
)

const (
	buildSiteMessageType   = "blog.static.build"
	previewPostMessageType = "blog.static.preview"
	listPathsMessageType   = "blog.static.paths"
	cleanSiteMessageType   = "blog.static.clean"
)

// ResultCallback receives build results produced by generator operations. The callback is optional
// and is invoked synchronously from the handler when a BuildResult is available.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of a static command execution that generated a BuildResult.
type ResultEnvelope struct {
	Result   *generator.BuildResult
	Metadata map[string]any
}

// BuildSiteCommand executes a generator build, optionally narrowed to slugs.
type BuildSiteCommand struct {
	Slugs          []string       `json:"slugs,omitempty"`
	DryRun         bool           `json:"dry_run,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate ensures every requested slug is well-formed.
func (m BuildSiteCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Slugs, validation.Each(validation.By(validSlug))),
	)
}

// PreviewPostCommand renders a single post to Writer without touching the output directory.
type PreviewPostCommand struct {
	Slug   string    `json:"slug"`
	Writer io.Writer `json:"-"`
}

// Type implements command.Message.
func (PreviewPostCommand) Type() string { return previewPostMessageType }

// Validate requires a valid slug and a writer.
func (m PreviewPostCommand) Validate() error {
	errs := validation.Errors{}
	if err := validation.Validate(m.Slug, validation.Required, validation.By(validSlug)); err != nil {
		errs["slug"] = err
	}
	if m.Writer == nil {
		errs["writer"] = validation.NewError("blog.static.preview.writer_required", "writer is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// PathsCallback receives the declared paths.
type PathsCallback func(generator.StaticPaths)

// ListPathsCommand enumerates the paths a build would declare.
type ListPathsCommand struct {
	Callback PathsCallback `json:"-"`
}

// Type implements command.Message.
func (ListPathsCommand) Type() string { return listPathsMessageType }

// Validate requires a callback; listing paths without one has no effect.
func (m ListPathsCommand) Validate() error {
	if m.Callback == nil {
		return validation.Errors{
			"callback": validation.NewError("blog.static.paths.callback_required", "callback is required"),
		}
	}
	return nil
}

// CleanSiteCommand removes the output directory.
type CleanSiteCommand struct{}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (CleanSiteCommand) Validate() error { return nil }

func validSlug(value any) error {
	slug, _ := value.(string)
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return validation.NewError("blog.static.slug_required", "slug must not be empty")
	}
	if !posts.IsValidSlug(slug) {
		return validation.NewError("blog.static.slug_invalid", "slug must be lowercase letters, digits and dashes")
	}
	return nil
}
