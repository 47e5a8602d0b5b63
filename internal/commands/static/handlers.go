package staticcmd

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// ErrGeneratorRequired is returned when a handler runs without a generator service.
var ErrGeneratorRequired = errors.New("staticcmd: generator service is required")

// BuildSiteHandler orchestrates generator builds using the shared command handler foundation.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler constructs a handler wired to the provided generator service.
func NewBuildSiteHandler(service generator.Service, logger interfaces.Logger, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		if service == nil {
			return ErrGeneratorRequired
		}
		result, err := service.Build(ctx, generator.BuildOptions{
			Slugs:  normalizeSlugs(msg.Slugs),
			DryRun: msg.DryRun,
		})
		if err != nil {
			return err
		}
		invokeCallback(msg.ResultCallback, ResultEnvelope{
			Result: result,
			Metadata: map[string]any{
				"operation": "build",
			},
		})
		return nil
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](ensureLogger(logger)),
		commands.WithOperation[BuildSiteCommand]("static.build"),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			fields := map[string]any{}
			if len(msg.Slugs) > 0 {
				fields["slugs"] = len(msg.Slugs)
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// PreviewPostHandler renders one post to the command's writer.
type PreviewPostHandler struct {
	inner *commands.Handler[PreviewPostCommand]
}

// NewPreviewPostHandler constructs a preview handler.
func NewPreviewPostHandler(service generator.Service, logger interfaces.Logger, opts ...commands.HandlerOption[PreviewPostCommand]) *PreviewPostHandler {
	exec := func(ctx context.Context, msg PreviewPostCommand) error {
		if service == nil {
			return ErrGeneratorRequired
		}
		return service.Preview(ctx, strings.TrimSpace(msg.Slug), msg.Writer)
	}

	handlerOpts := []commands.HandlerOption[PreviewPostCommand]{
		commands.WithLogger[PreviewPostCommand](ensureLogger(logger)),
		commands.WithOperation[PreviewPostCommand]("static.preview"),
		commands.WithMessageFields(func(msg PreviewPostCommand) map[string]any {
			return map[string]any{"slug": msg.Slug}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PreviewPostHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[PreviewPostCommand].
func (h *PreviewPostHandler) Execute(ctx context.Context, msg PreviewPostCommand) error {
	return h.inner.Execute(ctx, msg)
}

// ListPathsHandler hands the declared paths to the command callback.
type ListPathsHandler struct {
	inner *commands.Handler[ListPathsCommand]
}

// NewListPathsHandler constructs a handler that enumerates declared paths.
func NewListPathsHandler(service generator.Service, logger interfaces.Logger, opts ...commands.HandlerOption[ListPathsCommand]) *ListPathsHandler {
	exec := func(ctx context.Context, msg ListPathsCommand) error {
		if service == nil {
			return ErrGeneratorRequired
		}
		paths, err := service.Paths(ctx)
		if err != nil {
			return err
		}
		msg.Callback(paths)
		return nil
	}

	handlerOpts := []commands.HandlerOption[ListPathsCommand]{
		commands.WithLogger[ListPathsCommand](ensureLogger(logger)),
		commands.WithOperation[ListPathsCommand]("static.paths"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ListPathsHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ListPathsCommand].
func (h *ListPathsHandler) Execute(ctx context.Context, msg ListPathsCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CleanSiteHandler clears generator output.
type CleanSiteHandler struct {
	inner *commands.Handler[CleanSiteCommand]
}

// NewCleanSiteHandler constructs a handler that cleans generator output.
func NewCleanSiteHandler(service generator.Service, logger interfaces.Logger, opts ...commands.HandlerOption[CleanSiteCommand]) *CleanSiteHandler {
	exec := func(ctx context.Context, msg CleanSiteCommand) error {
		if service == nil {
			return ErrGeneratorRequired
		}
		return service.Clean(ctx)
	}

	handlerOpts := []commands.HandlerOption[CleanSiteCommand]{
		commands.WithLogger[CleanSiteCommand](ensureLogger(logger)),
		commands.WithOperation[CleanSiteCommand]("static.clean"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CleanSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CleanSiteCommand].
func (h *CleanSiteHandler) Execute(ctx context.Context, msg CleanSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

func normalizeSlugs(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, slug := range values {
		trimmed := strings.TrimSpace(slug)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func invokeCallback(cb ResultCallback, envelope ResultEnvelope) {
	if cb == nil {
		return
	}
	cb(envelope)
}

func ensureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
