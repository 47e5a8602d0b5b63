package postscmd

import (
	"context"
	"errors"

	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/posts"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// ErrStoresRequired is returned when the import runs without both stores.
var ErrStoresRequired = errors.New("postscmd: source and destination stores are required")

// ImportPostsHandler syncs posts from one store into another.
type ImportPostsHandler struct {
	inner *commands.Handler[ImportPostsCommand]
}

// NewImportPostsHandler constructs a handler copying from src into dst.
func NewImportPostsHandler(src posts.Repository, dst posts.Writer, logger interfaces.Logger, opts ...commands.HandlerOption[ImportPostsCommand]) *ImportPostsHandler {
	if logger == nil {
		logger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ImportPostsCommand) error {
		if src == nil || dst == nil {
			return ErrStoresRequired
		}
		result, err := posts.Sync(ctx, src, dst, msg.DryRun)
		if err != nil {
			return err
		}
		logger.Info("posts.import.complete", "copied", result.Copied, "skipped", result.Skipped)
		if msg.ResultCallback != nil {
			msg.ResultCallback(result)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportPostsCommand]{
		commands.WithLogger[ImportPostsCommand](logger),
		commands.WithOperation[ImportPostsCommand]("posts.import"),
		commands.WithMessageFields(func(msg ImportPostsCommand) map[string]any {
			if msg.DryRun {
				return map[string]any{"dry_run": true}
			}
			return nil
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportPostsHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ImportPostsCommand].
func (h *ImportPostsHandler) Execute(ctx context.Context, msg ImportPostsCommand) error {
	return h.inner.Execute(ctx, msg)
}
