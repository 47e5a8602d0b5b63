package posts

import (
	"context"
	"fmt"
)

// SyncResult summarises a Sync run.
type SyncResult struct {
	Copied  int
	Skipped int
	Slugs   []string
}

// Sync copies every post from src, content included, into dst. With dryRun
// set nothing is written and Copied counts what would have been written.
func Sync(ctx context.Context, src Repository, dst Writer, dryRun bool) (SyncResult, error) {
	var result SyncResult
	if src == nil || dst == nil {
		return result, fmt.Errorf("posts: sync requires a source and a destination")
	}

	index, err := src.List(ctx)
	if err != nil {
		return result, fmt.Errorf("posts: sync list: %w", err)
	}

	for _, entry := range index {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		record, err := src.GetBySlug(ctx, entry.Slug)
		if err != nil {
			if IsNotFound(err) {
				result.Skipped++
				continue
			}
			return result, fmt.Errorf("posts: sync lookup %s: %w", entry.Slug, err)
		}
		if !dryRun {
			if _, err := dst.Save(ctx, record); err != nil {
				return result, fmt.Errorf("posts: sync save %s: %w", entry.Slug, err)
			}
		}
		result.Copied++
		result.Slugs = append(result.Slugs, record.Slug)
	}
	return result, nil
}
