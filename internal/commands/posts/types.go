package postscmd

import "github.com/goliatone/go-blog/internal/posts"

const importPostsMessageType = "blog.posts.import"

// ImportCallback receives the outcome of an import.
type ImportCallback func(posts.SyncResult)

// ImportPostsCommand copies every post from the posts directory into the
// database store.
type ImportPostsCommand struct {
	DryRun         bool           `json:"dry_run,omitempty"`
	ResultCallback ImportCallback `json:"-"`
}

// Type implements command.Message.
func (ImportPostsCommand) Type() string { return importPostsMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (ImportPostsCommand) Validate() error { return nil }
