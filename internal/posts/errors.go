package posts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPostNotFound  = errors.New("posts: post not found")
	ErrSlugRequired  = errors.New("posts: slug is required")
	ErrSlugInvalid   = errors.New("posts: slug is invalid")
	ErrDuplicateSlug = errors.New("posts: duplicate slug")
	ErrPostRequired  = errors.New("posts: post is required")
)

// NotFoundError reports a lookup miss.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("posts: post %q not found", e.Slug)
}

func (e *NotFoundError) Unwrap() error {
	return ErrPostNotFound
}

// DuplicateSlugError reports two source files resolving to the same slug.
type DuplicateSlugError struct {
	Slug  string
	Paths []string
}

func (e *DuplicateSlugError) Error() string {
	return fmt.Sprintf("posts: slug %q declared by %s", e.Slug, strings.Join(e.Paths, ", "))
}

func (e *DuplicateSlugError) Unwrap() error {
	return ErrDuplicateSlug
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound)
}
