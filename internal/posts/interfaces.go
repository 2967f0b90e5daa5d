package posts

import (
	"context"

	"github.com/rmacedo/quill/internal/model"
)

// Repository defines the data access interface the mutation service needs.
// internal/repository implements it against the relational store.
type Repository interface {
	// FindBySlug returns the post with the given slug, or (nil, nil) when no
	// post matches.
	FindBySlug(ctx context.Context, slug string) (*model.Post, error)

	// FindBySlugExcept is the collision probe for updates: it ignores the
	// post being updated so an unchanged title doesn't conflict with itself.
	FindBySlugExcept(ctx context.Context, slug string, excludeID int64) (*model.Post, error)

	// FindByID returns the post with the given id, or (nil, nil) when absent.
	FindByID(ctx context.Context, id int64) (*model.Post, error)

	// Insert stores a new post, assigning ID, CreatedAt and UpdatedAt.
	// Returns ErrSlugTaken if the storage-level unique constraint fires.
	Insert(ctx context.Context, post *model.Post) error

	// Update persists the mutable fields and refreshes UpdatedAt.
	// Returns ErrSlugTaken on a unique violation.
	Update(ctx context.Context, post *model.Post) error

	Delete(ctx context.Context, id int64) error
}

// Invalidator is notified of view paths made stale by a successful mutation.
// Implementations must not influence the mutation outcome.
type Invalidator interface {
	Invalidate(path string)
}

// Archiver mirrors post content to secondary storage after successful
// mutations. Best-effort: failures are the implementation's to log.
type Archiver interface {
	ArchivePost(ctx context.Context, post *model.Post)
	RemovePost(ctx context.Context, slug string)
}
