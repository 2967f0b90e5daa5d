// Package repository implements post persistence against the relational
// store. The write-side contract lives in internal/posts (Repository); this
// package adds the read queries the pages need.
package repository

import (
	"context"

	"github.com/rmacedo/quill/internal/model"
	"github.com/rs/zerolog"
)

var repoLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

// PostReader is the read-side interface consumed by the page handlers.
type PostReader interface {
	// List returns all posts, newest first, with author names attached.
	// Content is not loaded for listings.
	List(ctx context.Context) ([]model.Post, error)

	// ListByAuthor returns the author's posts, newest first.
	ListByAuthor(ctx context.Context, authorID model.UserID) ([]model.Post, error)

	// GetBySlugWithAuthor returns the full post (content included) with the
	// author name attached, or (nil, nil) when absent.
	GetBySlugWithAuthor(ctx context.Context, slug string) (*model.Post, error)
}
