// Package model defines core data structures and types for the blog application.
package model

import (
	"html/template"
	"time"
)

// UserID identifies an authenticated user. IDs come from the session
// provider (Clerk user ids or local ids) and never change.
type UserID string

// Post is the sole persisted entity. The slug is derived from the title and
// acts as the public identifier; the numeric ID stays internal.
type Post struct {
	ID          int64
	Title       string
	Description string
	Content     string
	Slug        string
	AuthorID    UserID
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// AuthorName is populated by list/detail queries that join the users
	// table. It is display data, never written back.
	AuthorName string

	// HTML holds the rendered content for templates. Not persisted.
	HTML template.HTML
}
