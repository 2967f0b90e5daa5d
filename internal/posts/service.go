// Package posts implements the post mutation workflow: validation,
// authorization, slug uniqueness and persistence, followed by view
// invalidation.
package posts

import (
	"context"
	"errors"

	"github.com/rmacedo/quill/internal/model"
	"github.com/rmacedo/quill/internal/routes"
	"github.com/rs/zerolog"
)

var svcLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	svcLogger = l
}

// Input carries the raw form fields of a create or update request.
type Input struct {
	Title       string
	Description string
	Content     string
}

// Result is the uniform outcome shape of every mutation. Message is always
// user-presentable; Slug is set on successful create/update so the caller can
// navigate to the detail view.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Slug    string `json:"slug,omitempty"`
}

const (
	msgLoginCreate = "You must be logged in to create a post"
	msgLoginEdit   = "You must be logged in to edit a post"
	msgLoginDelete = "You must be logged in to delete a post"

	msgSlugTaken = "A post with the same title already exists. Please choose a different title"

	msgTitleUnsluggable = "Title must contain at least one letter or number"

	msgNotFound    = "Post not found"
	msgOnlyEditOwn = "You can only edit your own posts"
	msgOnlyDelOwn  = "You can only delete your own posts"

	msgCreated = "Post created successfully"
	msgEdited  = "Post edited successfully"
	msgDeleted = "Post deleted successfully"

	msgCreateFailed = "Failed to create post"
	msgEditFailed   = "Failed to edit post"
	msgDeleteFailed = "Failed to delete post"
)

// Service orchestrates post mutations. Identity comes in explicitly; session
// extraction stays at the HTTP boundary.
type Service struct {
	repo    Repository
	views   Invalidator
	archive Archiver // optional, may be nil
}

func NewService(repo Repository, views Invalidator, archive Archiver) *Service {
	return &Service{
		repo:    repo,
		views:   views,
		archive: archive,
	}
}

func fail(message string) Result {
	return Result{Success: false, Message: message}
}

// Create validates the input, derives the slug, checks for collisions and
// inserts a new post owned by userID. Side effects are strictly ordered:
// the insert happens before view invalidation, which happens before the
// result is returned.
func (s *Service) Create(ctx context.Context, userID model.UserID, in Input) (res Result) {
	defer s.recoverTo(&res, msgCreateFailed)

	if userID == "" {
		return fail(msgLoginCreate)
	}

	if err := ValidateInput(in.Title, in.Description, in.Content); err != nil {
		return fail(validationMessage(err))
	}

	slug := Slugify(in.Title)
	if slug == "" {
		// A title of only symbols produces no slug, and the detail view
		// needs a non-empty path segment.
		return fail(msgTitleUnsluggable)
	}

	existing, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		svcLogger.Error().Err(err).Str("slug", slug).Msg("Slug lookup failed")
		return fail(msgCreateFailed)
	}
	if existing != nil {
		return fail(msgSlugTaken)
	}

	post := &model.Post{
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
		Slug:        slug,
		AuthorID:    userID,
	}

	if err := s.repo.Insert(ctx, post); err != nil {
		// Two requests can pass the existence check before either inserts;
		// the storage constraint is the authoritative arbiter.
		if errors.Is(err, ErrSlugTaken) {
			return fail(msgSlugTaken)
		}
		svcLogger.Error().Err(err).Str("slug", slug).Msg("Insert failed")
		return fail(msgCreateFailed)
	}

	s.invalidate(routes.RootPath, routes.Post(slug), routes.ProfilePath)
	if s.archive != nil {
		s.archive.ArchivePost(ctx, post)
	}

	return Result{Success: true, Message: msgCreated, Slug: slug}
}

// Update re-validates, re-derives the slug, checks for collisions excluding
// the post itself, and applies the change if userID owns the post. An absent
// post reports "not found" rather than an ownership failure.
func (s *Service) Update(ctx context.Context, userID model.UserID, postID int64, in Input) (res Result) {
	defer s.recoverTo(&res, msgEditFailed)

	if userID == "" {
		return fail(msgLoginEdit)
	}

	if err := ValidateInput(in.Title, in.Description, in.Content); err != nil {
		return fail(validationMessage(err))
	}

	slug := Slugify(in.Title)
	if slug == "" {
		return fail(msgTitleUnsluggable)
	}

	existing, err := s.repo.FindBySlugExcept(ctx, slug, postID)
	if err != nil {
		svcLogger.Error().Err(err).Str("slug", slug).Msg("Slug lookup failed")
		return fail(msgEditFailed)
	}
	if existing != nil {
		return fail(msgSlugTaken)
	}

	post, err := s.ownedPost(ctx, userID, postID)
	switch {
	case errors.Is(err, ErrNotFound):
		return fail(msgNotFound)
	case errors.Is(err, ErrNotOwner):
		return fail(msgOnlyEditOwn)
	case err != nil:
		svcLogger.Error().Err(err).Int64("post_id", postID).Msg("Post lookup failed")
		return fail(msgEditFailed)
	}

	oldSlug := post.Slug

	post.Title = in.Title
	post.Description = in.Description
	post.Content = in.Content
	post.Slug = slug

	if err := s.repo.Update(ctx, post); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return fail(msgSlugTaken)
		}
		svcLogger.Error().Err(err).Int64("post_id", postID).Msg("Update failed")
		return fail(msgEditFailed)
	}

	s.invalidate(routes.RootPath, routes.Post(slug), routes.ProfilePath)
	if oldSlug != slug {
		// The detail view under the previous slug is stale too.
		s.invalidate(routes.Post(oldSlug))
		if s.archive != nil {
			s.archive.RemovePost(ctx, oldSlug)
		}
	}
	if s.archive != nil {
		s.archive.ArchivePost(ctx, post)
	}

	return Result{Success: true, Message: msgEdited, Slug: slug}
}

// Delete removes the post if userID owns it.
func (s *Service) Delete(ctx context.Context, userID model.UserID, postID int64) (res Result) {
	defer s.recoverTo(&res, msgDeleteFailed)

	if userID == "" {
		return fail(msgLoginDelete)
	}

	post, err := s.ownedPost(ctx, userID, postID)
	switch {
	case errors.Is(err, ErrNotFound):
		return fail(msgNotFound)
	case errors.Is(err, ErrNotOwner):
		return fail(msgOnlyDelOwn)
	case err != nil:
		svcLogger.Error().Err(err).Int64("post_id", postID).Msg("Post lookup failed")
		return fail(msgDeleteFailed)
	}

	if err := s.repo.Delete(ctx, postID); err != nil {
		svcLogger.Error().Err(err).Int64("post_id", postID).Msg("Delete failed")
		return fail(msgDeleteFailed)
	}

	s.invalidate(routes.RootPath, routes.Post(post.Slug), routes.ProfilePath)
	if s.archive != nil {
		s.archive.RemovePost(ctx, post.Slug)
	}

	return Result{Success: true, Message: msgDeleted}
}

// ownedPost loads a post and checks it belongs to userID. Returns
// ErrNotFound for an absent post and ErrNotOwner on an ownership mismatch.
func (s *Service) ownedPost(ctx context.Context, userID model.UserID, postID int64) (*model.Post, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	if post.AuthorID != userID {
		return nil, ErrNotOwner
	}
	return post, nil
}

// Get loads a post by id, (nil, nil) when absent. The editor page uses it to
// prefill the form.
func (s *Service) Get(ctx context.Context, postID int64) (*model.Post, error) {
	return s.repo.FindByID(ctx, postID)
}

func (s *Service) invalidate(paths ...string) {
	if s.views == nil {
		return
	}
	for _, path := range paths {
		s.views.Invalidate(path)
	}
}

// recoverTo converts any panic inside a mutation into the generic failure
// result for that operation, so nothing propagates to the caller as a fault.
func (s *Service) recoverTo(res *Result, message string) {
	if r := recover(); r != nil {
		svcLogger.Error().Any("panic", r).Msg("Recovered panic in post mutation")
		*res = fail(message)
	}
}

func validationMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
