package posts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rmacedo/quill/internal/model"
)

// fakeRepo is an in-memory Repository with the same contract as the SQL
// implementation, including the unique-slug backstop.
type fakeRepo struct {
	posts  map[int64]model.Post
	nextID int64

	failWith error // when set, every call returns this error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{posts: make(map[int64]model.Post), nextID: 1}
}

func (f *fakeRepo) FindBySlug(ctx context.Context, slug string) (*model.Post, error) {
	return f.FindBySlugExcept(ctx, slug, 0)
}

func (f *fakeRepo) FindBySlugExcept(_ context.Context, slug string, excludeID int64) (*model.Post, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, p := range f.posts {
		if p.Slug == slug && p.ID != excludeID {
			p := p
			return &p, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) FindByID(_ context.Context, id int64) (*model.Post, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	if p, ok := f.posts[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (f *fakeRepo) Insert(_ context.Context, post *model.Post) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, p := range f.posts {
		if p.Slug == post.Slug {
			return ErrSlugTaken
		}
	}
	post.ID = f.nextID
	f.nextID++
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	f.posts[post.ID] = *post
	return nil
}

func (f *fakeRepo) Update(_ context.Context, post *model.Post) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, p := range f.posts {
		if p.Slug == post.Slug && p.ID != post.ID {
			return ErrSlugTaken
		}
	}
	stored := f.posts[post.ID]
	post.CreatedAt = stored.CreatedAt
	post.AuthorID = stored.AuthorID
	post.UpdatedAt = time.Now().UTC()
	if !post.UpdatedAt.After(stored.UpdatedAt) {
		post.UpdatedAt = stored.UpdatedAt.Add(time.Nanosecond)
	}
	f.posts[post.ID] = *post
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id int64) error {
	if f.failWith != nil {
		return f.failWith
	}
	delete(f.posts, id)
	return nil
}

// recordingInvalidator collects invalidated paths.
type recordingInvalidator struct {
	paths []string
}

func (r *recordingInvalidator) Invalidate(path string) {
	r.paths = append(r.paths, path)
}

func (r *recordingInvalidator) has(path string) bool {
	for _, p := range r.paths {
		if p == path {
			return true
		}
	}
	return false
}

func newService() (*Service, *fakeRepo, *recordingInvalidator) {
	repo := newFakeRepo()
	views := &recordingInvalidator{}
	return NewService(repo, views, nil), repo, views
}

var validInput = Input{
	Title:       "Hello World",
	Description: "A short intro",
	Content:     "This is the body of my first post.",
}

func TestCreatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, repo, views := newService()

		res := svc.Create(ctx, "U1", validInput)
		if !res.Success {
			t.Fatalf("Expected success, got %q", res.Message)
		}
		if res.Slug != "hello-world" {
			t.Errorf("Expected slug 'hello-world', got %q", res.Slug)
		}
		if res.Slug != Slugify(validInput.Title) {
			t.Error("Returned slug must equal Slugify(title)")
		}

		stored, err := repo.FindBySlug(ctx, "hello-world")
		if err != nil || stored == nil {
			t.Fatalf("Expected the post to be findable by slug, got (%v, %v)", stored, err)
		}
		if stored.AuthorID != "U1" {
			t.Errorf("Expected authorID 'U1', got %q", stored.AuthorID)
		}

		for _, path := range []string{"/", "/post/hello-world", "/profile"} {
			if !views.has(path) {
				t.Errorf("Expected %q to be invalidated, got %v", path, views.paths)
			}
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		svc, repo, _ := newService()

		res := svc.Create(ctx, "", validInput)
		if res.Success {
			t.Fatal("Expected failure without an identity")
		}
		if !strings.Contains(res.Message, "logged in") {
			t.Errorf("Expected a login message, got %q", res.Message)
		}
		if len(repo.posts) != 0 {
			t.Error("Nothing may be stored on an unauthenticated create")
		}
	})

	t.Run("InvalidTitleShortCircuits", func(t *testing.T) {
		svc, _, views := newService()

		// Description and content also invalid; only the title is reported.
		res := svc.Create(ctx, "U1", Input{Title: "ab", Description: "x", Content: "y"})
		if res.Success {
			t.Fatal("Expected validation failure")
		}
		if !strings.Contains(res.Message, "Title") {
			t.Errorf("Expected the title constraint message, got %q", res.Message)
		}
		if len(views.paths) != 0 {
			t.Error("Failed creates must not invalidate views")
		}
	})

	t.Run("SymbolOnlyTitleRejected", func(t *testing.T) {
		svc, repo, views := newService()

		// Long enough to pass validation, but slugifies to nothing: the
		// post would have no reachable detail path.
		res := svc.Create(ctx, "U1", Input{Title: "???!!!", Description: validInput.Description, Content: validInput.Content})
		if res.Success {
			t.Fatal("Expected a symbol-only title to be rejected")
		}
		if !strings.Contains(res.Message, "letter or number") {
			t.Errorf("Expected the unsluggable-title message, got %q", res.Message)
		}
		if len(repo.posts) != 0 {
			t.Error("Nothing may be stored for a rejected title")
		}
		if len(views.paths) != 0 {
			t.Error("Failed creates must not invalidate views")
		}
	})

	t.Run("SlugConflict", func(t *testing.T) {
		svc, _, _ := newService()

		if res := svc.Create(ctx, "U1", validInput); !res.Success {
			t.Fatalf("Setup create failed: %q", res.Message)
		}

		// Different author, same derived slug.
		res := svc.Create(ctx, "U2", validInput)
		if res.Success {
			t.Fatal("Expected a slug conflict")
		}
		if !strings.Contains(res.Message, "already exists") {
			t.Errorf("Expected a conflict message, got %q", res.Message)
		}
	})

	t.Run("InsertRaceMapsToConflict", func(t *testing.T) {
		svc, repo, _ := newService()

		// Pre-check misses but the storage constraint fires: same message as
		// the pre-check path.
		repo.posts[99] = model.Post{ID: 99, Slug: "hello-world", AuthorID: "U2"}
		res := svc.Create(ctx, "U1", validInput)
		if res.Success || !strings.Contains(res.Message, "already exists") {
			t.Errorf("Expected conflict result, got %+v", res)
		}
	})

	t.Run("StorageError", func(t *testing.T) {
		svc, repo, _ := newService()
		repo.failWith = errors.New("connection refused")

		res := svc.Create(ctx, "U1", validInput)
		if res.Success {
			t.Fatal("Expected failure on storage error")
		}
		if res.Message != "Failed to create post" {
			t.Errorf("Storage causes must collapse to the generic message, got %q", res.Message)
		}
	})
}

func TestUpdatePost(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, *fakeRepo, *recordingInvalidator, model.Post) {
		t.Helper()
		svc, repo, views := newService()
		if res := svc.Create(ctx, "U1", validInput); !res.Success {
			t.Fatalf("Setup create failed: %q", res.Message)
		}
		stored, _ := repo.FindBySlug(ctx, "hello-world")
		views.paths = nil
		return svc, repo, views, *stored
	}

	t.Run("Success", func(t *testing.T) {
		svc, repo, views, created := setup(t)

		time.Sleep(2 * time.Millisecond)
		res := svc.Update(ctx, "U1", created.ID, Input{
			Title:       "Hello Again",
			Description: "An updated intro",
			Content:     "The body changed quite a bit.",
		})
		if !res.Success {
			t.Fatalf("Expected success, got %q", res.Message)
		}
		if res.Slug != "hello-again" {
			t.Errorf("Expected new slug 'hello-again', got %q", res.Slug)
		}

		updated, _ := repo.FindByID(ctx, created.ID)
		if !updated.UpdatedAt.After(created.UpdatedAt) {
			t.Error("UpdatedAt must strictly increase on update")
		}
		if !updated.CreatedAt.Equal(created.CreatedAt) {
			t.Error("CreatedAt must not change on update")
		}
		if updated.AuthorID != created.AuthorID {
			t.Error("AuthorID must not change on update")
		}

		for _, path := range []string{"/", "/post/hello-again", "/profile", "/post/hello-world"} {
			if !views.has(path) {
				t.Errorf("Expected %q to be invalidated, got %v", path, views.paths)
			}
		}
	})

	t.Run("SymbolOnlyTitleRejected", func(t *testing.T) {
		svc, repo, _, created := setup(t)

		res := svc.Update(ctx, "U1", created.ID, Input{Title: "???!!!", Description: validInput.Description, Content: validInput.Content})
		if res.Success {
			t.Fatal("Expected a symbol-only title to be rejected")
		}
		if !strings.Contains(res.Message, "letter or number") {
			t.Errorf("Expected the unsluggable-title message, got %q", res.Message)
		}
		stored, _ := repo.FindByID(ctx, created.ID)
		if stored.Slug != "hello-world" {
			t.Error("The stored post must be untouched")
		}
	})

	t.Run("SameTitleDoesNotSelfConflict", func(t *testing.T) {
		svc, _, _, created := setup(t)

		res := svc.Update(ctx, "U1", created.ID, validInput)
		if !res.Success {
			t.Errorf("Updating without a title change must not self-conflict, got %q", res.Message)
		}
	})

	t.Run("ConflictWithOtherPost", func(t *testing.T) {
		svc, repo, _, created := setup(t)
		if res := svc.Create(ctx, "U1", Input{
			Title:       "Second Post",
			Description: "Another intro",
			Content:     "Completely different body.",
		}); !res.Success {
			t.Fatalf("Setup create failed: %q", res.Message)
		}

		res := svc.Update(ctx, "U1", created.ID, Input{
			Title:       "Second Post",
			Description: validInput.Description,
			Content:     validInput.Content,
		})
		if res.Success {
			t.Fatal("Expected conflict with the other post's slug")
		}

		// The target post is untouched.
		stored, _ := repo.FindByID(ctx, created.ID)
		if stored.Title != validInput.Title {
			t.Error("Failed update must not modify the stored post")
		}
	})

	t.Run("Forbidden", func(t *testing.T) {
		svc, repo, _, created := setup(t)

		res := svc.Update(ctx, "U2", created.ID, Input{
			Title:       "Hijacked",
			Description: "Not my post",
			Content:     "Trying to take over here.",
		})
		if res.Success {
			t.Fatal("Expected ownership failure")
		}
		if !strings.Contains(res.Message, "your own posts") {
			t.Errorf("Expected an ownership message, got %q", res.Message)
		}

		stored, _ := repo.FindByID(ctx, created.ID)
		if stored.Title != validInput.Title {
			t.Error("Forbidden update must not modify the stored post")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, _, _, _ := setup(t)

		res := svc.Update(ctx, "U1", 12345, validInput)
		if res.Success {
			t.Fatal("Expected failure for an absent post")
		}
		if res.Message != "Post not found" {
			t.Errorf("Absent post reports not-found, got %q", res.Message)
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		svc, _, _, created := setup(t)

		res := svc.Update(ctx, "", created.ID, validInput)
		if res.Success || !strings.Contains(res.Message, "logged in") {
			t.Errorf("Expected a login failure, got %+v", res)
		}
	})
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*Service, *fakeRepo, *recordingInvalidator, model.Post) {
		t.Helper()
		svc, repo, views := newService()
		if res := svc.Create(ctx, "U1", validInput); !res.Success {
			t.Fatalf("Setup create failed: %q", res.Message)
		}
		stored, _ := repo.FindBySlug(ctx, "hello-world")
		views.paths = nil
		return svc, repo, views, *stored
	}

	t.Run("Success", func(t *testing.T) {
		svc, repo, views, created := setup(t)

		res := svc.Delete(ctx, "U1", created.ID)
		if !res.Success {
			t.Fatalf("Expected success, got %q", res.Message)
		}
		if res.Slug != "" {
			t.Errorf("Delete result carries no slug, got %q", res.Slug)
		}

		if stored, _ := repo.FindByID(ctx, created.ID); stored != nil {
			t.Error("Expected the post to be gone after delete")
		}

		if !views.has("/") || !views.has("/profile") {
			t.Errorf("Expected home and profile to be invalidated, got %v", views.paths)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, _, _, _ := setup(t)

		res := svc.Delete(ctx, "U1", 999)
		if res.Success || res.Message != "Post not found" {
			t.Errorf("Expected not-found result, got %+v", res)
		}
	})

	t.Run("Forbidden", func(t *testing.T) {
		svc, repo, _, created := setup(t)

		res := svc.Delete(ctx, "U2", created.ID)
		if res.Success {
			t.Fatal("Expected ownership failure")
		}
		if stored, _ := repo.FindByID(ctx, created.ID); stored == nil {
			t.Error("Forbidden delete must not remove the post")
		}
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		svc, _, _, created := setup(t)

		res := svc.Delete(ctx, "", created.ID)
		if res.Success || !strings.Contains(res.Message, "logged in") {
			t.Errorf("Expected a login failure, got %+v", res)
		}
	})

	t.Run("StorageError", func(t *testing.T) {
		svc, repo, _, created := setup(t)
		repo.failWith = errors.New("disk on fire")

		res := svc.Delete(ctx, "U1", created.ID)
		if res.Success || res.Message != "Failed to delete post" {
			t.Errorf("Expected the generic delete failure, got %+v", res)
		}
	})
}
