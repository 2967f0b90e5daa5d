package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/rmacedo/quill/internal/db"
	"github.com/rmacedo/quill/internal/model"
	"github.com/rmacedo/quill/internal/posts"
	"github.com/rmacedo/quill/internal/util/compression"
)

// DBPostRepository implements posts.Repository and PostReader over db.DB.
// Post content is compressed at rest.
type DBPostRepository struct {
	db         db.DB
	compressor compression.Compressor
}

func NewDBPostRepository(db db.DB, compressor compression.Compressor) *DBPostRepository {
	if compressor == nil {
		compressor = compression.ZstdCompressor{}
	}
	return &DBPostRepository{
		db:         db,
		compressor: compressor,
	}
}

const postColumns = `id, title, description, content, slug, author_id, created_at, updated_at`

func (r *DBPostRepository) FindBySlug(ctx context.Context, slug string) (*model.Post, error) {
	return r.findOne(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
}

func (r *DBPostRepository) FindBySlugExcept(ctx context.Context, slug string, excludeID int64) (*model.Post, error) {
	return r.findOne(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ? AND id != ?`, slug, excludeID)
}

func (r *DBPostRepository) FindByID(ctx context.Context, id int64) (*model.Post, error) {
	return r.findOne(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
}

func (r *DBPostRepository) findOne(ctx context.Context, query string, args ...interface{}) (*model.Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying post: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	post, err := r.scanPost(rows)
	if err != nil {
		return nil, err
	}
	return post, rows.Err()
}

func (r *DBPostRepository) scanPost(rows *sql.Rows) (*model.Post, error) {
	var post model.Post
	var compressed []byte

	err := rows.Scan(&post.ID, &post.Title, &post.Description, &compressed,
		&post.Slug, &post.AuthorID, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error scanning post: %w", err)
	}

	content, err := r.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing content: %w", err)
	}
	post.Content = string(content)

	return &post, nil
}

func (r *DBPostRepository) Insert(ctx context.Context, post *model.Post) error {
	compressed, err := r.compressor.Compress([]byte(post.Content))
	if err != nil {
		return fmt.Errorf("error compressing content: %w", err)
	}

	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err = r.db.Exec(ctx,
		`INSERT INTO posts (title, description, content, slug, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		post.Title, post.Description, compressed, post.Slug, post.AuthorID, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		if isSlugViolation(err) {
			return posts.ErrSlugTaken
		}
		return fmt.Errorf("error inserting post: %w", err)
	}

	// lib/pq has no LastInsertId, so read the id back through the slug,
	// which is unique by constraint.
	stored, err := r.FindBySlug(ctx, post.Slug)
	if err != nil {
		return fmt.Errorf("error reading back inserted post: %w", err)
	}
	if stored == nil {
		return fmt.Errorf("inserted post not found by slug %q", post.Slug)
	}
	post.ID = stored.ID

	return nil
}

func (r *DBPostRepository) Update(ctx context.Context, post *model.Post) error {
	compressed, err := r.compressor.Compress([]byte(post.Content))
	if err != nil {
		return fmt.Errorf("error compressing content: %w", err)
	}

	post.UpdatedAt = time.Now().UTC()

	_, err = r.db.Exec(ctx,
		`UPDATE posts SET title = ?, description = ?, content = ?, slug = ?, updated_at = ? WHERE id = ?`,
		post.Title, post.Description, compressed, post.Slug, post.UpdatedAt, post.ID,
	)
	if err != nil {
		if isSlugViolation(err) {
			return posts.ErrSlugTaken
		}
		return fmt.Errorf("error updating post: %w", err)
	}

	return nil
}

func (r *DBPostRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting post: %w", err)
	}
	return nil
}

func (r *DBPostRepository) List(ctx context.Context) ([]model.Post, error) {
	return r.list(ctx,
		`SELECT p.id, p.title, p.description, p.slug, p.author_id, p.created_at, p.updated_at, COALESCE(u.name, '')
		 FROM posts p LEFT JOIN users u ON u.id = p.author_id
		 ORDER BY p.created_at DESC`)
}

func (r *DBPostRepository) ListByAuthor(ctx context.Context, authorID model.UserID) ([]model.Post, error) {
	return r.list(ctx,
		`SELECT p.id, p.title, p.description, p.slug, p.author_id, p.created_at, p.updated_at, COALESCE(u.name, '')
		 FROM posts p LEFT JOIN users u ON u.id = p.author_id
		 WHERE p.author_id = ?
		 ORDER BY p.created_at DESC`, authorID)
}

func (r *DBPostRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying posts: %w", err)
	}
	defer rows.Close()

	result := make([]model.Post, 0)
	for rows.Next() {
		var post model.Post
		err := rows.Scan(&post.ID, &post.Title, &post.Description, &post.Slug,
			&post.AuthorID, &post.CreatedAt, &post.UpdatedAt, &post.AuthorName)
		if err != nil {
			return nil, fmt.Errorf("error scanning post: %w", err)
		}
		result = append(result, post)
	}

	return result, rows.Err()
}

func (r *DBPostRepository) GetBySlugWithAuthor(ctx context.Context, slug string) (*model.Post, error) {
	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.title, p.description, p.content, p.slug, p.author_id, p.created_at, p.updated_at, COALESCE(u.name, '')
		 FROM posts p LEFT JOIN users u ON u.id = p.author_id
		 WHERE p.slug = ?`, slug)
	if err != nil {
		return nil, fmt.Errorf("error querying post: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var post model.Post
	var compressed []byte
	err = rows.Scan(&post.ID, &post.Title, &post.Description, &compressed,
		&post.Slug, &post.AuthorID, &post.CreatedAt, &post.UpdatedAt, &post.AuthorName)
	if err != nil {
		return nil, fmt.Errorf("error scanning post: %w", err)
	}

	content, err := r.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing content: %w", err)
	}
	post.Content = string(content)

	return &post, rows.Err()
}

// isSlugViolation detects the unique-constraint error each driver produces
// for posts.slug: lib/pq reports class 23505 naming the constraint,
// go-sqlite3 a unique-constraint extended code naming the column.
func isSlugViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && strings.Contains(pqErr.Constraint, "slug")
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique &&
			strings.Contains(sqliteErr.Error(), "posts.slug")
	}

	return false
}
