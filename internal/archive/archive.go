// Package archive mirrors post content to secondary storage as markdown
// files, one file per slug. Archival is best-effort: failures are logged and
// never surface into the mutation outcome.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rmacedo/quill/internal/model"
	"github.com/rs/zerolog"
)

var archiveLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	archiveLogger = l
}

// render produces the archived markdown document for a post.
func render(post *model.Post) []byte {
	return []byte(fmt.Sprintf("# %s\n\n> %s\n\n%s\n", post.Title, post.Description, post.Content))
}

func objectKey(slug string) string {
	return slug + ".md"
}

// FSArchiver writes archived posts into a local directory.
type FSArchiver struct {
	path string
}

func NewFSArchiver(path string) (*FSArchiver, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("error creating archive directory: %w", err)
	}
	return &FSArchiver{path: path}, nil
}

func (a *FSArchiver) ArchivePost(_ context.Context, post *model.Post) {
	name := filepath.Join(a.path, objectKey(post.Slug))
	if err := os.WriteFile(name, render(post), 0o644); err != nil {
		archiveLogger.Error().Err(err).Str("slug", post.Slug).Msg("Error archiving post")
		return
	}
	archiveLogger.Debug().Str("slug", post.Slug).Msg("Post archived")
}

func (a *FSArchiver) RemovePost(_ context.Context, slug string) {
	name := filepath.Join(a.path, objectKey(slug))
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		archiveLogger.Error().Err(err).Str("slug", slug).Msg("Error removing archived post")
	}
}
