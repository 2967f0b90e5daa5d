package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmacedo/quill/internal/model"
)

func TestFSArchiverRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a, err := NewFSArchiver(dir)
	if err != nil {
		t.Fatalf("NewFSArchiver failed: %v", err)
	}

	post := &model.Post{
		Title:       "Hello World",
		Description: "A greeting",
		Content:     "Some body text.",
		Slug:        "hello-world",
	}
	a.ArchivePost(ctx, post)

	data, err := os.ReadFile(filepath.Join(dir, "hello-world.md"))
	if err != nil {
		t.Fatalf("Archived file missing: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "# Hello World") || !strings.Contains(text, "Some body text.") {
		t.Errorf("Unexpected archive contents: %q", text)
	}

	a.RemovePost(ctx, "hello-world")
	if _, err := os.Stat(filepath.Join(dir, "hello-world.md")); !os.IsNotExist(err) {
		t.Error("Expected the archived file to be removed")
	}
}

func TestFSArchiverRemoveMissingIsQuiet(t *testing.T) {
	a, err := NewFSArchiver(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	// Must not panic or create anything.
	a.RemovePost(context.Background(), "never-archived")
}

func TestNewFSArchiverCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "archive")

	if _, err := NewFSArchiver(dir); err != nil {
		t.Fatalf("NewFSArchiver failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Error("Expected the archive directory to be created")
	}
}
