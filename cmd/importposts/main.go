// importposts bulk-loads a directory of markdown files as posts of a single
// author. The file name becomes the title unless the file starts with a
// level-one heading.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rmacedo/quill/internal/config"
	"github.com/rmacedo/quill/internal/db"
	"github.com/rmacedo/quill/internal/model"
	"github.com/rmacedo/quill/internal/posts"
	"github.com/rmacedo/quill/internal/repository"
	"github.com/rmacedo/quill/internal/util/compression"
)

func main() {
	path := flag.String("path", "", "Path to the directory containing .md files")
	authorID := flag.String("author-id", "", "Author user ID for the posts")
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	flag.Parse()

	if *path == "" || *authorID == "" {
		log.Fatal("Both --path and --author-id flags are required")
	}

	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	database := newDatabase()
	if err := database.InitDB(); err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer database.Close()

	compressor := compression.ForName(config.AppConfig.Content.Compression)
	importAll(*path, *authorID, repository.NewDBPostRepository(database, compressor))
}

func newDatabase() db.DB {
	if config.AppConfig.Database.Driver == "postgres" {
		url := os.Getenv("DATABASE_URL")
		if url == "" {
			url = config.AppConfig.Database.URL
		}
		return db.NewPostgres(url)
	}
	return db.NewSQLite(config.AppConfig.Database.Path)
}

func importAll(dirPath, authorID string, repo *repository.DBPostRepository) {
	files, err := os.ReadDir(dirPath)
	if err != nil {
		log.Fatalf("Error reading directory %s: %v", dirPath, err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
			continue
		}
		if err := processFile(dirPath, file.Name(), repo, authorID); err != nil {
			log.Printf("Error processing file %s: %v", file.Name(), err)
			continue
		}
		log.Printf("Imported post from file: %s", file.Name())
	}
}

func processFile(dirPath, name string, repo *repository.DBPostRepository, authorID string) error {
	content, err := os.ReadFile(filepath.Join(dirPath, name))
	if err != nil {
		return err
	}

	title, body := splitTitle(string(content), strings.TrimSuffix(name, ".md"))

	post := &model.Post{
		Title:       title,
		Description: firstLine(body),
		Content:     body,
		Slug:        posts.Slugify(title),
		AuthorID:    model.UserID(authorID),
	}

	err = repo.Insert(context.Background(), post)
	if errors.Is(err, posts.ErrSlugTaken) {
		log.Printf("Skipping %s: a post with slug %q already exists", name, post.Slug)
		return nil
	}
	return err
}

// splitTitle lifts a leading level-one heading out of the document; the
// fallback title is the file name.
func splitTitle(content, fallback string) (string, string) {
	trimmed := strings.TrimLeft(content, "\n")
	if strings.HasPrefix(trimmed, "# ") {
		line, rest, _ := strings.Cut(trimmed, "\n")
		return strings.TrimSpace(strings.TrimPrefix(line, "# ")), strings.TrimLeft(rest, "\n")
	}
	return fallback, content
}

func firstLine(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			if len(line) > 200 {
				line = line[:200]
			}
			return line
		}
	}
	return "Imported post"
}
