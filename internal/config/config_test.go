package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetLogger(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.InfoLevel)
	SetLogger(logger)

	// Verify logger is set (we can't easily compare loggers directly)
	// This test mainly ensures the function doesn't panic
}

func TestApplyDefaults(t *testing.T) {
	config := &Config{}
	applyDefaults(config)

	if config.Site.Name != "Quill" {
		t.Errorf("Expected site name 'Quill', got %q", config.Site.Name)
	}
	if config.Server.Host != "0.0.0.0" {
		t.Errorf("Expected host '0.0.0.0', got %q", config.Server.Host)
	}
	if config.Server.Port != "8080" {
		t.Errorf("Expected port '8080', got %q", config.Server.Port)
	}
	if config.Database.Driver != "sqlite" {
		t.Errorf("Expected default driver 'sqlite', got %q", config.Database.Driver)
	}
	if config.Database.Path != "./quill.db" {
		t.Errorf("Expected default database path './quill.db', got %q", config.Database.Path)
	}
	if config.Auth.Provider != "clerk" {
		t.Errorf("Expected default auth provider 'clerk', got %q", config.Auth.Provider)
	}
	if config.Content.PostsPerPage != 50 {
		t.Errorf("Expected posts per page 50, got %d", config.Content.PostsPerPage)
	}
	if config.Content.Compression != "zstd" {
		t.Errorf("Expected default compression 'zstd', got %q", config.Content.Compression)
	}
	if config.Archive.Backend != "none" {
		t.Errorf("Expected default archive backend 'none', got %q", config.Archive.Backend)
	}
	if config.Logging.Level != "info" {
		t.Errorf("Expected default log level 'info', got %q", config.Logging.Level)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Missing config file should fall back to defaults, got error: %v", err)
	}
	if AppConfig == nil || AppConfig.Site.Name != "Quill" {
		t.Error("Expected defaults to be applied when the config file is missing")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("site:\n  name: My Blog\ndatabase:\n  driver: postgres\n  url: postgres://localhost/blog\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if AppConfig.Site.Name != "My Blog" {
		t.Errorf("Expected overridden site name, got %q", AppConfig.Site.Name)
	}
	if AppConfig.Database.Driver != "postgres" {
		t.Errorf("Expected overridden driver, got %q", AppConfig.Database.Driver)
	}
	// Untouched fields keep their defaults.
	if AppConfig.Server.Port != "8080" {
		t.Errorf("Expected default port to survive partial config, got %q", AppConfig.Server.Port)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("site: [broken"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(path); err == nil {
		t.Error("Expected an error for malformed YAML")
	}
}
