package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath == "" {
		t.Error("database_path should be set")
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("default dimensions = %d, want 1536", cfg.Embedding.Dimensions)
	}
	if cfg.Chunking.ParentSize != 1500 || cfg.Chunking.ChildSize != 400 {
		t.Errorf("default chunk sizes = %+v", cfg.Chunking)
	}
	if cfg.Retrieval.OverfetchFactor != 4 {
		t.Errorf("default overfetch = %d, want 4", cfg.Retrieval.OverfetchFactor)
	}
	if cfg.Retrieval.RelativeCutoff != 0.5 {
		t.Errorf("default relative cutoff = %f, want 0.5", cfg.Retrieval.RelativeCutoff)
	}
	if cfg.Retrieval.MinSimilarity != 0.01 {
		t.Errorf("default min similarity = %f, want 0.01", cfg.Retrieval.MinSimilarity)
	}
	if cfg.Storage.ChunkStore != "memory" {
		t.Errorf("default chunk store = %q, want memory", cfg.Storage.ChunkStore)
	}
}

func TestApplyDefaults_keepsExplicitValues(t *testing.T) {
	cfg := Config{}
	cfg.Retrieval.RelativeCutoff = 0.7
	cfg.Embedding.Dimensions = 768
	ApplyDefaults(&cfg)
	if cfg.Retrieval.RelativeCutoff != 0.7 {
		t.Errorf("explicit relative cutoff overridden: %f", cfg.Retrieval.RelativeCutoff)
	}
	if cfg.Embedding.Dimensions != 768 {
		t.Errorf("explicit dimensions overridden: %d", cfg.Embedding.Dimensions)
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/db.sqlite"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "data/db.sqlite")
	if cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %q, want %q", cfg.Storage.DatabasePath, want)
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	var w WatchConfig
	if !w.RecursiveOrDefault() {
		t.Error("unset recursive should default to true")
	}
	f := false
	w.Recursive = &f
	if w.RecursiveOrDefault() {
		t.Error("explicit false should be respected")
	}
}
