package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestQueryArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"revenue growth", "-limit", "5"},
			expected: []string{"-limit", "5", "revenue growth"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-limit", "5", "revenue growth"},
			expected: []string{"-limit", "5", "revenue growth"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"revenue growth"},
			expected: []string{"revenue growth"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"net", "income", "-strictness", "0.8"},
			expected: []string{"-strictness", "0.8", "net", "income"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := queryArgsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("queryArgsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQueryString(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"revenue"}, "revenue"},
		{"multiple words", []string{"gross", "margin"}, "gross margin"},
		{"single quoted phrase", []string{"gross margin"}, "gross margin"},
		{"three words", []string{"free", "cash", "flow"}, "free cash flow"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
		{"one space", []string{" "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildQueryString(tt.args)
			if got != tt.expected {
				t.Errorf("buildQueryString(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestSearchQueryFromFlags(t *testing.T) {
	q := searchQueryFromFlags("net income", 5, 0.8, "Acme Corp", "10-K", 2024)
	if q.Query != "net income" || q.MaxResults != 5 {
		t.Errorf("unexpected query: %+v", q)
	}
	if q.Strictness == nil || *q.Strictness != 0.8 {
		t.Errorf("strictness = %v, want 0.8", q.Strictness)
	}
	if q.Company != "Acme Corp" || q.ReportType != "10-K" || q.FiscalYear != 2024 {
		t.Errorf("filters not carried: %+v", q)
	}

	q = searchQueryFromFlags("net income", 5, -1, "", "", 0)
	if q.Strictness != nil {
		t.Errorf("negative strictness flag should leave Strictness nil, got %v", *q.Strictness)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}
