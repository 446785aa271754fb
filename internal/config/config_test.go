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
	if cfg.Review.LibraryPath != "" || cfg.Review.RulesPath != "" {
		t.Errorf("optional paths should stay empty: %+v", cfg.Review)
	}
	if cfg.Inbox.Directory != "" {
		t.Errorf("inbox directory should stay empty, got %q", cfg.Inbox.Directory)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
storage:
  database_path: "./data/db/planreview.db"
  upload_dir: "./data/uploads"
review:
  rules_path: "./rules.yaml"
inbox:
  directory: "./inbox"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "data", "db", "planreview.db"); cfg.Storage.DatabasePath != want {
		t.Errorf("database_path = %s, want %s", cfg.Storage.DatabasePath, want)
	}
	if want := filepath.Join(dir, "data", "uploads"); cfg.Storage.UploadDir != want {
		t.Errorf("upload_dir = %s, want %s", cfg.Storage.UploadDir, want)
	}
	if want := filepath.Join(dir, "rules.yaml"); cfg.Review.RulesPath != want {
		t.Errorf("rules_path = %s, want %s", cfg.Review.RulesPath, want)
	}
	if want := filepath.Join(dir, "inbox"); cfg.Inbox.Directory != want {
		t.Errorf("inbox directory = %s, want %s", cfg.Inbox.Directory, want)
	}
}

func TestLoad_envOverridesLLM(t *testing.T) {
	t.Setenv(EnvLLMAPIKey, "sk-test")
	t.Setenv(EnvLLMModel, "gpt-4")
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
llm:
  api_key: "from-file"
  model: "deepseek-chat"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LLM.APIKey != "sk-test" || cfg.LLM.Model != "gpt-4" {
		t.Errorf("env should override llm settings: %+v", cfg.LLM)
	}
	if !cfg.LLM.Enabled() {
		t.Error("llm should be enabled with an api key")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "localhost" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Review.MaxFileSizeMB != 50 || cfg.Review.MaxFileSize() != 50*1024*1024 {
		t.Errorf("default max file size: got %d", cfg.Review.MaxFileSizeMB)
	}
	if len(cfg.Review.AllowedExtensions) != 5 || cfg.Review.AllowedExtensions[0] != ".docx" {
		t.Errorf("allowed extensions: got %v", cfg.Review.AllowedExtensions)
	}
	if cfg.Review.DefaultProjectType != "施工前期" {
		t.Errorf("default project type: got %s", cfg.Review.DefaultProjectType)
	}
	if cfg.LLM.Model != "deepseek-chat" || cfg.LLM.MaxRetries != 3 {
		t.Errorf("llm defaults: got %+v", cfg.LLM)
	}
	if cfg.LLM.Enabled() {
		t.Error("llm should be disabled without an api key")
	}
	if len(cfg.Inbox.Extensions) != len(cfg.Review.AllowedExtensions) {
		t.Errorf("inbox extensions should follow the allow-list: got %v", cfg.Inbox.Extensions)
	}
}

func TestReviewConfig_RuleReviewEnabled(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		r := &ReviewConfig{}
		if got := r.RuleReviewEnabled(); !got {
			t.Errorf("RuleReviewEnabled() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		r := &ReviewConfig{EnableRuleReview: &f}
		if got := r.RuleReviewEnabled(); got {
			t.Errorf("RuleReviewEnabled() = %v, want false", got)
		}
	})
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "saved.yaml")
	cfg := &Config{
		Server:  ServerConfig{Host: "localhost", Port: 9090},
		Storage: StorageConfig{DatabasePath: "/tmp/db"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
}
