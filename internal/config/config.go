// Package config provides configuration loading and structs for the planreview server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the llm section.
const (
	EnvLLMAPIKey  = "LLM_API_KEY"
	EnvLLMBaseURL = "LLM_BASE_URL"
	EnvLLMModel   = "LLM_MODEL"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Review  ReviewConfig  `yaml:"review"`
	LLM     LLMConfig     `yaml:"llm"`
	Inbox   InboxConfig   `yaml:"inbox"`
	Report  ReportConfig  `yaml:"report"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database, uploaded files, reports and the
// standards index.
type StorageConfig struct {
	DatabasePath       string `yaml:"database_path"`
	UploadDir          string `yaml:"upload_dir"`
	ReportDir          string `yaml:"report_dir"`
	StandardsIndexPath string `yaml:"standards_index_path"`
}

// ReviewConfig holds review pipeline settings. Empty library and rules paths
// mean the built-in catalog and default rules only.
type ReviewConfig struct {
	LibraryPath        string   `yaml:"library_path"`
	RulesPath          string   `yaml:"rules_path"`
	EnableRuleReview   *bool    `yaml:"enable_rule_review"`
	MaxFileSizeMB      int      `yaml:"max_file_size_mb"`
	AllowedExtensions  []string `yaml:"allowed_extensions"`
	DefaultProjectType string   `yaml:"default_project_type"`
}

// RuleReviewEnabled returns whether rule review runs; defaults to true when unset.
func (r *ReviewConfig) RuleReviewEnabled() bool {
	if r.EnableRuleReview != nil {
		return *r.EnableRuleReview
	}
	return true
}

// MaxFileSize returns the upload limit in bytes.
func (r *ReviewConfig) MaxFileSize() int64 {
	return int64(r.MaxFileSizeMB) * 1024 * 1024
}

// LLMConfig holds settings for the OpenAI-compatible endpoint used to generate
// rules from standards.
type LLMConfig struct {
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	APIKey         string  `yaml:"api_key"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float32 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries"`
}

// Enabled reports whether an API key is configured.
func (l *LLMConfig) Enabled() bool {
	return l.APIKey != ""
}

// InboxConfig holds the optional auto-review directory.
type InboxConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
}

// ReportConfig holds report export settings.
type ReportConfig struct {
	PDFFontPath string `yaml:"pdf_font_path"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	applyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.UploadDir = expandPath(cfg.Storage.UploadDir, configDir)
	cfg.Storage.ReportDir = expandPath(cfg.Storage.ReportDir, configDir)
	cfg.Storage.StandardsIndexPath = expandPath(cfg.Storage.StandardsIndexPath, configDir)
	cfg.Review.LibraryPath = expandOptional(cfg.Review.LibraryPath, configDir)
	cfg.Review.RulesPath = expandOptional(cfg.Review.RulesPath, configDir)
	cfg.Inbox.Directory = expandOptional(cfg.Inbox.Directory, configDir)
	cfg.Report.PDFFontPath = expandOptional(cfg.Report.PDFFontPath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvLLMAPIKey); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv(EnvLLMBaseURL); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv(EnvLLMModel); v != "" {
		cfg.LLM.Model = v
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

func expandOptional(path string, configDir string) string {
	if path == "" {
		return ""
	}
	return expandPath(path, configDir)
}
