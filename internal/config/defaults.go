package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/planreview/data/db/planreview.db"
	}
	if cfg.Storage.UploadDir == "" {
		cfg.Storage.UploadDir = "/usr/local/var/planreview/data/uploads"
	}
	if cfg.Storage.ReportDir == "" {
		cfg.Storage.ReportDir = "/usr/local/var/planreview/data/reports"
	}
	if cfg.Storage.StandardsIndexPath == "" {
		cfg.Storage.StandardsIndexPath = "/usr/local/var/planreview/data/indices/standards"
	}
	if cfg.Review.MaxFileSizeMB == 0 {
		cfg.Review.MaxFileSizeMB = 50
	}
	if cfg.Review.AllowedExtensions == nil {
		cfg.Review.AllowedExtensions = []string{".docx", ".pdf", ".txt", ".md", ".xlsx"}
	}
	if cfg.Review.DefaultProjectType == "" {
		cfg.Review.DefaultProjectType = "施工前期"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.deepseek.com/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "deepseek-chat"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 2000
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.3
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 60
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 3
	}
	// Inbox files follow the upload allow-list unless narrowed.
	if cfg.Inbox.Extensions == nil {
		cfg.Inbox.Extensions = append([]string(nil), cfg.Review.AllowedExtensions...)
	}
}
