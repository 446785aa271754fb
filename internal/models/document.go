// Package models defines the review data model and the persisted records around it.
package models

import (
	"encoding/json"
	"time"
)

// Parse status values for a stored document.
const (
	ParsePending = "待解析"
	ParseDone    = "解析完成"
	ParseFailed  = "解析失败"
)

// ProjectStatusPending is the status of a project that has not been reviewed yet.
const ProjectStatusPending = "待审核"

// Project groups the documents submitted for one engineering project.
type Project struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"project_type" db:"project_type"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Document is an uploaded proposal file and, once parsed, its text and outline.
type Document struct {
	ID          string     `json:"id" db:"id"`
	ProjectID   string     `json:"project_id" db:"project_id"`
	FileName    string     `json:"file_name" db:"file_name"`
	FilePath    string     `json:"file_path" db:"file_path"`
	FileType    string     `json:"file_type" db:"file_type"`
	FileSize    int64      `json:"file_size" db:"file_size"`
	ParseStatus string     `json:"parse_status" db:"parse_status"`
	Content     string     `json:"content,omitempty" db:"content"`
	Chapters    []Chapter  `json:"chapters,omitempty" db:"chapters"`
	ParsedAt    *time.Time `json:"parsed_at,omitempty" db:"parsed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// ReviewRecord is a stored review of one document.
type ReviewRecord struct {
	ID         string          `json:"id" db:"id"`
	ProjectID  string          `json:"project_id" db:"project_id"`
	DocumentID string          `json:"document_id" db:"document_id"`
	ReviewType string          `json:"review_type" db:"review_type"`
	Score      int             `json:"score" db:"score"`
	Status     string          `json:"status" db:"status"`
	Result     ReviewResult    `json:"result" db:"result"`
	Report     json.RawMessage `json:"report,omitempty" db:"report"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// Standard is an uploaded review standard (规范) used as a knowledge base entry
// and as input for rule generation.
type Standard struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Category  string    `json:"category" db:"category"`
	FileName  string    `json:"file_name" db:"file_name"`
	Content   string    `json:"content,omitempty" db:"content"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RuleRecord is a stored pattern rule plus the bookkeeping the rule list UI needs.
type RuleRecord struct {
	ID              string      `json:"id" db:"id"`
	StandardID      string      `json:"standard_id,omitempty" db:"standard_id"`
	Rule            PatternRule `json:"rule" db:"-"`
	RequiredContent []string    `json:"required_content,omitempty" db:"required_content"`
	ReviewFocus     string      `json:"review_focus,omitempty" db:"review_focus"`
	Priority        int         `json:"priority" db:"priority"`
	Active          bool        `json:"is_active" db:"is_active"`
	AIGenerated     bool        `json:"is_ai_generated" db:"is_ai_generated"`
	AIModel         string      `json:"ai_model,omitempty" db:"ai_model"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}
