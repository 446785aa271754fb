// Package storage defines the persistence interface for projects, documents,
// reviews, standards and rules.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/planreview/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines persistence operations.
type Storage interface {
	// Project operations
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	UpdateProjectStatus(ctx context.Context, id, status string) error
	ListProjects(ctx context.Context, offset, limit int) ([]*models.Project, error)

	// Document operations
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	UpdateDocument(ctx context.Context, doc *models.Document) error
	ListDocumentsByProject(ctx context.Context, projectID string) ([]*models.Document, error)

	// Review operations
	CreateReview(ctx context.Context, r *models.ReviewRecord) error
	GetReview(ctx context.Context, id string) (*models.ReviewRecord, error)
	ListReviewsByProject(ctx context.Context, projectID string) ([]*models.ReviewRecord, error)

	// Standard operations
	CreateStandard(ctx context.Context, s *models.Standard) error
	GetStandard(ctx context.Context, id string) (*models.Standard, error)
	ListStandards(ctx context.Context, category string) ([]*models.Standard, error)

	// Rule operations
	CreateRule(ctx context.Context, r *models.RuleRecord) error
	GetRule(ctx context.Context, id string) (*models.RuleRecord, error)
	UpdateRule(ctx context.Context, r *models.RuleRecord) error
	DeleteRule(ctx context.Context, id string) error
	ListRules(ctx context.Context, activeOnly bool) ([]*models.RuleRecord, error)

	// Stats
	CountProjects(ctx context.Context) (int64, error)
	CountDocuments(ctx context.Context) (int64, error)
	CountReviews(ctx context.Context) (int64, error)

	Close() error
}
