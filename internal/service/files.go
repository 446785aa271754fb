package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/planreview/internal/models"
	"github.com/hyperjump/planreview/internal/report"
	"github.com/hyperjump/planreview/internal/review"
)

// FileReview is the outcome of reviewing a file without persisting it.
type FileReview struct {
	Outcome review.Outcome `json:"outcome"`
	Report  report.Report  `json:"report"`
}

// ReviewFile extracts and reviews the file at path. Nothing is stored. An
// empty projectName uses the file name without extension.
func (s *Service) ReviewFile(path, projectName string) (*FileReview, error) {
	parsed, err := s.extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if projectName == "" {
		projectName = baseName(path)
	}
	pipeline, evaluator := s.reviewer()
	outcome := pipeline.Review(parsed, evaluator)
	rep := s.builder.Build(outcome.Result, report.ProjectInfo{Name: projectName, Type: s.cfg.Review.DefaultProjectType})
	return &FileReview{Outcome: outcome, Report: rep}, nil
}

// Export writes rep to w in format f.
func (s *Service) Export(rep report.Report, f report.Format, w io.Writer) error {
	return s.exporter.Write(w, rep, f)
}

// ReviewInbox runs the whole workflow for a file dropped into the inbox: a
// project named after the file is created and the file is uploaded, parsed
// and reviewed.
func (s *Service) ReviewInbox(ctx context.Context, path string) (*models.ReviewRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	project, err := s.CreateProject(ctx, baseName(path), "")
	if err != nil {
		return nil, err
	}
	doc, err := s.UploadDocument(ctx, project.ID, filepath.Base(path), f)
	if err != nil {
		return nil, err
	}
	if _, err := s.ParseDocument(ctx, doc.ID); err != nil {
		return nil, err
	}
	rec, err := s.ReviewDocument(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Reviewed inbox file",
		zap.String("path", path),
		zap.String("project_id", project.ID),
		zap.Int("score", rec.Score),
	)
	return rec, nil
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
