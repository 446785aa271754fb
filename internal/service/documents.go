package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/planreview/internal/models"
	"github.com/hyperjump/planreview/internal/report"
	"github.com/hyperjump/planreview/internal/segment"
)

const defaultListLimit = 100

// CreateProject creates a project awaiting review. An empty projectType uses
// the configured default.
func (s *Service) CreateProject(ctx context.Context, name, projectType string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	projectType = strings.TrimSpace(projectType)
	if projectType == "" {
		projectType = s.cfg.Review.DefaultProjectType
	}
	p := &models.Project{
		ID:     uuid.New().String(),
		Name:   name,
		Type:   projectType,
		Status: models.ProjectStatusPending,
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("Created project", zap.String("id", p.ID), zap.String("name", p.Name))
	return p, nil
}

// ListProjects returns projects, newest first.
func (s *Service) ListProjects(ctx context.Context, offset, limit int) ([]*models.Project, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.store.ListProjects(ctx, offset, limit)
}

// UploadDocument stores the file read from r under the upload directory and
// records it against the project. The extension must be allowed and the
// size must not exceed the configured limit.
func (s *Service) UploadDocument(ctx context.Context, projectID, fileName string, r io.Reader) (*models.Document, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	fileName = filepath.Base(strings.TrimSpace(fileName))
	ext := strings.ToLower(filepath.Ext(fileName))
	if !s.allowedExtension(ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}

	id := uuid.New().String()
	path := filepath.Join(s.cfg.Storage.UploadDir, id+ext)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	limit := s.cfg.Review.MaxFileSize()
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write upload file: %w", err)
	}
	if n > limit {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: limit is %d MB", ErrFileTooLarge, s.cfg.Review.MaxFileSizeMB)
	}

	doc := &models.Document{
		ID:          id,
		ProjectID:   projectID,
		FileName:    fileName,
		FilePath:    path,
		FileType:    ext,
		FileSize:    n,
		ParseStatus: models.ParsePending,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	s.logger.Info("Uploaded document",
		zap.String("id", doc.ID),
		zap.String("project_id", projectID),
		zap.String("file", fileName),
		zap.Int64("size", n),
	)
	return doc, nil
}

func (s *Service) allowedExtension(ext string) bool {
	if ext == "" {
		return false
	}
	for _, allowed := range s.cfg.Review.AllowedExtensions {
		if strings.EqualFold("."+strings.TrimPrefix(allowed, "."), ext) {
			return true
		}
	}
	return false
}

// ParseDocument extracts the text of an uploaded document and segments it into
// chapters. A failed extraction is recorded as 解析失败 and returned.
func (s *Service) ParseDocument(ctx context.Context, documentID string) (*models.Document, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	parsed, extractErr := s.extractor.Extract(doc.FilePath)
	now := s.now()
	doc.ParsedAt = &now
	if extractErr != nil {
		doc.ParseStatus = models.ParseFailed
		doc.Content = ""
		doc.Chapters = nil
		if err := s.store.UpdateDocument(ctx, doc); err != nil {
			return nil, err
		}
		s.logger.Warn("Document parse failed", zap.String("id", doc.ID), zap.Error(extractErr))
		return doc, fmt.Errorf("failed to parse document %s: %w", doc.ID, extractErr)
	}

	doc.ParseStatus = models.ParseDone
	doc.Content = parsed.Content
	doc.Chapters = segment.Segment(parsed.Content)
	if err := s.store.UpdateDocument(ctx, doc); err != nil {
		return nil, err
	}
	nChapters, nSections := segment.Count(doc.Chapters)
	s.logger.Info("Parsed document",
		zap.String("id", doc.ID),
		zap.Int("chapters", nChapters),
		zap.Int("sections", nSections),
		zap.Int("tables", len(parsed.Tables)),
	)
	return doc, nil
}

// ReviewDocument reviews a parsed document, stores the review with its
// rendered report, writes report_<review id>.json to the report directory and
// records the verdict as the project status.
func (s *Service) ReviewDocument(ctx context.Context, documentID string) (*models.ReviewRecord, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.ParseStatus != models.ParseDone {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotParsed, doc.ID, doc.ParseStatus)
	}
	project, err := s.store.GetProject(ctx, doc.ProjectID)
	if err != nil {
		return nil, err
	}

	pipeline, evaluator := s.reviewer()
	outcome := pipeline.Review(models.ParsedDocument{Content: doc.Content, Chapters: doc.Chapters}, evaluator)
	rep := s.builder.Build(outcome.Result, report.ProjectInfo{Name: project.Name, Type: project.Type})

	var buf bytes.Buffer
	if err := report.WriteJSON(&buf, rep); err != nil {
		return nil, err
	}
	verdict := rep.Conclusion.Verdict
	rec := &models.ReviewRecord{
		ID:         uuid.New().String(),
		ProjectID:  project.ID,
		DocumentID: doc.ID,
		ReviewType: ReviewType,
		Score:      outcome.Result.Score,
		Status:     string(verdict),
		Result:     outcome.Result,
		Report:     json.RawMessage(bytes.TrimSpace(buf.Bytes())),
	}
	if err := s.store.CreateReview(ctx, rec); err != nil {
		return nil, err
	}

	if dir := s.cfg.Storage.ReportDir; dir != "" {
		path := filepath.Join(dir, "report_"+rec.ID+".json")
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			s.logger.Warn("Failed to write report file", zap.String("path", path), zap.Error(err))
		}
	}
	if err := s.store.UpdateProjectStatus(ctx, project.ID, verdict.ProjectStatus()); err != nil {
		return nil, err
	}

	s.logger.Info("Reviewed document",
		zap.String("review_id", rec.ID),
		zap.String("document_id", doc.ID),
		zap.Int("score", rec.Score),
		zap.String("verdict", string(verdict)),
	)
	return rec, nil
}

// ListReviews returns the reviews of a project, newest first.
func (s *Service) ListReviews(ctx context.Context, projectID string) ([]*models.ReviewRecord, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListReviewsByProject(ctx, projectID)
}

// Report returns the report stored with a review. Reviews stored without one
// are rendered from their result.
func (s *Service) Report(ctx context.Context, reviewID string) (report.Report, error) {
	rec, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return report.Report{}, err
	}
	if len(rec.Report) > 0 {
		var rep report.Report
		if err := json.Unmarshal(rec.Report, &rep); err != nil {
			return report.Report{}, fmt.Errorf("failed to decode report %s: %w", rec.ID, err)
		}
		return rep, nil
	}
	info := report.ProjectInfo{}
	if project, err := s.store.GetProject(ctx, rec.ProjectID); err == nil {
		info = report.ProjectInfo{Name: project.Name, Type: project.Type}
	}
	return s.builder.Build(rec.Result, info), nil
}

// ExportReport writes the report of a review to w in format f.
func (s *Service) ExportReport(ctx context.Context, reviewID string, f report.Format, w io.Writer) error {
	rep, err := s.Report(ctx, reviewID)
	if err != nil {
		return err
	}
	return s.exporter.Write(w, rep, f)
}
