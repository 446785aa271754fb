package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/planreview/internal/models"
	"github.com/hyperjump/planreview/internal/rules"
	"github.com/hyperjump/planreview/internal/standards"
)

// StandardStatusParsed marks a standard whose text was extracted.
const StandardStatusParsed = "已解析"

// AddStandard extracts the text of an uploaded standard, stores it and adds it
// to the search index. An empty name uses the file name without extension.
func (s *Service) AddStandard(ctx context.Context, name, category, fileName string, r io.Reader) (*models.Standard, error) {
	fileName = filepath.Base(strings.TrimSpace(fileName))
	ext := strings.ToLower(filepath.Ext(fileName))
	if !s.allowedExtension(ext) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
	limit := s.cfg.Review.MaxFileSize()
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read standard: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit is %d MB", ErrFileTooLarge, s.cfg.Review.MaxFileSizeMB)
	}
	parsed, err := s.extractor.ExtractBytes(data, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to parse standard: %w", err)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSuffix(fileName, filepath.Ext(fileName))
	}
	st := &models.Standard{
		ID:       uuid.New().String(),
		Name:     name,
		Category: strings.TrimSpace(category),
		FileName: fileName,
		Content:  parsed.Content,
		Status:   StandardStatusParsed,
	}
	if err := s.store.CreateStandard(ctx, st); err != nil {
		return nil, err
	}
	if s.standards != nil {
		if err := s.standards.Index(ctx, st); err != nil {
			return nil, err
		}
	}
	s.logger.Info("Added standard", zap.String("id", st.ID), zap.String("name", st.Name), zap.String("category", st.Category))
	return st, nil
}

// ListStandards returns stored standards, optionally for one category.
func (s *Service) ListStandards(ctx context.Context, category string) ([]*models.Standard, error) {
	return s.store.ListStandards(ctx, strings.TrimSpace(category))
}

// SearchStandards runs a full-text search over indexed standards.
func (s *Service) SearchStandards(ctx context.Context, query, category string, limit int) ([]standards.Hit, error) {
	if s.standards == nil {
		return nil, ErrStandardsDisabled
	}
	return s.standards.Search(ctx, query, strings.TrimSpace(category), limit)
}

// GenerateRules derives rules from a stored standard and stores them. Rules
// the engine could not evaluate are stored inactive.
func (s *Service) GenerateRules(ctx context.Context, standardID string) ([]*models.RuleRecord, error) {
	st, err := s.store.GetStandard(ctx, standardID)
	if err != nil {
		return nil, err
	}
	res := s.generator.Generate(ctx, st.Content, st.Category)

	records := make([]*models.RuleRecord, 0, len(res.Rules))
	for _, p := range res.Rules {
		rec := recordFromPayload(p)
		rec.ID = uuid.New().String()
		rec.StandardID = st.ID
		rec.AIGenerated = res.AIGenerated
		rec.AIModel = res.Model
		rec.Active = true
		if err := rules.Validate(rec.Rule); err != nil {
			s.logger.Warn("Generated rule is not usable", zap.String("rule", rec.Rule.Name), zap.Error(err))
			rec.Active = false
		}
		if err := s.store.CreateRule(ctx, rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := s.LoadRules(ctx); err != nil {
		return nil, err
	}
	s.logger.Info("Generated rules from standard",
		zap.String("standard_id", st.ID),
		zap.Int("rules", len(records)),
		zap.Bool("ai", res.AIGenerated),
	)
	return records, nil
}
