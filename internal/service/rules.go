package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/planreview/internal/library"
	"github.com/hyperjump/planreview/internal/models"
	"github.com/hyperjump/planreview/internal/review"
	"github.com/hyperjump/planreview/internal/rules"
	"github.com/hyperjump/planreview/internal/storage"
)

// RuleInput is a rule submitted through the API.
type RuleInput struct {
	rules.Payload
	Priority int   `json:"priority"`
	Active   *bool `json:"is_active"`
}

func (in RuleInput) active() bool {
	return in.Active == nil || *in.Active
}

// recordFromPayload builds a rule record. The review focus doubles as the rule
// description when none is given.
func recordFromPayload(p rules.Payload) *models.RuleRecord {
	p = p.Normalize()
	rule := p.Rule()
	if rule.Description == "" {
		rule.Description = p.ReviewFocus
	}
	return &models.RuleRecord{
		Rule:            rule,
		RequiredContent: []string(p.RequiredContent),
		ReviewFocus:     p.ReviewFocus,
	}
}

// LoadRules rebuilds the shared engine from the default rules, the configured
// rules file and the active stored rules. Later rules override earlier rules
// with the same name. Stored rules without a pattern are checked through
// their required content, and stored required content becomes review points
// under the category of the rule's standard.
func (s *Service) LoadRules(ctx context.Context) error {
	all := rules.DefaultRules()
	if path := s.cfg.Review.RulesPath; path != "" {
		fileRules, err := rules.LoadFile(path)
		if err != nil {
			return err
		}
		all = append(all, fileRules...)
	}
	stored, err := s.store.ListRules(ctx, true)
	if err != nil {
		return fmt.Errorf("failed to list rules: %w", err)
	}
	categories := make(map[string]string)
	var points []models.ReviewPoint
	for _, rec := range stored {
		p := payloadFromRecord(rec)
		if derived := p.RequiredContentRules(); len(derived) > 0 {
			all = append(all, derived...)
		} else {
			all = append(all, rec.Rule)
		}
		if len(p.RequiredContent) == 0 || rec.StandardID == "" {
			continue
		}
		category, ok := categories[rec.StandardID]
		if !ok {
			st, err := s.store.GetStandard(ctx, rec.StandardID)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("failed to get standard %s: %w", rec.StandardID, err)
			}
			if st != nil {
				category = strings.TrimSpace(st.Category)
			}
			categories[rec.StandardID] = category
		}
		if category != "" && category != library.CompletenessKey {
			points = append(points, p.ReviewPoint(category))
		}
	}

	lib := s.library
	if len(points) > 0 {
		if lib, err = s.library.WithPoints(points); err != nil {
			return fmt.Errorf("failed to add review points: %w", err)
		}
	}
	s.engine.Replace(all)
	pipeline := review.NewPipeline(lib, review.WithLogger(s.logger))
	s.mu.Lock()
	s.reviewLib = lib
	s.pipeline = pipeline
	s.mu.Unlock()
	s.logger.Info("Loaded rules",
		zap.Int("rules", len(s.engine.Rules())),
		zap.Int("stored", len(stored)),
		zap.Int("review_points", len(points)),
	)
	return nil
}

// payloadFromRecord restores the payload a stored rule was created from.
func payloadFromRecord(rec *models.RuleRecord) rules.Payload {
	p := rules.PayloadFromRule(rec.Rule)
	p.RequiredContent = rec.RequiredContent
	p.ReviewFocus = rec.ReviewFocus
	return p
}

// ListRules returns the stored rules.
func (s *Service) ListRules(ctx context.Context, activeOnly bool) ([]*models.RuleRecord, error) {
	return s.store.ListRules(ctx, activeOnly)
}

// CreateRule validates and stores a rule, then reloads the engine.
func (s *Service) CreateRule(ctx context.Context, in RuleInput) (*models.RuleRecord, error) {
	rec := recordFromPayload(in.Payload)
	if err := rules.Validate(rec.Rule); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	rec.ID = uuid.New().String()
	rec.Priority = in.Priority
	rec.Active = in.active()
	if err := s.store.CreateRule(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.LoadRules(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateRule replaces the fields of a stored rule, then reloads the engine.
func (s *Service) UpdateRule(ctx context.Context, id string, in RuleInput) (*models.RuleRecord, error) {
	existing, err := s.store.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	rec := recordFromPayload(in.Payload)
	if err := rules.Validate(rec.Rule); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	rec.ID = existing.ID
	rec.StandardID = existing.StandardID
	rec.AIGenerated = existing.AIGenerated
	rec.AIModel = existing.AIModel
	rec.CreatedAt = existing.CreatedAt
	rec.Priority = in.Priority
	rec.Active = in.active()
	if err := s.store.UpdateRule(ctx, rec); err != nil {
		return nil, err
	}
	if err := s.LoadRules(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

// DeleteRule removes a stored rule, then reloads the engine.
func (s *Service) DeleteRule(ctx context.Context, id string) error {
	if err := s.store.DeleteRule(ctx, id); err != nil {
		return err
	}
	return s.LoadRules(ctx)
}
