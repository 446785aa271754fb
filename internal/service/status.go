package service

import (
	"context"

	"github.com/hyperjump/planreview/internal/storage"
)

// Status summarizes the stored data and the active review configuration.
type Status struct {
	Projects         int64         `json:"projects"`
	Documents        int64         `json:"documents"`
	Reviews          int64         `json:"reviews"`
	IndexedStandards uint64        `json:"indexed_standards"`
	Rules            int           `json:"rules"`
	LibraryVersion   string        `json:"library_version"`
	RuleReview       bool          `json:"rule_review_enabled"`
	AIRuleGeneration bool          `json:"ai_rule_generation"`
	Disk             storage.Usage `json:"disk_usage"`
}

// Status collects counts and disk usage.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	st := &Status{
		Rules:            len(s.engine.Rules()),
		LibraryVersion:   s.library.Version(),
		RuleReview:       s.cfg.Review.RuleReviewEnabled(),
		AIRuleGeneration: s.cfg.LLM.Enabled(),
	}
	var err error
	if st.Projects, err = s.store.CountProjects(ctx); err != nil {
		return nil, err
	}
	if st.Documents, err = s.store.CountDocuments(ctx); err != nil {
		return nil, err
	}
	if st.Reviews, err = s.store.CountReviews(ctx); err != nil {
		return nil, err
	}
	if s.standards != nil {
		if st.IndexedStandards, err = s.standards.DocCount(); err != nil {
			return nil, err
		}
	}
	storageCfg := s.cfg.Storage
	if st.Disk, err = storage.MeasureUsage(storageCfg.DatabasePath, storageCfg.UploadDir, storageCfg.ReportDir); err != nil {
		return nil, err
	}
	return st, nil
}
