// Package service wires storage, extraction, the review pipeline, rules,
// standards and report export into the operations exposed by the HTTP API
// and the CLI.
package service

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/planreview/internal/config"
	"github.com/hyperjump/planreview/internal/extract"
	"github.com/hyperjump/planreview/internal/library"
	"github.com/hyperjump/planreview/internal/report"
	"github.com/hyperjump/planreview/internal/review"
	"github.com/hyperjump/planreview/internal/rulegen"
	"github.com/hyperjump/planreview/internal/rules"
	"github.com/hyperjump/planreview/internal/standards"
	"github.com/hyperjump/planreview/internal/storage"
)

// ReviewType labels reviews produced by ReviewDocument.
const ReviewType = "综合审核"

var (
	// ErrInvalidInput is returned for missing or malformed request values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedFileType is returned for uploads outside the allow-list.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrFileTooLarge is returned for uploads above the size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrNotParsed is returned when reviewing a document that has not been parsed.
	ErrNotParsed = errors.New("document not parsed")
	// ErrStandardsDisabled is returned by SearchStandards without an index.
	ErrStandardsDisabled = errors.New("standards index not configured")
)

// Service implements the review workflow.
type Service struct {
	cfg       *config.Config
	store     storage.Storage
	library   *library.Library
	engine    *rules.SyncEngine
	builder   *report.Builder
	exporter  *report.Exporter
	extractor *extract.Extractor
	standards *standards.Index
	generator *rulegen.Generator
	logger    *zap.Logger
	now       func() time.Time

	// mu guards reviewLib and pipeline, which LoadRules rebuilds with the
	// review points of stored rules.
	mu        sync.RWMutex
	reviewLib *library.Library
	pipeline  *review.Pipeline
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used by the service and the components it builds.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithStandardsIndex enables standards search.
func WithStandardsIndex(idx *standards.Index) Option {
	return func(s *Service) { s.standards = idx }
}

// WithGenerator replaces the rule generator built from the llm config.
func WithGenerator(g *rulegen.Generator) Option {
	return func(s *Service) { s.generator = g }
}

// WithClock sets the time source for records and reports.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a service. The upload and report directories are created.
// The rule engine starts with the default rules; call LoadRules to add the
// rules file and stored rules.
func New(cfg *config.Config, store storage.Storage, lib *library.Library, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:       cfg,
		store:     store,
		library:   lib,
		engine:    rules.NewSyncEngine(rules.NewDefaultEngine()),
		extractor: extract.NewExtractor(),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reviewLib = lib
	s.pipeline = review.NewPipeline(lib, review.WithLogger(s.logger))
	s.builder = report.NewBuilder(report.WithClock(s.now))
	s.exporter = report.NewExporter(report.PDFOptions{FontPath: cfg.Report.PDFFontPath})
	if s.generator == nil {
		s.generator = rulegen.NewGenerator(cfg.LLM, rulegen.WithLogger(s.logger))
	}

	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Storage.ReportDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// Library returns the review-point library in use, including the review
// points of stored rules.
func (s *Service) Library() *library.Library {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reviewLib
}

// MaxUploadSize returns the upload size limit in bytes.
func (s *Service) MaxUploadSize() int64 {
	return s.cfg.Review.MaxFileSize()
}

// Engine returns the shared rule engine.
func (s *Service) Engine() *rules.SyncEngine {
	return s.engine
}

// reviewer returns the current pipeline and a snapshot of the rule engine, so
// one review sees a single rule set even while rules are edited. The evaluator
// is nil when rule review is disabled.
func (s *Service) reviewer() (*review.Pipeline, review.RuleEvaluator) {
	s.mu.RLock()
	p := s.pipeline
	s.mu.RUnlock()
	if !s.cfg.Review.RuleReviewEnabled() {
		return p, nil
	}
	return p, s.engine.Snapshot()
}

// GeneratorModel returns the chat model used for rule generation.
func (s *Service) GeneratorModel() string {
	return s.generator.Model()
}
