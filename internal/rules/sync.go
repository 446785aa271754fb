package rules

import (
	"sync"

	"github.com/hyperjump/planreview/internal/models"
)

// SyncEngine guards an Engine with a read/write lock. Reviews evaluate a
// Snapshot so rules can be edited meanwhile.
type SyncEngine struct {
	mu     sync.RWMutex
	engine *Engine
}

// NewSyncEngine wraps e. A nil engine starts empty.
func NewSyncEngine(e *Engine) *SyncEngine {
	if e == nil {
		e = &Engine{}
	}
	return &SyncEngine{engine: e}
}

func (s *SyncEngine) AddRule(r models.PatternRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.AddRule(r)
}

func (s *SyncEngine) RemoveRule(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.RemoveRule(name)
}

func (s *SyncEngine) Replace(rules []models.PatternRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Replace(rules)
}

func (s *SyncEngine) Rules() []models.PatternRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Rules()
}

// Snapshot returns an independent copy of the current engine.
func (s *SyncEngine) Snapshot() *Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Clone()
}
