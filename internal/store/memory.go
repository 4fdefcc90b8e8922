package store

import (
	"context"
	"sort"
	"sync"

	"github.com/pasturelab/herdsense/internal/drift"
	"github.com/pasturelab/herdsense/internal/herd"
)

// #region memory-store

// Memory is the reference in-process Store, used by tests, the replay
// harness, and single-binary demos.
type Memory struct {
	mu         sync.RWMutex
	metrics    map[string][]herd.Metrics
	baselines  map[string]herd.Baseline
	deviations map[string][]herd.DailyDeviation
	drifts     map[string]herd.DriftAssessment
	risks      map[string]herd.RiskAssessment
	alerts     []herd.Alert
	subjects   map[string]bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		metrics:    make(map[string][]herd.Metrics),
		baselines:  make(map[string]herd.Baseline),
		deviations: make(map[string][]herd.DailyDeviation),
		drifts:     make(map[string]herd.DriftAssessment),
		risks:      make(map[string]herd.RiskAssessment),
		subjects:   make(map[string]bool),
	}
}

// #endregion memory-store

// #region metrics

func (s *Memory) MetricsHistory(_ context.Context, subjectID string) ([]herd.Metrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]herd.Metrics, len(s.metrics[subjectID]))
	copy(out, s.metrics[subjectID])
	return out, nil
}

func (s *Memory) AppendMetrics(_ context.Context, m herd.Metrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.metrics[m.SubjectID], m)
	if len(history) > herd.MetricsHistoryCap {
		history = history[len(history)-herd.MetricsHistoryCap:]
	}
	s.metrics[m.SubjectID] = history
	s.subjects[m.SubjectID] = true
	return nil
}

// #endregion metrics

// #region baseline

func (s *Memory) Baseline(_ context.Context, subjectID string) (herd.Baseline, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.baselines[subjectID]
	return b, ok, nil
}

func (s *Memory) PutBaseline(_ context.Context, b herd.Baseline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baselines[b.SubjectID] = b
	s.subjects[b.SubjectID] = true
	return nil
}

// #endregion baseline

// #region deviations

func (s *Memory) DeviationHistory(_ context.Context, subjectID string) ([]herd.DailyDeviation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]herd.DailyDeviation, len(s.deviations[subjectID]))
	copy(out, s.deviations[subjectID])
	return out, nil
}

func (s *Memory) UpsertDeviation(_ context.Context, subjectID string, d herd.DailyDeviation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviations[subjectID] = drift.Upsert(s.deviations[subjectID], d)
	return nil
}

// #endregion deviations

// #region assessments

func (s *Memory) DriftAssessment(_ context.Context, subjectID string) (herd.DriftAssessment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.drifts[subjectID]
	return a, ok, nil
}

func (s *Memory) PutDriftAssessment(_ context.Context, a herd.DriftAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drifts[a.SubjectID] = a
	return nil
}

func (s *Memory) RiskAssessment(_ context.Context, subjectID string) (herd.RiskAssessment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.risks[subjectID]
	return a, ok, nil
}

func (s *Memory) PutRiskAssessment(_ context.Context, a herd.RiskAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.risks[a.SubjectID] = a
	return nil
}

// #endregion assessments

// #region alerts

func (s *Memory) AppendAlert(_ context.Context, a herd.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	if len(s.alerts) > herd.AlertLogCap {
		s.alerts = s.alerts[len(s.alerts)-herd.AlertLogCap:]
	}
	return nil
}

func (s *Memory) Alerts(_ context.Context) ([]herd.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]herd.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out, nil
}

// #endregion alerts

// #region subjects

func (s *Memory) Subjects(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.subjects))
	for id := range s.subjects {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// #endregion subjects
