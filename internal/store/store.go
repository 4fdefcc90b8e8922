// Package store defines the persistence contract the pipeline drives the
// core through, with in-memory, SQLite, and Redis implementations. All caps
// and replace semantics live here; the core packages stay pure.
package store

import (
	"context"

	"github.com/pasturelab/herdsense/internal/herd"
)

// #region interface

// Store is the collaborator persistence surface. Implementations must keep
// metrics histories time-ordered and enforce the retention caps. Callers
// serialize writes per subject; Store adds no cross-subject coordination.
type Store interface {
	// Metrics history: append-only per subject, oldest first, capped.
	MetricsHistory(ctx context.Context, subjectID string) ([]herd.Metrics, error)
	AppendMetrics(ctx context.Context, m herd.Metrics) error

	// Baseline: single record per subject, replace semantics.
	Baseline(ctx context.Context, subjectID string) (herd.Baseline, bool, error)
	PutBaseline(ctx context.Context, b herd.Baseline) error

	// Daily deviations: upsert by date, newest first, capped.
	DeviationHistory(ctx context.Context, subjectID string) ([]herd.DailyDeviation, error)
	UpsertDeviation(ctx context.Context, subjectID string, d herd.DailyDeviation) error

	// Current drift and risk assessments: single record each, replaced.
	DriftAssessment(ctx context.Context, subjectID string) (herd.DriftAssessment, bool, error)
	PutDriftAssessment(ctx context.Context, a herd.DriftAssessment) error
	RiskAssessment(ctx context.Context, subjectID string) (herd.RiskAssessment, bool, error)
	PutRiskAssessment(ctx context.Context, a herd.RiskAssessment) error

	// Alerts: append-only log capped at the most recent entries.
	AppendAlert(ctx context.Context, a herd.Alert) error
	Alerts(ctx context.Context) ([]herd.Alert, error)

	// Subjects lists every subject id seen by the store.
	Subjects(ctx context.Context) ([]string, error)
}

// #endregion interface
