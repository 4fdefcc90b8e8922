// Package pipeline wires the pure core packages together over a Store:
// baseline learning, drift detection, risk assessment with explanation,
// and alerting. It is the only place that does I/O, logging, or metrics.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pasturelab/herdsense/internal/alert"
	"github.com/pasturelab/herdsense/internal/baseline"
	"github.com/pasturelab/herdsense/internal/drift"
	"github.com/pasturelab/herdsense/internal/explain"
	"github.com/pasturelab/herdsense/internal/herd"
	"github.com/pasturelab/herdsense/internal/metrics"
	"github.com/pasturelab/herdsense/internal/risk"
	"github.com/pasturelab/herdsense/internal/store"
)

// #region pipeline

// Pipeline processes metrics submissions for monitored subjects. The caller
// must not run concurrent submissions for the same subject: baseline and
// deviation updates are read-modify-write.
type Pipeline struct {
	store  store.Store
	logger *zap.Logger
}

// New creates a pipeline over the given store.
func New(s store.Store, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{store: s, logger: logger}
}

// Result bundles everything one submission produced.
type Result struct {
	Baseline   herd.Baseline
	Assessment herd.RiskAssessment
	Drift      *herd.DriftAssessment // nil while the baseline is learning
	Alert      *herd.Alert           // nil unless MODERATE/HIGH on a stable baseline
}

// #endregion pipeline

// #region process

// Process runs one metrics submission through the full flow: baseline
// update, drift detection (once stable), personalized risk assessment with
// explanation, and alerting on MODERATE/HIGH.
func (p *Pipeline) Process(ctx context.Context, m herd.Metrics) (Result, error) {
	metrics.SubmissionsTotal.Inc()

	if err := p.store.AppendMetrics(ctx, m); err != nil {
		return Result{}, fmt.Errorf("append metrics: %w", err)
	}
	history, err := p.store.MetricsHistory(ctx, m.SubjectID)
	if err != nil {
		return Result{}, fmt.Errorf("load history: %w", err)
	}

	b, err := p.updateBaseline(ctx, m, history)
	if err != nil {
		return Result{}, err
	}

	var da *herd.DriftAssessment
	if b.Stable() {
		da, err = p.updateDrift(ctx, m, b)
		if err != nil {
			return Result{}, err
		}
	}

	a := risk.AssessPersonal(m, b)
	expl := explain.Generate(a, m, b, da)
	a.Explanation = &expl

	if err := p.store.PutRiskAssessment(ctx, a); err != nil {
		return Result{}, fmt.Errorf("save assessment: %w", err)
	}

	metrics.AssessmentsTotal.WithLabelValues(string(a.Level)).Inc()
	metrics.RiskScore.WithLabelValues(a.SubjectID).Set(float64(a.Score))

	p.logger.Info("assessment computed",
		zap.String("subject_id", a.SubjectID),
		zap.String("level", string(a.Level)),
		zap.Int("score", a.Score),
		zap.String("baseline_status", string(b.Status)),
	)

	result := Result{Baseline: b, Assessment: a, Drift: da}

	if b.Stable() && a.Level != herd.RiskLow {
		alrt := alert.Format(a, m.Timestamp)
		if err := p.store.AppendAlert(ctx, alrt); err != nil {
			return Result{}, fmt.Errorf("append alert: %w", err)
		}
		metrics.AlertsTotal.WithLabelValues(string(alrt.Severity)).Inc()
		p.logger.Warn("alert raised",
			zap.String("subject_id", alrt.SubjectID),
			zap.String("severity", string(alrt.Severity)),
			zap.Int("score", alrt.Score),
		)
		result.Alert = &alrt
	}

	return result, nil
}

// #endregion process

// #region baseline-step

func (p *Pipeline) updateBaseline(ctx context.Context, m herd.Metrics, history []herd.Metrics) (herd.Baseline, error) {
	b, ok, err := p.store.Baseline(ctx, m.SubjectID)
	if err != nil {
		return herd.Baseline{}, fmt.Errorf("load baseline: %w", err)
	}
	if !ok {
		b = baseline.Initialize(m.SubjectID, m.Timestamp)
		p.logger.Info("baseline learning started",
			zap.String("subject_id", m.SubjectID),
		)
	}

	wasLearning := !b.Stable()
	b = baseline.AddDataPoint(b, history, m.Timestamp)
	if err := p.store.PutBaseline(ctx, b); err != nil {
		return herd.Baseline{}, fmt.Errorf("save baseline: %w", err)
	}

	if wasLearning && b.Stable() {
		p.logger.Info("baseline stabilized",
			zap.String("subject_id", m.SubjectID),
			zap.Int("data_points", b.DataPoints),
		)
	}
	return b, nil
}

// #endregion baseline-step

// #region drift-step

func (p *Pipeline) updateDrift(ctx context.Context, m herd.Metrics, b herd.Baseline) (*herd.DriftAssessment, error) {
	today := drift.DateOf(m.Timestamp)
	d := drift.ComputeDaily(m, b, today)

	if err := p.store.UpsertDeviation(ctx, m.SubjectID, d); err != nil {
		return nil, fmt.Errorf("upsert deviation: %w", err)
	}
	history, err := p.store.DeviationHistory(ctx, m.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("load deviations: %w", err)
	}

	da := drift.Detect(m.SubjectID, drift.Window(history, today))
	if err := p.store.PutDriftAssessment(ctx, da); err != nil {
		return nil, fmt.Errorf("save drift: %w", err)
	}

	metrics.DriftStatesTotal.WithLabelValues(string(da.State)).Inc()
	if da.State != herd.DriftStable {
		p.logger.Warn("behavioral drift detected",
			zap.String("subject_id", da.SubjectID),
			zap.String("state", string(da.State)),
			zap.Int("consecutive_days", da.ConsecutiveDays),
			zap.Strings("signals", da.Signals),
		)
	}
	return &da, nil
}

// #endregion drift-step

// #region alerts-view

// RecentAlerts returns the stored alert log in display order.
func (p *Pipeline) RecentAlerts(ctx context.Context) ([]herd.Alert, error) {
	alerts, err := p.store.Alerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}
	alert.SortForDisplay(alerts)
	return alerts, nil
}

// #endregion alerts-view
