package replay

import (
	"context"

	"github.com/pasturelab/herdsense/internal/herd"
	"github.com/pasturelab/herdsense/internal/pipeline"
	"github.com/pasturelab/herdsense/internal/store"
)

// #region types

// Result captures the outcome of replaying one submission through the
// full pipeline.
type Result struct {
	Index           int
	Timestamp       string
	Level           herd.RiskLevel
	Score           int
	BaselineStatus  herd.BaselineStatus
	DriftState      herd.DriftState
	ConsecutiveDays int
	AlertRaised     bool
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Submissions   int
	Alerts        int
	HighCount     int
	ModerateCount int
	DriftDays     int
	FinalBaseline herd.Baseline
}

// #endregion types

// #region replay

// Replay runs a fixture's submissions through a fresh in-memory pipeline,
// one by one in order. Operates entirely in-memory.
func Replay(f Fixture) ([]Result, Summary, error) {
	mem := store.NewMemory()
	p := pipeline.New(mem, nil)
	ctx := context.Background()

	results := make([]Result, 0, len(f.Submissions))
	var summary Summary

	for i, sub := range f.Submissions {
		res, err := p.Process(ctx, sub.Metrics(f.SubjectID))
		if err != nil {
			return results, summary, err
		}

		r := Result{
			Index:          i,
			Timestamp:      sub.Timestamp.Format("2006-01-02 15:04"),
			Level:          res.Assessment.Level,
			Score:          res.Assessment.Score,
			BaselineStatus: res.Baseline.Status,
			AlertRaised:    res.Alert != nil,
		}
		if res.Drift != nil {
			r.DriftState = res.Drift.State
			r.ConsecutiveDays = res.Drift.ConsecutiveDays
		}
		results = append(results, r)

		summary.Submissions++
		if r.AlertRaised {
			summary.Alerts++
		}
		switch r.Level {
		case herd.RiskHigh:
			summary.HighCount++
		case herd.RiskModerate:
			summary.ModerateCount++
		}
		if r.DriftState == herd.DriftEarly || r.DriftState == herd.DriftActionRequired {
			summary.DriftDays++
		}
		summary.FinalBaseline = res.Baseline
	}

	return results, summary, nil
}

// #endregion replay
