package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pasturelab/herdsense/internal/herd"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture: a recorded
// sequence of daily submissions with optional expected outcomes.
type Fixture struct {
	Description string               `json:"description"`
	SubjectID   string               `json:"subject_id"`
	Submissions []FixtureSubmission  `json:"submissions"`
	Expected    []FixtureExpectation `json:"expected,omitempty"`
}

// FixtureSubmission is one recorded telemetry submission.
type FixtureSubmission struct {
	Timestamp time.Time `json:"timestamp"`
	Activity  float64   `json:"activity"`
	Speed     float64   `json:"speed"`
	Visits24h float64   `json:"visits_24h"`
	Visits48h float64   `json:"visits_48h"`
}

// FixtureExpectation asserts the outcome after the submission at Index.
type FixtureExpectation struct {
	Index          int    `json:"index"`
	Level          string `json:"level,omitempty"`
	Score          *int   `json:"score,omitempty"`
	DriftState     string `json:"drift_state,omitempty"`
	BaselineStatus string `json:"baseline_status,omitempty"`
	AlertRaised    *bool  `json:"alert_raised,omitempty"`
}

// #endregion fixture-types

// #region load

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	if f.SubjectID == "" {
		return Fixture{}, fmt.Errorf("fixture missing subject_id")
	}
	return f, nil
}

// Metrics converts a fixture submission into a telemetry snapshot.
func (s FixtureSubmission) Metrics(subjectID string) herd.Metrics {
	return herd.Metrics{
		SubjectID:     subjectID,
		Timestamp:     s.Timestamp,
		ActivityLevel: s.Activity,
		AvgSpeed:      s.Speed,
		Visits24h:     s.Visits24h,
		Visits48h:     s.Visits48h,
	}
}

// #endregion load

// #region verify

// Verify checks replay results against the fixture's expectations and
// returns one message per mismatch.
func (f Fixture) Verify(results []Result) []string {
	var failures []string
	for _, exp := range f.Expected {
		if exp.Index < 0 || exp.Index >= len(results) {
			failures = append(failures, fmt.Sprintf("expectation index %d out of range (%d results)", exp.Index, len(results)))
			continue
		}
		r := results[exp.Index]

		if exp.Level != "" && string(r.Level) != exp.Level {
			failures = append(failures, fmt.Sprintf("submission %d: level %s, expected %s", exp.Index, r.Level, exp.Level))
		}
		if exp.Score != nil && r.Score != *exp.Score {
			failures = append(failures, fmt.Sprintf("submission %d: score %d, expected %d", exp.Index, r.Score, *exp.Score))
		}
		if exp.DriftState != "" && string(r.DriftState) != exp.DriftState {
			failures = append(failures, fmt.Sprintf("submission %d: drift %s, expected %s", exp.Index, r.DriftState, exp.DriftState))
		}
		if exp.BaselineStatus != "" && string(r.BaselineStatus) != exp.BaselineStatus {
			failures = append(failures, fmt.Sprintf("submission %d: baseline %s, expected %s", exp.Index, r.BaselineStatus, exp.BaselineStatus))
		}
		if exp.AlertRaised != nil && r.AlertRaised != *exp.AlertRaised {
			failures = append(failures, fmt.Sprintf("submission %d: alert_raised %v, expected %v", exp.Index, r.AlertRaised, *exp.AlertRaised))
		}
	}
	return failures
}

// #endregion verify
