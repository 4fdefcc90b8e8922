package baseline

import (
	"time"

	"github.com/pasturelab/herdsense/internal/deviation"
	"github.com/pasturelab/herdsense/internal/herd"
)

// #region constants

const (
	// RequiredDataPoints is the minimum sample count before a baseline
	// can transition to STABLE.
	RequiredDataPoints = 20

	// MinLearningDays is the minimum elapsed calendar span before a
	// baseline can transition to STABLE.
	MinLearningDays = 7
)

// #endregion constants

// #region initialize

// Initialize creates a fresh LEARNING baseline for a subject.
func Initialize(subjectID string, now time.Time) herd.Baseline {
	return herd.Baseline{
		SubjectID:      subjectID,
		Status:         herd.BaselineLearning,
		LearningStart:  now,
		RequiredPoints: RequiredDataPoints,
	}
}

// #endregion initialize

// #region add-data-point

// AddDataPoint recomputes the baseline statistics over the full metrics
// history. No-op once the baseline is STABLE: the LEARNING→STABLE transition
// is one-way and the frozen statistics stay fixed.
func AddDataPoint(b herd.Baseline, history []herd.Metrics, now time.Time) herd.Baseline {
	if b.Stable() {
		return b
	}

	activity := make([]float64, len(history))
	speed := make([]float64, len(history))
	visits := make([]float64, len(history))
	for i, m := range history {
		activity[i] = m.ActivityLevel
		speed[i] = m.AvgSpeed
		visits[i] = m.Visits24h
	}

	b.AvgActivity = deviation.Mean(activity)
	b.StdActivity = deviation.StdDev(activity)
	b.AvgSpeed = deviation.Mean(speed)
	b.StdSpeed = deviation.StdDev(speed)
	b.AvgVisits = deviation.Mean(visits)
	b.StdVisits = deviation.StdDev(visits)
	b.DataPoints = len(history)

	if b.DataPoints >= RequiredDataPoints && daysSince(b.LearningStart, now) >= MinLearningDays {
		b.Status = herd.BaselineStable
	}

	return b
}

// #endregion add-data-point

// #region learning-progress

// LearningProgress reports how far along the learning window is, in [0, 1].
// Progress is gated by whichever requirement (points or days) is further behind.
func LearningProgress(b herd.Baseline, now time.Time) float64 {
	if b.Stable() {
		return 1
	}

	pointsFrac := float64(b.DataPoints) / float64(RequiredDataPoints)
	daysFrac := daysSince(b.LearningStart, now) / float64(MinLearningDays)

	progress := pointsFrac
	if daysFrac < progress {
		progress = daysFrac
	}
	if progress > 1 {
		progress = 1
	}
	return progress
}

// #endregion learning-progress

// #region helpers

// daysSince measures elapsed calendar days as a fraction.
func daysSince(start, now time.Time) float64 {
	return now.Sub(start).Hours() / 24
}

// #endregion helpers
