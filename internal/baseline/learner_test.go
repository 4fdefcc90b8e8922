package baseline

import (
	"math"
	"testing"
	"time"

	"github.com/pasturelab/herdsense/internal/herd"
)

func makeHistory(subjectID string, start time.Time, n int, activity, speed, visits float64) []herd.Metrics {
	history := make([]herd.Metrics, n)
	for i := range history {
		history[i] = herd.Metrics{
			SubjectID:     subjectID,
			Timestamp:     start.Add(time.Duration(i) * 12 * time.Hour),
			ActivityLevel: activity,
			AvgSpeed:      speed,
			Visits24h:     visits,
			Visits48h:     visits * 2,
		}
	}
	return history
}

func TestInitialize(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	b := Initialize("cow-17", now)

	if b.Status != herd.BaselineLearning {
		t.Errorf("status: got %q, want %q", b.Status, herd.BaselineLearning)
	}
	if b.RequiredPoints != RequiredDataPoints {
		t.Errorf("required points: got %d, want %d", b.RequiredPoints, RequiredDataPoints)
	}
	if !b.LearningStart.Equal(now) {
		t.Errorf("learning start: got %v, want %v", b.LearningStart, now)
	}
	if b.DataPoints != 0 {
		t.Errorf("data points: got %d, want 0", b.DataPoints)
	}
}

func TestAddDataPointTransition(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		points int
		days   float64
		want   herd.BaselineStatus
	}{
		{"too-few-points-too-early", 5, 2, herd.BaselineLearning},
		{"enough-points-too-early", 25, 3, herd.BaselineLearning},
		{"too-few-points-late", 10, 10, herd.BaselineLearning},
		{"exactly-at-both-thresholds", 20, 7, herd.BaselineStable},
		{"well-past-both", 40, 14, herd.BaselineStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Initialize("cow-17", start)
			now := start.Add(time.Duration(tt.days * 24 * float64(time.Hour)))
			history := makeHistory("cow-17", start, tt.points, 1050, 3.8, 7)

			got := AddDataPoint(b, history, now)
			if got.Status != tt.want {
				t.Errorf("status: got %q, want %q", got.Status, tt.want)
			}
			if got.DataPoints != tt.points {
				t.Errorf("data points: got %d, want %d", got.DataPoints, tt.points)
			}
		})
	}
}

func TestAddDataPointStatistics(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	b := Initialize("cow-17", start)

	// Population stddev of {2, 4, 4, 4, 5, 5, 7, 9} is 2, mean 5.
	vals := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	history := make([]herd.Metrics, len(vals))
	for i, v := range vals {
		history[i] = herd.Metrics{ActivityLevel: v, AvgSpeed: v, Visits24h: v}
	}

	got := AddDataPoint(b, history, start.Add(24*time.Hour))
	if math.Abs(got.AvgActivity-5) > 1e-9 {
		t.Errorf("avg activity: got %v, want 5", got.AvgActivity)
	}
	if math.Abs(got.StdActivity-2) > 1e-9 {
		t.Errorf("std activity: got %v, want 2", got.StdActivity)
	}
	if math.Abs(got.AvgSpeed-5) > 1e-9 {
		t.Errorf("avg speed: got %v, want 5", got.AvgSpeed)
	}
	if math.Abs(got.AvgVisits-5) > 1e-9 {
		t.Errorf("avg visits: got %v, want 5", got.AvgVisits)
	}
}

func TestAddDataPointSinglePointStdDevZero(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	b := Initialize("cow-17", start)
	history := makeHistory("cow-17", start, 1, 1050, 3.8, 7)

	got := AddDataPoint(b, history, start.Add(time.Hour))
	if got.StdActivity != 0 || got.StdSpeed != 0 || got.StdVisits != 0 {
		t.Errorf("stddev with one point: got %v/%v/%v, want all 0",
			got.StdActivity, got.StdSpeed, got.StdVisits)
	}
}

func TestStableBaselineFrozen(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	b := Initialize("cow-17", start)
	history := makeHistory("cow-17", start, 20, 1050, 3.8, 7)

	stable := AddDataPoint(b, history, start.Add(8*24*time.Hour))
	if !stable.Stable() {
		t.Fatalf("expected STABLE, got %q", stable.Status)
	}

	// Feeding wildly different history must not change the frozen statistics
	// or revert the status.
	shifted := makeHistory("cow-17", start, 40, 200, 9.9, 1)
	after := AddDataPoint(stable, shifted, start.Add(30*24*time.Hour))

	if after != stable {
		t.Errorf("stable baseline mutated: got %+v, want %+v", after, stable)
	}
}

func TestLearningProgress(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		points int
		days   float64
		want   float64
	}{
		{"empty", 0, 0, 0},
		{"points-behind", 5, 7, 0.25},
		{"days-behind", 20, 3.5, 0.5},
		{"both-met-capped", 40, 21, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Initialize("cow-17", start)
			b.DataPoints = tt.points
			now := start.Add(time.Duration(tt.days * 24 * float64(time.Hour)))

			got := LearningProgress(b, now)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("progress: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLearningProgressNonDecreasing(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	b := Initialize("cow-17", start)

	prev := 0.0
	for day := 0; day <= 10; day++ {
		now := start.Add(time.Duration(day) * 24 * time.Hour)
		history := makeHistory("cow-17", start, day*3, 1050, 3.8, 7)
		b = AddDataPoint(b, history, now)

		got := LearningProgress(b, now)
		if got < prev {
			t.Fatalf("day %d: progress decreased from %v to %v", day, prev, got)
		}
		prev = got
	}
	if prev != 1 {
		t.Errorf("final progress: got %v, want 1", prev)
	}
}

func TestLearningProgressStable(t *testing.T) {
	b := herd.Baseline{Status: herd.BaselineStable}
	if got := LearningProgress(b, time.Now()); got != 1 {
		t.Errorf("progress for STABLE: got %v, want 1", got)
	}
}
