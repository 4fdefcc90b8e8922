package explain

import (
	"strings"
	"testing"
	"time"

	"github.com/pasturelab/herdsense/internal/herd"
	"github.com/pasturelab/herdsense/internal/risk"
)

func stableBaseline() herd.Baseline {
	return herd.Baseline{
		SubjectID:   "cow-17",
		AvgActivity: 1000,
		AvgSpeed:    3.8,
		StdSpeed:    0.35,
		AvgVisits:   7,
		Status:      herd.BaselineStable,
	}
}

func snapshot(activity, speed, visits24, visits48 float64) herd.Metrics {
	return herd.Metrics{
		SubjectID:     "cow-17",
		Timestamp:     time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		ActivityLevel: activity,
		AvgSpeed:      speed,
		Visits24h:     visits24,
		Visits48h:     visits48,
	}
}

func TestGenerateContributorsMatchScore(t *testing.T) {
	b := stableBaseline()
	m := snapshot(632, 3.2186, 3.626, 7.252) // 40 + 35 + 0 = 75
	a := risk.AssessPersonal(m, b)

	got := Generate(a, m, b, nil)

	sum := 0
	for _, c := range got.Contributors {
		sum += c.Impact
	}
	if sum > a.Score {
		t.Errorf("contributor impacts sum %d exceeds risk score %d", sum, a.Score)
	}
	if sum != 75 {
		t.Errorf("contributor impacts sum: got %d, want 75", sum)
	}
	if got.HealthScore != 25 {
		t.Errorf("health score: got %d, want 25", got.HealthScore)
	}
}

func TestGenerateContributorsSortedByImpact(t *testing.T) {
	b := stableBaseline()
	// Activity -20% (25 pts), visits -48.2% (35 pts), speed quiet.
	m := snapshot(800, 3.8, 3.626, 7.252)
	a := risk.AssessPersonal(m, b)

	got := Generate(a, m, b, nil)

	if len(got.Contributors) != 2 {
		t.Fatalf("contributors: got %d (%v), want 2", len(got.Contributors), got.Contributors)
	}
	if got.Contributors[0].Signal != herd.SignalVisits || got.Contributors[0].Impact != 35 {
		t.Errorf("top contributor: got %+v, want visits/35", got.Contributors[0])
	}
	if got.Contributors[1].Signal != herd.SignalActivity || got.Contributors[1].Impact != 25 {
		t.Errorf("second contributor: got %+v, want activity/25", got.Contributors[1])
	}
}

func TestGenerateSpeedDetailIncludesSigma(t *testing.T) {
	b := stableBaseline()
	// Speed 1.9 vs 3.8: -50%, sigma 50/35 ≈ 1.43 → inactive. Push stddev down
	// so sigma crosses the active threshold instead.
	b.StdSpeed = 0.25 // sigma = 50/25 = 2.0 → 15 pts, active
	m := snapshot(1000, 1.9, 7, 14)
	a := risk.AssessPersonal(m, b)

	got := Generate(a, m, b, nil)

	if len(got.Contributors) != 1 || got.Contributors[0].Signal != herd.SignalSpeed {
		t.Fatalf("contributors: got %v, want single speed entry", got.Contributors)
	}
	if !strings.Contains(got.Contributors[0].Detail, "sigma") {
		t.Errorf("speed detail missing sigma figure: %q", got.Contributors[0].Detail)
	}
	if got.Contributors[0].Impact != 15 {
		t.Errorf("speed impact: got %d, want 15", got.Contributors[0].Impact)
	}
}

func TestConfidenceLevels(t *testing.T) {
	tests := []struct {
		name         string
		status       herd.BaselineStatus
		days         int
		contributors int
		want         herd.Confidence
	}{
		{"learning-always-low", herd.BaselineLearning, 7, 3, herd.ConfidenceLow},
		{"high", herd.BaselineStable, 5, 2, herd.ConfidenceHigh},
		{"medium-by-days", herd.BaselineStable, 3, 0, herd.ConfidenceMedium},
		{"medium-by-contributors", herd.BaselineStable, 0, 2, herd.ConfidenceMedium},
		{"low", herd.BaselineStable, 2, 1, herd.ConfidenceLow},
		{"days-alone-not-high", herd.BaselineStable, 6, 1, herd.ConfidenceMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := confidenceFor(tt.status, tt.days, tt.contributors)
			if got != tt.want {
				t.Errorf("confidence: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecommendationBranches(t *testing.T) {
	tests := []struct {
		name         string
		level        herd.RiskLevel
		confidence   herd.Confidence
		drift        herd.DriftState
		contributors int
		wantPart     string
	}{
		{"high-multiple", herd.RiskHigh, herd.ConfidenceHigh, herd.DriftStable, 3, "Multiple behavioral signals"},
		{"high-single", herd.RiskHigh, herd.ConfidenceLow, herd.DriftStable, 1, "one behavioral signal"},
		{"moderate-confident", herd.RiskModerate, herd.ConfidenceHigh, herd.DriftStable, 2, "within 24 hours"},
		{"moderate-tentative", herd.RiskModerate, herd.ConfidenceMedium, herd.DriftStable, 1, "Increase observation frequency"},
		{"low-early-drift", herd.RiskLow, herd.ConfidenceMedium, herd.DriftEarly, 0, "early behavioral drift"},
		{"low-action-drift", herd.RiskLow, herd.ConfidenceMedium, herd.DriftActionRequired, 0, "sustained behavioral drift"},
		{"low-all-clear", herd.RiskLow, herd.ConfidenceLow, herd.DriftStable, 0, "No intervention needed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recommendation(tt.level, tt.confidence, tt.drift, tt.contributors)
			if !strings.Contains(got, tt.wantPart) {
				t.Errorf("recommendation %q missing %q", got, tt.wantPart)
			}
		})
	}
}

func TestGenerateUsesDriftAssessment(t *testing.T) {
	b := stableBaseline()
	m := snapshot(1000, 3.8, 7, 14) // zero risk
	a := risk.AssessPersonal(m, b)

	da := &herd.DriftAssessment{
		SubjectID:       "cow-17",
		State:           herd.DriftEarly,
		ConsecutiveDays: 4,
	}

	got := Generate(a, m, b, da)

	if got.ConsistencyDays != 4 {
		t.Errorf("consistency days: got %d, want 4", got.ConsistencyDays)
	}
	if !strings.Contains(got.Recommendation, "preventive check-up") {
		t.Errorf("recommendation for low risk with early drift: %q", got.Recommendation)
	}
	if got.BaselineType != "personal" {
		t.Errorf("baseline type: got %q, want personal", got.BaselineType)
	}
}
