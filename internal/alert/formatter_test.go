package alert

import (
	"strings"
	"testing"
	"time"

	"github.com/pasturelab/herdsense/internal/herd"
)

func assessment(level herd.RiskLevel, score int, activity, speed, visits bool, factors ...string) herd.RiskAssessment {
	return herd.RiskAssessment{
		SubjectID:           "cow-17",
		Timestamp:           time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
		Level:               level,
		Score:               score,
		ActivityDrop:        activity,
		SpeedAnomaly:        speed,
		VisitReduction:      visits,
		ContributingFactors: factors,
	}
}

func TestFormatHighSeverity(t *testing.T) {
	a := assessment(herd.RiskHigh, 75, true, false, true,
		"Activity level dropped 36.8% below baseline",
		"Corridor visits down 48.2% over 24h")

	got := Format(a, time.Now())

	if got.Severity != herd.RiskHigh {
		t.Errorf("severity: got %q, want HIGH", got.Severity)
	}
	if got.ID == "" {
		t.Error("expected non-empty alert ID")
	}
	if !strings.Contains(got.Explanation, "cow-17") || !strings.Contains(got.Explanation, "HIGH") {
		t.Errorf("explanation missing subject or level: %q", got.Explanation)
	}
	for _, f := range a.ContributingFactors {
		if !strings.Contains(got.Explanation, f) {
			t.Errorf("explanation missing factor %q", f)
		}
	}

	joined := strings.Join(got.Recommendations, "\n")
	for _, want := range []string{"Isolate", "physical inspection", "feed and water", "corridor access", "Document"} {
		if !strings.Contains(joined, want) {
			t.Errorf("recommendations missing %q: %v", want, got.Recommendations)
		}
	}
	if strings.Contains(joined, "gait") {
		t.Errorf("speed check present without active speed signal: %v", got.Recommendations)
	}
}

func TestFormatModerateSeverity(t *testing.T) {
	a := assessment(herd.RiskModerate, 45, false, true, false,
		"Movement speed 1.8 sigma from baseline")

	got := Format(a, time.Now())

	joined := strings.Join(got.Recommendations, "\n")
	for _, want := range []string{"monitoring frequency", "gait", "if the deviation persists"} {
		if !strings.Contains(joined, want) {
			t.Errorf("recommendations missing %q: %v", want, got.Recommendations)
		}
	}
	if strings.Contains(joined, "Isolate") {
		t.Errorf("isolation recommended for MODERATE: %v", got.Recommendations)
	}
}

func TestFormatAllClear(t *testing.T) {
	a := assessment(herd.RiskLow, 0, false, false, false,
		"All behavioral metrics within normal range")

	got := Format(a, time.Now())

	if !strings.Contains(got.Explanation, "no active behavioral anomalies") {
		t.Errorf("explanation: %q", got.Explanation)
	}
	if len(got.Recommendations) != 1 || !strings.Contains(got.Recommendations[0], "routine") {
		t.Errorf("recommendations: %v", got.Recommendations)
	}
}

func TestSortForDisplay(t *testing.T) {
	t0 := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	alerts := []herd.Alert{
		{ID: "low-new", Severity: herd.RiskLow, Timestamp: t0.Add(3 * time.Hour)},
		{ID: "high-old", Severity: herd.RiskHigh, Timestamp: t0},
		{ID: "moderate", Severity: herd.RiskModerate, Timestamp: t0.Add(2 * time.Hour)},
		{ID: "high-new", Severity: herd.RiskHigh, Timestamp: t0.Add(time.Hour)},
	}

	SortForDisplay(alerts)

	wantOrder := []string{"high-new", "high-old", "moderate", "low-new"}
	for i, want := range wantOrder {
		if alerts[i].ID != want {
			t.Errorf("position %d: got %q, want %q (full order: %v)", i, alerts[i].ID, want, ids(alerts))
		}
	}
}

func ids(alerts []herd.Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.ID
	}
	return out
}
