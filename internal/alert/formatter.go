package alert

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pasturelab/herdsense/internal/herd"
)

// #region format

// Format turns a risk assessment into a prioritized alert. Severity mirrors
// the risk level; the free-text explanation lists the contributing factors.
func Format(a herd.RiskAssessment, now time.Time) herd.Alert {
	return herd.Alert{
		ID:              uuid.New().String(),
		SubjectID:       a.SubjectID,
		Severity:        a.Level,
		Timestamp:       now,
		Explanation:     explanationText(a),
		Recommendations: recommendations(a),
		ActivityDrop:    a.ActivityDrop,
		SpeedAnomaly:    a.SpeedAnomaly,
		VisitReduction:  a.VisitReduction,
		Score:           a.Score,
	}
}

// explanationText renders subject, level, and a bullet list of factors,
// or an all-clear sentence when nothing is active.
func explanationText(a herd.RiskAssessment) string {
	if !a.ActivityDrop && !a.SpeedAnomaly && !a.VisitReduction {
		return fmt.Sprintf("Subject %s shows no active behavioral anomalies (risk %s, score %d).",
			a.SubjectID, a.Level, a.Score)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Subject %s assessed at %s risk (score %d):", a.SubjectID, a.Level, a.Score)
	for _, f := range a.ContributingFactors {
		sb.WriteString("\n- ")
		sb.WriteString(f)
	}
	return sb.String()
}

// #endregion format

// #region recommendations

// recommendations builds the severity-tiered action list, with
// signal-specific checks inserted for the active signals.
func recommendations(a herd.RiskAssessment) []string {
	var out []string

	switch a.Level {
	case herd.RiskHigh:
		out = append(out,
			"Isolate the animal for observation",
			"Perform a physical inspection",
		)
		out = append(out, signalChecks(a)...)
		out = append(out, "Document findings in the health record")

	case herd.RiskModerate:
		out = append(out, "Increase monitoring frequency for the next 48 hours")
		out = append(out, signalChecks(a)...)
		out = append(out, "Consult a veterinarian if the deviation persists")

	default:
		out = append(out, "Continue routine monitoring")
	}

	return out
}

func signalChecks(a herd.RiskAssessment) []string {
	var out []string
	if a.ActivityDrop {
		out = append(out, "Check feed and water intake for reduced activity")
	}
	if a.SpeedAnomaly {
		out = append(out, "Examine gait and hooves for movement anomalies")
	}
	if a.VisitReduction {
		out = append(out, "Verify corridor access and social behavior")
	}
	return out
}

// #endregion recommendations

// #region ordering

var severityRank = map[herd.RiskLevel]int{
	herd.RiskHigh:     2,
	herd.RiskModerate: 1,
	herd.RiskLow:      0,
}

// SortForDisplay orders alerts by severity (HIGH first), then newest first
// within a tier.
func SortForDisplay(alerts []herd.Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := severityRank[alerts[i].Severity], severityRank[alerts[j].Severity]
		if ri != rj {
			return ri > rj
		}
		return alerts[i].Timestamp.After(alerts[j].Timestamp)
	})
}

// #endregion ordering
