package explain

import (
	"fmt"
	"sort"

	"github.com/pasturelab/herdsense/internal/deviation"
	"github.com/pasturelab/herdsense/internal/herd"
	"github.com/pasturelab/herdsense/internal/risk"
)

// #region generate

// Generate builds the transparency breakdown for a personalized risk
// assessment. Contributor impacts are recomputed through the risk package's
// threshold tables, so the listed points always reproduce exactly the
// numbers that drove the score. da may be nil when no drift assessment
// exists yet for the subject.
func Generate(a herd.RiskAssessment, m herd.Metrics, b herd.Baseline, da *herd.DriftAssessment) herd.Explanation {
	contributors := buildContributors(a, m, b)

	consistencyDays := 0
	driftState := herd.DriftStable
	if da != nil {
		consistencyDays = da.ConsecutiveDays
		driftState = da.State
	}

	baselineType := "herd"
	if a.UsedPersonalBaseline {
		baselineType = "personal"
	}

	confidence := confidenceFor(a.BaselineStatus, consistencyDays, len(contributors))

	return herd.Explanation{
		HealthScore:     100 - a.Score,
		Contributors:    contributors,
		Confidence:      confidence,
		ConsistencyDays: consistencyDays,
		BaselineType:    baselineType,
		Recommendation:  recommendation(a.Level, confidence, driftState, len(contributors)),
	}
}

// #endregion generate

// #region contributors

// buildContributors lists the active signals with their recomputed point
// impacts and a one-line deviation detail each.
func buildContributors(a herd.RiskAssessment, m herd.Metrics, b herd.Baseline) []herd.Contributor {
	var out []herd.Contributor

	if a.ActivityDrop {
		pct := deviation.Percent(m.ActivityLevel, b.AvgActivity)
		impact, _ := risk.ActivityScore(pct)
		out = append(out, herd.Contributor{
			Signal: herd.SignalActivity,
			Impact: impact,
			Detail: fmt.Sprintf("activity %.1f%% below baseline average %.0f", -pct, b.AvgActivity),
		})
	}

	if a.SpeedAnomaly {
		pct := deviation.Percent(m.AvgSpeed, b.AvgSpeed)
		sigma := risk.SpeedSigma(pct, b.StdSpeed)
		impact, _ := risk.SpeedScore(sigma)
		out = append(out, herd.Contributor{
			Signal: herd.SignalSpeed,
			Impact: impact,
			Detail: fmt.Sprintf("speed deviation %.1f%% (%.2f sigma) from baseline %.2f", pct, sigma, b.AvgSpeed),
		})
	}

	if a.VisitReduction {
		pct := deviation.Percent(m.Visits24h, b.AvgVisits)
		impact, _ := risk.VisitScore(pct, m.Visits48h, b.AvgVisits)
		out = append(out, herd.Contributor{
			Signal: herd.SignalVisits,
			Impact: impact,
			Detail: fmt.Sprintf("visits %.1f%% below baseline %.1f per day", -pct, b.AvgVisits),
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Impact > out[j].Impact })
	return out
}

// #endregion contributors

// #region confidence

// confidenceFor grades explanation trust. A non-stable baseline is always
// LOW regardless of other factors.
func confidenceFor(status herd.BaselineStatus, consistencyDays, contributorCount int) herd.Confidence {
	if status != herd.BaselineStable {
		return herd.ConfidenceLow
	}
	if consistencyDays >= 5 && contributorCount >= 2 {
		return herd.ConfidenceHigh
	}
	if consistencyDays >= 3 || contributorCount >= 2 {
		return herd.ConfidenceMedium
	}
	return herd.ConfidenceLow
}

// #endregion confidence

// #region recommendation

// recommendation branches on risk level first, then for LOW risk on drift
// state: drift can warn ahead of the coarser risk score.
func recommendation(level herd.RiskLevel, confidence herd.Confidence, driftState herd.DriftState, contributorCount int) string {
	switch level {
	case herd.RiskHigh:
		if contributorCount >= 2 {
			return "Multiple behavioral signals degraded simultaneously. Contact a veterinarian immediately."
		}
		return "Significant deviation in one behavioral signal. Contact a veterinarian immediately."

	case herd.RiskModerate:
		if confidence == herd.ConfidenceHigh {
			return "Consistent moderate deviation from baseline. Schedule a veterinary check within 24 hours."
		}
		return "Moderate deviation with limited supporting history. Increase observation frequency and re-assess after the next submissions."

	default:
		switch driftState {
		case herd.DriftActionRequired:
			return "Risk score is low but sustained behavioral drift is present. Schedule a preventive veterinary check."
		case herd.DriftEarly:
			return "Risk score is low but early behavioral drift is present. Consider a preventive check-up."
		default:
			return "No intervention needed. All signals within expected range."
		}
	}
}

// #endregion recommendation
