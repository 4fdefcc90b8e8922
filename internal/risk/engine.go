package risk

import (
	"fmt"
	"math"

	"github.com/pasturelab/herdsense/internal/baseline"
	"github.com/pasturelab/herdsense/internal/deviation"
	"github.com/pasturelab/herdsense/internal/herd"
)

// LearningFactor is the single contributing factor reported while a
// subject's personal baseline is still being learned.
const LearningFactor = "baseline learning in progress"

// normalFactor is reported when no signal is active.
const normalFactor = "All behavioral metrics within normal range"

// #region signal-scores

// signalScores holds everything the scoring pass derives from one snapshot.
type signalScores struct {
	activityPct float64
	speedPct    float64
	visitsPct   float64

	activityScore  int
	activityActive bool
	visitScore     int
	visitActive    bool
	speedScore     int
	speedActive    bool
	speedSigma     float64
	sustained48    bool
}

// scoreSignals runs the three independent threshold tables against the
// snapshot. Both the herd and personal paths score through here, so the
// two can only differ in which baseline values they pass.
func scoreSignals(m herd.Metrics, avgActivity, avgSpeed, speedStd, avgVisits float64) signalScores {
	s := signalScores{
		activityPct: deviation.Percent(m.ActivityLevel, avgActivity),
		speedPct:    deviation.Percent(m.AvgSpeed, avgSpeed),
		visitsPct:   deviation.Percent(m.Visits24h, avgVisits),
	}

	s.activityScore, s.activityActive = ActivityScore(s.activityPct)
	s.visitScore, s.visitActive = VisitScore(s.visitsPct, m.Visits48h, avgVisits)
	s.sustained48 = avgVisits > 0 && m.Visits48h < avgVisits*sustainedVisitFactor
	s.speedSigma = SpeedSigma(s.speedPct, speedStd)
	s.speedScore, s.speedActive = SpeedScore(s.speedSigma)

	return s
}

func (s signalScores) total() int {
	return s.activityScore + s.visitScore + s.speedScore
}

// factors builds the contributing-factor strings for active signals only.
func (s signalScores) factors() []string {
	var out []string
	if s.activityActive {
		out = append(out, fmt.Sprintf("Activity level dropped %.1f%% below baseline", -s.activityPct))
	}
	if s.speedActive {
		out = append(out, fmt.Sprintf("Movement speed %.1f sigma from baseline", s.speedSigma))
	}
	if s.visitActive {
		if s.sustained48 {
			out = append(out, fmt.Sprintf("Corridor visits down %.1f%% over 24h, sustained over 48h", -s.visitsPct))
		} else {
			out = append(out, fmt.Sprintf("Corridor visits down %.1f%% over 24h", -s.visitsPct))
		}
	}
	if len(out) == 0 {
		out = []string{normalFactor}
	}
	return out
}

// deviationScore is the mean of the three absolute percent deviations.
func (s signalScores) deviationScore() float64 {
	return (math.Abs(s.activityPct) + math.Abs(s.speedPct) + math.Abs(s.visitsPct)) / 3
}

// #endregion signal-scores

// #region herd-path

// AssessHerd scores a snapshot against the static herd-level baseline.
// Used for subjects without a stable personal baseline; never attaches an
// explanation and never reports a personal deviation score.
func AssessHerd(m herd.Metrics, hb herd.HerdBaseline) herd.RiskAssessment {
	speedStd := m.SpeedStdDev
	if speedStd == 0 {
		speedStd = hb.SpeedStdDev
	}

	s := scoreSignals(m, hb.AvgActivity, hb.AvgSpeed, speedStd, hb.AvgVisits)
	score := s.total()

	return herd.RiskAssessment{
		SubjectID:            m.SubjectID,
		Timestamp:            m.Timestamp,
		Level:                LevelFor(score),
		Score:                score,
		ActivityDrop:         s.activityActive,
		SpeedAnomaly:         s.speedActive,
		VisitReduction:       s.visitActive,
		ContributingFactors:  s.factors(),
		UsedPersonalBaseline: false,
	}
}

// #endregion herd-path

// #region personal-path

// AssessPersonal scores a snapshot against the subject's learned baseline.
// While the baseline is LEARNING it short-circuits to a zero-score LOW
// result tagged with the learning progress so callers suppress alerting.
func AssessPersonal(m herd.Metrics, b herd.Baseline) herd.RiskAssessment {
	if !b.Stable() {
		return herd.RiskAssessment{
			SubjectID:            m.SubjectID,
			Timestamp:            m.Timestamp,
			Level:                herd.RiskLow,
			Score:                0,
			ContributingFactors:  []string{LearningFactor},
			UsedPersonalBaseline: false,
			BaselineStatus:       b.Status,
			LearningProgress:     baseline.LearningProgress(b, m.Timestamp),
		}
	}

	s := scoreSignals(m, b.AvgActivity, b.AvgSpeed, b.StdSpeed, b.AvgVisits)
	score := s.total()

	return herd.RiskAssessment{
		SubjectID:            m.SubjectID,
		Timestamp:            m.Timestamp,
		Level:                LevelFor(score),
		Score:                score,
		ActivityDrop:         s.activityActive,
		SpeedAnomaly:         s.speedActive,
		VisitReduction:       s.visitActive,
		ContributingFactors:  s.factors(),
		UsedPersonalBaseline: true,
		DeviationScore:       s.deviationScore(),
		BaselineStatus:       b.Status,
	}
}

// #endregion personal-path
