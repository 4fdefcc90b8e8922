package risk

import (
	"math"

	"github.com/pasturelab/herdsense/internal/herd"
)

// Per-signal threshold tables. These are the single source of truth for
// sub-score points: both the engine and the explanation generator call them,
// so a score and its explanation can never disagree.

// #region caps

const (
	// ActivityCap is the maximum activity sub-score.
	ActivityCap = 40
	// VisitCap is the maximum visit-frequency sub-score.
	VisitCap = 35
	// SpeedCap is the maximum speed sub-score.
	SpeedCap = 25
)

// Risk level boundaries on the summed 0-100 score.
const (
	highThreshold     = 66
	moderateThreshold = 31
)

// sustainedVisitFactor flags a 48h visit count below this multiple of the
// baseline 24h frequency, catching sustained decline even when the 24h
// window alone looks borderline.
const sustainedVisitFactor = 1.8

// #endregion caps

// #region activity

// ActivityScore converts an activity percent deviation into sub-score points.
// Active only at a drop of 15% or more; the 5-15% bucket registers points
// but is not counted as an active drop signal.
func ActivityScore(pct float64) (score int, active bool) {
	drop := -pct
	switch {
	case drop >= 30:
		return 40, true
	case drop >= 15:
		return 25, true
	case drop >= 5:
		return 10, false
	default:
		return 0, false
	}
}

// #endregion activity

// #region visits

// VisitScore converts a 24h visit percent deviation into sub-score points.
// The secondary 48h check (visits48h below 1.8x baseline) catches sustained
// decline and scores the full cap on its own.
func VisitScore(pct24 float64, visits48, baselineVisits float64) (score int, active bool) {
	drop := -pct24
	sustained := baselineVisits > 0 && visits48 < baselineVisits*sustainedVisitFactor

	switch {
	case drop >= 40 || sustained:
		return 35, true
	case drop >= 20:
		return 20, true
	case drop >= 10:
		return 10, false
	default:
		return 0, false
	}
}

// #endregion visits

// #region speed

// SpeedSigma expresses a speed percent deviation in standard-deviation units.
// Returns 0 when the standard deviation is 0: no anomaly is calculable.
func SpeedSigma(pct, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return math.Abs(pct) / (stdDev * 100)
}

// SpeedScore converts a sigma figure into sub-score points. Active above
// 1.5 sigma; the 1.0-1.5 bucket registers points but stays inactive.
func SpeedScore(sigma float64) (score int, active bool) {
	switch {
	case sigma > 2.5:
		return 25, true
	case sigma > 1.5:
		return 15, true
	case sigma > 1.0:
		return 5, false
	default:
		return 0, false
	}
}

// #endregion speed

// #region level

// LevelFor maps a summed score to a risk level.
func LevelFor(score int) herd.RiskLevel {
	switch {
	case score >= highThreshold:
		return herd.RiskHigh
	case score >= moderateThreshold:
		return herd.RiskModerate
	default:
		return herd.RiskLow
	}
}

// #endregion level
