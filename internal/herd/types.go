package herd

import "time"

// #region enums

// BaselineStatus tracks whether a subject's personal baseline is still learning.
type BaselineStatus string

const (
	BaselineLearning BaselineStatus = "LEARNING"
	BaselineStable   BaselineStatus = "STABLE"
)

// RiskLevel classifies an assessment's overall risk.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
)

// DriftState classifies the rolling-window drift scan result.
type DriftState string

const (
	DriftStable         DriftState = "STABLE"
	DriftEarly          DriftState = "EARLY_DRIFT"
	DriftActionRequired DriftState = "ACTION_REQUIRED"
)

// Confidence grades how much an explanation can be trusted.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// Signal names the three tracked behavioral metrics.
const (
	SignalActivity = "activity"
	SignalSpeed    = "speed"
	SignalVisits   = "visits"
)

// #endregion enums

// #region metrics

// Metrics is one immutable behavioral telemetry snapshot for a subject.
type Metrics struct {
	SubjectID     string    `json:"subject_id"`
	Timestamp     time.Time `json:"timestamp"`
	ActivityLevel float64   `json:"activity_level"`
	Visits24h     float64   `json:"visits_24h"`
	Visits48h     float64   `json:"visits_48h"`
	AvgSpeed      float64   `json:"avg_speed"`
	SpeedStdDev   float64   `json:"speed_std_dev"` // herd-level speed sigma carried with the snapshot
}

// MetricsHistoryCap bounds the per-subject metrics history kept by stores.
const MetricsHistoryCap = 500

// #endregion metrics

// #region baseline

// Baseline is the learned statistical normal for one subject.
// Once Status is STABLE the statistics are frozen and never recomputed.
type Baseline struct {
	SubjectID      string         `json:"subject_id"`
	AvgActivity    float64        `json:"avg_activity"`
	StdActivity    float64        `json:"std_activity"`
	AvgSpeed       float64        `json:"avg_speed"`
	StdSpeed       float64        `json:"std_speed"`
	AvgVisits      float64        `json:"avg_visits"`
	StdVisits      float64        `json:"std_visits"`
	LearningStart  time.Time      `json:"learning_start"`
	Status         BaselineStatus `json:"status"`
	DataPoints     int            `json:"data_points"`
	RequiredPoints int            `json:"required_points"`
}

// Stable reports whether the baseline has finished learning.
func (b Baseline) Stable() bool {
	return b.Status == BaselineStable
}

// #endregion baseline

// #region herd-baseline

// HerdBaseline is the static herd-level reference used before a subject
// has a stable personal baseline.
type HerdBaseline struct {
	AvgActivity float64 `json:"avg_activity"`
	AvgSpeed    float64 `json:"avg_speed"`
	SpeedStdDev float64 `json:"speed_std_dev"`
	AvgVisits   float64 `json:"avg_visits"`
}

// DefaultHerdBaseline returns the herd-level reference values.
func DefaultHerdBaseline() HerdBaseline {
	return HerdBaseline{
		AvgActivity: 1050,
		AvgSpeed:    3.8,
		SpeedStdDev: 0.35,
		AvgVisits:   7,
	}
}

// #endregion herd-baseline

// #region risk-assessment

// RiskAssessment is the current risk classification for a subject.
// Stores hold exactly one per subject, replaced on each recomputation.
type RiskAssessment struct {
	SubjectID            string         `json:"subject_id"`
	Timestamp            time.Time      `json:"timestamp"`
	Level                RiskLevel      `json:"level"`
	Score                int            `json:"score"`
	ActivityDrop         bool           `json:"activity_drop"`
	SpeedAnomaly         bool           `json:"speed_anomaly"`
	VisitReduction       bool           `json:"visit_reduction"`
	ContributingFactors  []string       `json:"contributing_factors"`
	UsedPersonalBaseline bool           `json:"used_personal_baseline"`
	DeviationScore       float64        `json:"deviation_score"`
	BaselineStatus       BaselineStatus `json:"baseline_status"`
	LearningProgress     float64        `json:"learning_progress,omitempty"` // only meaningful while baseline is LEARNING
	Explanation          *Explanation   `json:"explanation,omitempty"`
}

// #endregion risk-assessment

// #region daily-deviation

// DailyDeviation records one calendar day's percent deviations from the
// personal baseline. FlagCount is how many of the three signals sit in the
// micro-drift band that day.
type DailyDeviation struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	ActivityPct float64 `json:"activity_pct"`
	SpeedPct    float64 `json:"speed_pct"`
	VisitsPct   float64 `json:"visits_pct"`
	FlagCount   int     `json:"flag_count"`
}

// DeviationHistoryCap bounds the per-subject deviation history.
const DeviationHistoryCap = 30

// #endregion daily-deviation

// #region drift-assessment

// DriftAssessment is the current drift scan result for a subject,
// recomputed fresh on each qualifying submission.
type DriftAssessment struct {
	SubjectID       string           `json:"subject_id"`
	State           DriftState       `json:"state"`
	ConsecutiveDays int              `json:"consecutive_days"`
	Window          []DailyDeviation `json:"window"`
	Signals         []string         `json:"signals"`
	Message         string           `json:"message,omitempty"`
}

// #endregion drift-assessment

// #region explanation

// Contributor is one signal's share of the risk score.
type Contributor struct {
	Signal string `json:"signal"`
	Impact int    `json:"impact"`
	Detail string `json:"detail"`
}

// Explanation is a derived transparency view of a risk assessment.
type Explanation struct {
	HealthScore     int           `json:"health_score"` // 100 - risk score
	Contributors    []Contributor `json:"contributors"`
	Confidence      Confidence    `json:"confidence"`
	ConsistencyDays int           `json:"consistency_days"`
	BaselineType    string        `json:"baseline_type"` // "personal" | "herd"
	Recommendation  string        `json:"recommendation"`
}

// #endregion explanation

// #region alert

// Alert is a prioritized notification derived from a risk assessment.
type Alert struct {
	ID              string    `json:"id"`
	SubjectID       string    `json:"subject_id"`
	Severity        RiskLevel `json:"severity"`
	Timestamp       time.Time `json:"timestamp"`
	Explanation     string    `json:"explanation"`
	Recommendations []string  `json:"recommendations"`
	ActivityDrop    bool      `json:"activity_drop"`
	SpeedAnomaly    bool      `json:"speed_anomaly"`
	VisitReduction  bool      `json:"visit_reduction"`
	Score           int       `json:"score"`
}

// AlertLogCap bounds the append-only alert log.
const AlertLogCap = 100

// #endregion alert
