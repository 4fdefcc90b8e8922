// Package metrics exposes prometheus collectors for the assessment pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts metrics submissions processed.
	SubmissionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "herdsense_submissions_total",
			Help: "Total number of metrics submissions processed",
		},
	)

	// AssessmentsTotal counts risk assessments by resulting level.
	AssessmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herdsense_assessments_total",
			Help: "Total number of risk assessments by level",
		},
		[]string{"level"},
	)

	// DriftStatesTotal counts drift scans by resulting state.
	DriftStatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herdsense_drift_states_total",
			Help: "Total number of drift detections by state",
		},
		[]string{"state"},
	)

	// AlertsTotal counts alerts raised by severity.
	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "herdsense_alerts_total",
			Help: "Total number of alerts raised by severity",
		},
		[]string{"severity"},
	)

	// RiskScore tracks the current risk score per subject.
	RiskScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "herdsense_risk_score",
			Help: "Current risk score per subject",
		},
		[]string{"subject_id"},
	)
)
