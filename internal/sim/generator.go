// Package sim generates deterministic demo telemetry. The values come from
// FNV hashing of subject id and date, so repeated runs produce identical
// fixtures. This is demo scaffolding only: the core packages never import it,
// and the detection confidence is a placeholder, not real vision output.
package sim

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/pasturelab/herdsense/internal/herd"
)

// #region generator

// Generator produces demo metrics around the herd baseline. Subjects whose
// index is a multiple of DecliningEvery show a gradual decline so that demo
// runs exercise drift detection and alerting.
type Generator struct {
	Herd           herd.HerdBaseline
	DecliningEvery int
}

// NewGenerator returns a generator with the default herd baseline and every
// fifth subject declining.
func NewGenerator() *Generator {
	return &Generator{
		Herd:           herd.DefaultHerdBaseline(),
		DecliningEvery: 5,
	}
}

// SubjectID builds the demo id for a herd index.
func SubjectID(index int) string {
	return fmt.Sprintf("cow-%02d", index)
}

// #endregion generator

// #region metrics

// MetricsFor produces one deterministic snapshot for a subject at ts.
// dayOffset is the day number within the demo run; declining subjects lose
// a little more of each signal every day after the baseline window.
func (g *Generator) MetricsFor(index int, ts time.Time, dayOffset int) herd.Metrics {
	id := SubjectID(index)

	// Per-subject personality: a stable offset from the herd averages.
	personality := unitHash(id) // [0, 1)
	activity := g.Herd.AvgActivity * (0.9 + 0.2*personality)
	speed := g.Herd.AvgSpeed * (0.95 + 0.1*personality)
	visits := g.Herd.AvgVisits * (0.9 + 0.2*personality)

	// Day-to-day jitter, well inside the micro-drift band.
	jitter := unitHash(id+ts.Format("2006-01-02"))*0.06 - 0.03 // ±3%
	activity *= 1 + jitter
	speed *= 1 + jitter/2
	visits *= 1 + jitter

	// Declining subjects drift downward once their baseline had time to learn.
	if g.DecliningEvery > 0 && index%g.DecliningEvery == 0 && dayOffset > 8 {
		decline := 0.02 * float64(dayOffset-8)
		if decline > 0.5 {
			decline = 0.5
		}
		activity *= 1 - decline
		speed *= 1 - decline/2
		visits *= 1 - decline
	}

	return herd.Metrics{
		SubjectID:     id,
		Timestamp:     ts,
		ActivityLevel: activity,
		AvgSpeed:      speed,
		Visits24h:     visits,
		Visits48h:     visits * 2,
		SpeedStdDev:   g.Herd.SpeedStdDev,
	}
}

// #endregion metrics

// #region confidence

// DetectionConfidence returns the synthetic detection confidence for a
// subject on a given day, in [0.75, 0.99]. Deterministic placeholder for a
// vision/RFID pipeline that is out of scope here.
func DetectionConfidence(subjectID string, ts time.Time) float64 {
	return 0.75 + 0.24*unitHash(subjectID+ts.Format("2006-01-02"))
}

// #endregion confidence

// #region hash

// unitHash maps a string to [0, 1) via FNV-1a.
func unitHash(s string) float64 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return float64(h.Sum32()%10000) / 10000
}

// #endregion hash
