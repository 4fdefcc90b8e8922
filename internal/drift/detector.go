package drift

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pasturelab/herdsense/internal/deviation"
	"github.com/pasturelab/herdsense/internal/herd"
)

// #region constants

const (
	// Micro-drift band: meaningful but not yet severe. Deviations above the
	// band belong to the risk engine's coarser buckets, not to drift.
	bandLowPct  = 5
	bandHighPct = 15

	// minFlagsPerDay is how many signals must sit in the band simultaneously
	// for a day to count toward the consecutive chain.
	minFlagsPerDay = 2

	// actionDays and earlyDays are the consecutive-day thresholds for the
	// two non-stable drift states.
	actionDays = 5
	earlyDays  = 3

	// WindowDays is the rolling calendar window the scan operates on.
	WindowDays = 7
)

// DateLayout is the calendar-date key format for daily deviations.
const DateLayout = "2006-01-02"

// #endregion constants

// #region compute-daily

// ComputeDaily derives one calendar day's deviation entry from a snapshot
// and the subject's stable personal baseline.
func ComputeDaily(m herd.Metrics, b herd.Baseline, date string) herd.DailyDeviation {
	d := herd.DailyDeviation{
		Date:        date,
		ActivityPct: deviation.Percent(m.ActivityLevel, b.AvgActivity),
		SpeedPct:    deviation.Percent(m.AvgSpeed, b.AvgSpeed),
		VisitsPct:   deviation.Percent(m.Visits24h, b.AvgVisits),
	}
	for _, pct := range []float64{d.ActivityPct, d.SpeedPct, d.VisitsPct} {
		if inBand(pct) {
			d.FlagCount++
		}
	}
	return d
}

// inBand reports whether a deviation sits in the micro-drift band.
// The upper bound is inclusive: >15% is the ACTION_REQUIRED trigger instead.
func inBand(pct float64) bool {
	abs := math.Abs(pct)
	return abs >= bandLowPct && abs <= bandHighPct
}

// #endregion compute-daily

// #region history

// Upsert replaces the same-date entry or inserts a new one, keeps the
// history sorted newest first, and trims to the retention cap.
func Upsert(history []herd.DailyDeviation, d herd.DailyDeviation) []herd.DailyDeviation {
	out := make([]herd.DailyDeviation, 0, len(history)+1)
	replaced := false
	for _, e := range history {
		if e.Date == d.Date {
			out = append(out, d)
			replaced = true
			continue
		}
		out = append(out, e)
	}
	if !replaced {
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })

	if len(out) > herd.DeviationHistoryCap {
		out = out[:herd.DeviationHistoryCap]
	}
	return out
}

// Window filters the history down to entries within the last WindowDays
// calendar days of today (inclusive), newest first.
func Window(history []herd.DailyDeviation, today string) []herd.DailyDeviation {
	cutoff := shiftDate(today, -(WindowDays - 1))

	out := make([]herd.DailyDeviation, 0, WindowDays)
	for _, e := range history {
		if e.Date >= cutoff && e.Date <= today {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// #endregion history

// #region detect

// Detect runs the consecutive-drift scan over a date-descending window and
// classifies the subject's drift state.
func Detect(subjectID string, window []herd.DailyDeviation) herd.DriftAssessment {
	consecutive := 0
	signalSet := map[string]bool{}

	for _, d := range window {
		if d.FlagCount < minFlagsPerDay {
			break // chain must be unbroken back from the most recent day
		}
		consecutive++
		if math.Abs(d.ActivityPct) >= bandLowPct {
			signalSet[herd.SignalActivity] = true
		}
		if math.Abs(d.SpeedPct) >= bandLowPct {
			signalSet[herd.SignalSpeed] = true
		}
		if math.Abs(d.VisitsPct) >= bandLowPct {
			signalSet[herd.SignalVisits] = true
		}
	}

	maxDev := 0.0
	for _, d := range window {
		for _, pct := range []float64{d.ActivityPct, d.SpeedPct, d.VisitsPct} {
			if abs := math.Abs(pct); abs > maxDev {
				maxDev = abs
			}
		}
	}

	signals := make([]string, 0, len(signalSet))
	for _, name := range []string{herd.SignalActivity, herd.SignalSpeed, herd.SignalVisits} {
		if signalSet[name] {
			signals = append(signals, name)
		}
	}

	a := herd.DriftAssessment{
		SubjectID:       subjectID,
		State:           herd.DriftStable,
		ConsecutiveDays: consecutive,
		Window:          window,
		Signals:         signals,
	}

	switch {
	case consecutive >= actionDays || maxDev > bandHighPct:
		a.State = herd.DriftActionRequired
		a.Message = fmt.Sprintf("sustained behavioral drift over %d days in: %s. Veterinary consultation recommended.",
			consecutive, strings.Join(signals, ", "))
	case consecutive >= earlyDays:
		a.State = herd.DriftEarly
		a.Message = fmt.Sprintf("micro-deviations detected for %d consecutive days in: %s. Consider preventive check-up.",
			consecutive, strings.Join(signals, ", "))
	}

	return a
}

// #endregion detect

// #region date-helpers

// shiftDate moves a YYYY-MM-DD date by the given number of days.
// Falls back to the input on parse failure.
func shiftDate(date string, days int) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, days).Format(DateLayout)
}

// DateOf formats a timestamp as a calendar-date key.
func DateOf(ts time.Time) string {
	return ts.Format(DateLayout)
}

// #endregion date-helpers
