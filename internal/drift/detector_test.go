package drift

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pasturelab/herdsense/internal/herd"
)

func day(date string, activity, speed, visits float64, flags int) herd.DailyDeviation {
	return herd.DailyDeviation{
		Date:        date,
		ActivityPct: activity,
		SpeedPct:    speed,
		VisitsPct:   visits,
		FlagCount:   flags,
	}
}

// driftDay builds an entry with two signals in the micro-drift band.
func driftDay(date string) herd.DailyDeviation {
	return day(date, -8.5, -6.2, -2.0, 2)
}

func TestComputeDailyFlagCount(t *testing.T) {
	b := herd.Baseline{
		AvgActivity: 1000,
		AvgSpeed:    4.0,
		AvgVisits:   10,
		Status:      herd.BaselineStable,
	}

	tests := []struct {
		name      string
		m         herd.Metrics
		wantFlags int
	}{
		{"all-at-baseline", herd.Metrics{ActivityLevel: 1000, AvgSpeed: 4.0, Visits24h: 10}, 0},
		// activity -10%, speed -8%, visits -12%: all three in band.
		{"all-in-band", herd.Metrics{ActivityLevel: 900, AvgSpeed: 3.68, Visits24h: 8.8}, 3},
		// activity -20% is beyond the band; speed -6% and visits +7% are in it.
		{"one-beyond-band", herd.Metrics{ActivityLevel: 800, AvgSpeed: 3.76, Visits24h: 10.7}, 2},
		// exactly 5% and exactly 15% both flag; 4.9% does not.
		{"band-boundaries", herd.Metrics{ActivityLevel: 950, AvgSpeed: 3.4, Visits24h: 10.49}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDaily(tt.m, b, "2025-03-10")
			if got.FlagCount != tt.wantFlags {
				t.Errorf("flag count: got %d, want %d (entry %+v)", got.FlagCount, tt.wantFlags, got)
			}
		})
	}
}

func TestUpsertReplacesSameDate(t *testing.T) {
	history := []herd.DailyDeviation{driftDay("2025-03-09")}

	first := day("2025-03-10", -6, -7, 0, 2)
	second := day("2025-03-10", -9, -11, -5, 3)

	history = Upsert(history, first)
	history = Upsert(history, second)

	count := 0
	for _, e := range history {
		if e.Date == "2025-03-10" {
			count++
			if e.FlagCount != 3 {
				t.Errorf("same-date upsert kept the earlier entry: %+v", e)
			}
		}
	}
	if count != 1 {
		t.Errorf("entries for 2025-03-10: got %d, want 1", count)
	}
}

func TestUpsertCapsAndOrders(t *testing.T) {
	var history []herd.DailyDeviation
	for i := 1; i <= 40; i++ {
		history = Upsert(history, driftDay(fmt.Sprintf("2025-03-%02d", i%31+1)))
	}

	if len(history) > herd.DeviationHistoryCap {
		t.Errorf("history length: got %d, want <= %d", len(history), herd.DeviationHistoryCap)
	}
	for i := 1; i < len(history); i++ {
		if history[i-1].Date < history[i].Date {
			t.Fatalf("history not newest-first at %d: %s before %s", i, history[i-1].Date, history[i].Date)
		}
	}
}

func TestWindowKeepsSevenCalendarDays(t *testing.T) {
	history := []herd.DailyDeviation{
		driftDay("2025-03-10"),
		driftDay("2025-03-08"),
		driftDay("2025-03-04"), // exactly 7 days back from 03-10: kept
		driftDay("2025-03-03"), // 8 days back: dropped
		driftDay("2025-02-20"),
	}

	got := Window(history, "2025-03-10")
	if len(got) != 3 {
		t.Fatalf("window size: got %d (%v), want 3", len(got), got)
	}
	if got[0].Date != "2025-03-10" || got[2].Date != "2025-03-04" {
		t.Errorf("window order wrong: %v", got)
	}
}

func TestDetectStable(t *testing.T) {
	window := []herd.DailyDeviation{
		driftDay("2025-03-10"),
		driftDay("2025-03-09"),
		day("2025-03-08", -2, -1, 0, 0), // chain breaks here
		driftDay("2025-03-07"),
	}

	got := Detect("cow-17", window)
	if got.State != herd.DriftStable {
		t.Errorf("state: got %q, want STABLE", got.State)
	}
	if got.ConsecutiveDays != 2 {
		t.Errorf("consecutive days: got %d, want 2", got.ConsecutiveDays)
	}
	if got.Message != "" {
		t.Errorf("unexpected message: %q", got.Message)
	}
}

func TestDetectEarlyDrift(t *testing.T) {
	window := []herd.DailyDeviation{
		driftDay("2025-03-10"),
		driftDay("2025-03-09"),
		driftDay("2025-03-08"),
	}

	got := Detect("cow-17", window)
	if got.State != herd.DriftEarly {
		t.Errorf("state: got %q, want EARLY_DRIFT", got.State)
	}
	if got.ConsecutiveDays != 3 {
		t.Errorf("consecutive days: got %d, want 3", got.ConsecutiveDays)
	}
	if !strings.Contains(got.Message, "micro-deviations detected for 3 consecutive days") {
		t.Errorf("message: %q", got.Message)
	}
	if !strings.Contains(got.Message, "preventive check-up") {
		t.Errorf("message: %q", got.Message)
	}
}

func TestDetectActionRequiredByConsecutiveDays(t *testing.T) {
	// Spec worked example: 7 qualifying days, max deviation 11.7% (below the
	// 15% single-day trigger) still escalates on the consecutive-day count.
	var window []herd.DailyDeviation
	for i := 10; i > 3; i-- {
		window = append(window, day(fmt.Sprintf("2025-03-%02d", i), -11.7, -8.0, -3.0, 2))
	}

	got := Detect("cow-17", window)
	if got.State != herd.DriftActionRequired {
		t.Errorf("state: got %q, want ACTION_REQUIRED", got.State)
	}
	if got.ConsecutiveDays != 7 {
		t.Errorf("consecutive days: got %d, want 7", got.ConsecutiveDays)
	}
	if !strings.Contains(got.Message, "sustained behavioral drift over 7 days") {
		t.Errorf("message: %q", got.Message)
	}
	if !strings.Contains(got.Message, "Veterinary consultation recommended") {
		t.Errorf("message: %q", got.Message)
	}
}

func TestDetectActionRequiredByMaxDeviation(t *testing.T) {
	// A single day beyond 15% escalates even with a short chain.
	window := []herd.DailyDeviation{
		driftDay("2025-03-10"),
		day("2025-03-09", -22.4, -3.0, -1.0, 0),
	}

	got := Detect("cow-17", window)
	if got.State != herd.DriftActionRequired {
		t.Errorf("state: got %q, want ACTION_REQUIRED", got.State)
	}
}

func TestDetectSignalUnion(t *testing.T) {
	window := []herd.DailyDeviation{
		day("2025-03-10", -8, -6, -2, 2),  // activity + speed in band
		day("2025-03-09", -7, -2, -9, 2),  // activity + visits in band
		day("2025-03-08", -6, -5.5, 0, 2), // activity + speed
	}

	got := Detect("cow-17", window)
	want := []string{herd.SignalActivity, herd.SignalSpeed, herd.SignalVisits}
	if len(got.Signals) != len(want) {
		t.Fatalf("signals: got %v, want %v", got.Signals, want)
	}
	for i, s := range want {
		if got.Signals[i] != s {
			t.Errorf("signals[%d]: got %q, want %q", i, got.Signals[i], s)
		}
	}
}

func TestDetectEmptyWindow(t *testing.T) {
	got := Detect("cow-17", nil)
	if got.State != herd.DriftStable || got.ConsecutiveDays != 0 {
		t.Errorf("empty window: got %+v, want STABLE/0", got)
	}
}
