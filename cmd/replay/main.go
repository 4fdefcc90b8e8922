package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pasturelab/herdsense/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to fixture JSON")
	verbose := flag.Bool("verbose", false, "print every submission, not just state changes")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [--verbose]")
		os.Exit(2)
	}

	f, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load fixture: %v\n", err)
		os.Exit(2)
	}

	results, summary, err := replay.Replay(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(2)
	}

	if f.Description != "" {
		fmt.Printf("%s (%s)\n\n", f.Description, f.SubjectID)
	}
	printResults(results, *verbose)
	printSummary(summary)

	failures := f.Verify(results)
	if len(failures) > 0 {
		fmt.Printf("\n%d expectation(s) failed:\n", len(failures))
		for _, msg := range failures {
			fmt.Printf("  FAIL %s\n", msg)
		}
		os.Exit(1)
	}
	if len(f.Expected) > 0 {
		fmt.Printf("\nAll %d expectations passed.\n", len(f.Expected))
	}
}

// #endregion main

// #region output

func printResults(results []replay.Result, verbose bool) {
	fmt.Printf("%-4s  %-17s %-9s %5s  %-6s  %-16s %s\n",
		"#", "Time", "Baseline", "Score", "Level", "Drift", "Alert")
	fmt.Printf("%-4s  %-17s %-9s %5s  %-6s  %-16s %s\n",
		"----", "-----------------", "---------", "-----", "------", "----------------", "-----")

	var prev replay.Result
	for i, r := range results {
		changed := i == 0 ||
			r.Level != prev.Level ||
			r.BaselineStatus != prev.BaselineStatus ||
			r.DriftState != prev.DriftState ||
			r.AlertRaised
		if verbose || changed {
			alert := ""
			if r.AlertRaised {
				alert = "ALERT"
			}
			drift := string(r.DriftState)
			if r.ConsecutiveDays > 0 {
				drift = fmt.Sprintf("%s (%dd)", drift, r.ConsecutiveDays)
			}
			fmt.Printf("%-4d  %-17s %-9s %5d  %-6s  %-16s %s\n",
				r.Index, r.Timestamp, r.BaselineStatus, r.Score, r.Level, drift, alert)
		}
		prev = r
	}
}

func printSummary(s replay.Summary) {
	fmt.Printf("\nSummary: %d submissions, %d alerts (%d HIGH, %d MODERATE), %d drift days\n",
		s.Submissions, s.Alerts, s.HighCount, s.ModerateCount, s.DriftDays)
	fmt.Printf("Final baseline: %s (%d points)\n", s.FinalBaseline.Status, s.FinalBaseline.DataPoints)
}

// #endregion output
