package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pasturelab/herdsense/internal/herd"
	"github.com/pasturelab/herdsense/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to herdsense.db (sqlite)")
	redisAddr := flag.String("redis", "", "redis address (alternative to --db)")
	subject := flag.String("subject", "", "show single subject detail")
	alerts := flag.Bool("alerts", false, "show the alert log")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if (*dbPath == "" && *redisAddr == "") || (*dbPath != "" && *redisAddr != "") {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/herdsense.db [--subject id] [--alerts] [--json]")
		fmt.Fprintln(os.Stderr, "       inspect --redis host:port [--subject id] [--alerts] [--json]")
		os.Exit(2)
	}

	st, closeStore, err := openStore(*dbPath, *redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	ctx := context.Background()
	switch {
	case *alerts:
		err = runAlertsMode(ctx, st, *jsonOut)
	case *subject != "":
		err = runDetailMode(ctx, st, *subject, *jsonOut)
	default:
		err = runListMode(ctx, st, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func openStore(dbPath, redisAddr string) (store.Store, func(), error) {
	if redisAddr != "" {
		s, err := store.NewRedis(redisAddr, "", 0)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
	s, err := store.NewSQLite(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return s, func() { s.Close() }, nil
}

// #endregion main

// #region list-mode

type listRow struct {
	SubjectID   string `json:"subject_id"`
	Baseline    string `json:"baseline_status"`
	DataPoints  int    `json:"data_points"`
	Score       int    `json:"risk_score"`
	Level       string `json:"risk_level"`
	DriftState  string `json:"drift_state,omitempty"`
	LastUpdated string `json:"last_updated,omitempty"`
}

func runListMode(ctx context.Context, st store.Store, jsonOut bool) error {
	subjects, err := st.Subjects(ctx)
	if err != nil {
		return err
	}
	if len(subjects) == 0 {
		fmt.Fprintln(os.Stderr, "no subjects found")
		return nil
	}

	rows := make([]listRow, 0, len(subjects))
	for _, id := range subjects {
		row := listRow{SubjectID: id}

		if b, ok, err := st.Baseline(ctx, id); err != nil {
			return err
		} else if ok {
			row.Baseline = string(b.Status)
			row.DataPoints = b.DataPoints
		}
		if ra, ok, err := st.RiskAssessment(ctx, id); err != nil {
			return err
		} else if ok {
			row.Score = ra.Score
			row.Level = string(ra.Level)
			row.LastUpdated = ra.Timestamp.Format("2006-01-02T15:04:05Z")
		}
		if da, ok, err := st.DriftAssessment(ctx, id); err != nil {
			return err
		} else if ok {
			row.DriftState = string(da.State)
		}
		rows = append(rows, row)
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-12s  %-9s  %6s  %5s  %-9s  %-16s  %s\n",
		"Subject", "Baseline", "Points", "Score", "Level", "Drift", "Updated")
	fmt.Printf("%-12s  %-9s  %6s  %5s  %-9s  %-16s  %s\n",
		"------------", "---------", "------", "-----", "---------", "----------------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-12s  %-9s  %6d  %5d  %-9s  %-16s  %s\n",
			r.SubjectID, r.Baseline, r.DataPoints, r.Score, r.Level, r.DriftState, r.LastUpdated)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	SubjectID  string                `json:"subject_id"`
	Baseline   *herd.Baseline        `json:"baseline,omitempty"`
	Assessment *herd.RiskAssessment  `json:"assessment,omitempty"`
	Drift      *herd.DriftAssessment `json:"drift,omitempty"`
	Deviations []herd.DailyDeviation `json:"deviations,omitempty"`
	Metrics    int                   `json:"metrics_count"`
}

func runDetailMode(ctx context.Context, st store.Store, subjectID string, jsonOut bool) error {
	out := detailOutput{SubjectID: subjectID}

	if b, ok, err := st.Baseline(ctx, subjectID); err != nil {
		return err
	} else if ok {
		out.Baseline = &b
	}
	if ra, ok, err := st.RiskAssessment(ctx, subjectID); err != nil {
		return err
	} else if ok {
		out.Assessment = &ra
	}
	if da, ok, err := st.DriftAssessment(ctx, subjectID); err != nil {
		return err
	} else if ok {
		out.Drift = &da
	}
	devs, err := st.DeviationHistory(ctx, subjectID)
	if err != nil {
		return err
	}
	out.Deviations = devs
	history, err := st.MetricsHistory(ctx, subjectID)
	if err != nil {
		return err
	}
	out.Metrics = len(history)

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Subject:  %s\n", out.SubjectID)
	fmt.Printf("Metrics:  %d stored snapshots\n", out.Metrics)
	if out.Baseline != nil {
		b := out.Baseline
		fmt.Printf("\nBaseline: %s (%d points since %s)\n",
			b.Status, b.DataPoints, b.LearningStart.Format("2006-01-02"))
		fmt.Printf("  activity %.1f  speed %.2f±%.2f  visits %.1f\n",
			b.AvgActivity, b.AvgSpeed, b.StdSpeed, b.AvgVisits)
	}
	if out.Assessment != nil {
		a := out.Assessment
		fmt.Printf("\nRisk: %d (%s) at %s\n", a.Score, a.Level, a.Timestamp.Format("2006-01-02 15:04"))
		for _, f := range a.ContributingFactors {
			fmt.Printf("  - %s\n", f)
		}
	}
	if out.Drift != nil {
		d := out.Drift
		fmt.Printf("\nDrift: %s", d.State)
		if d.ConsecutiveDays > 0 {
			fmt.Printf(" (%d consecutive days)", d.ConsecutiveDays)
		}
		fmt.Println()
		if d.Message != "" {
			fmt.Printf("  %s\n", d.Message)
		}
	}
	if len(out.Deviations) > 0 {
		fmt.Printf("\nDaily deviations (newest first):\n")
		for _, d := range out.Deviations {
			fmt.Printf("  %s  activity %+6.1f%%  speed %+6.1f%%  visits %+6.1f%%  flags=%d\n",
				d.Date, d.ActivityPct, d.SpeedPct, d.VisitsPct, d.FlagCount)
		}
	}
	return nil
}

// #endregion detail-mode

// #region alerts-mode

func runAlertsMode(ctx context.Context, st store.Store, jsonOut bool) error {
	alerts, err := st.Alerts(ctx)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(alerts)
	}
	if len(alerts) == 0 {
		fmt.Fprintln(os.Stderr, "no alerts recorded")
		return nil
	}
	for _, a := range alerts {
		fmt.Printf("[%s] %-9s %-12s score=%d\n",
			a.Timestamp.Format("2006-01-02 15:04"), a.Severity, a.SubjectID, a.Score)
		fmt.Printf("  %s\n", a.Explanation)
	}
	return nil
}

// #endregion alerts-mode

// #region output

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// #endregion output
