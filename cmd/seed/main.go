package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/pasturelab/herdsense/internal/logging"
	"github.com/pasturelab/herdsense/internal/pipeline"
	"github.com/pasturelab/herdsense/internal/sim"
	"github.com/pasturelab/herdsense/internal/store"
)

// #region main

func main() {
	dbPath := flag.String("db", "herdsense.db", "path to the sqlite store to seed")
	subjects := flag.Int("subjects", 10, "number of demo subjects")
	days := flag.Int("days", 14, "number of days of telemetry")
	perDay := flag.Int("per-day", 3, "submissions per subject per day")
	flag.Parse()

	if *subjects < 1 || *days < 1 || *perDay < 1 {
		fmt.Fprintln(os.Stderr, "usage: seed [--db path] [--subjects N] [--days N] [--per-day N]")
		os.Exit(2)
	}

	logger, err := logging.New("info", "console")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	st, err := store.NewSQLite(*dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	gen := sim.NewGenerator()
	p := pipeline.New(st, logger)
	ctx := context.Background()

	// Backdate the run so the newest submission lands "now".
	start := time.Now().UTC().AddDate(0, 0, -*days).Truncate(24 * time.Hour).Add(6 * time.Hour)
	interval := 24 * time.Hour / time.Duration(*perDay)

	var alerts int
	for day := 0; day < *days; day++ {
		for s := 0; s < *perDay; s++ {
			ts := start.Add(time.Duration(day)*24*time.Hour + time.Duration(s)*interval)
			for i := 1; i <= *subjects; i++ {
				m := gen.MetricsFor(i, ts, day)
				res, err := p.Process(ctx, m)
				if err != nil {
					logger.Error("seed submission failed",
						zap.String("subject_id", m.SubjectID), zap.Error(err))
					continue
				}
				if res.Alert != nil {
					alerts++
					logger.Info("alert raised",
						zap.String("subject_id", m.SubjectID),
						zap.String("severity", string(res.Alert.Severity)),
						zap.Int("score", res.Alert.Score),
						zap.Float64("detection_confidence", sim.DetectionConfidence(m.SubjectID, ts)))
				}
			}
		}
	}

	fmt.Printf("Seeded %d subjects x %d days x %d/day into %s (%d alerts)\n",
		*subjects, *days, *perDay, *dbPath, alerts)
}

// #endregion main
