package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pasturelab/herdsense/internal/config"
	"github.com/pasturelab/herdsense/internal/herd"
	"github.com/pasturelab/herdsense/internal/logging"
	"github.com/pasturelab/herdsense/internal/pipeline"
	"github.com/pasturelab/herdsense/internal/store"
)

// #region main

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	st, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer closeStore()

	if cfg.MetricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, nil); err != nil {
				logger.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	p := pipeline.New(st, logger)

	fmt.Println("HerdSense ready.")
	fmt.Printf("  Store: %s\n", cfg.StoreBackend)
	fmt.Println("Enter: <subject-id> <activity> <speed> <visits-24h> <visits-48h>")
	fmt.Println("(or 'alerts' to list recent alerts, 'quit' to exit)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		if line == "alerts" {
			printAlerts(p)
			continue
		}

		m, err := parseSubmission(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid submission: %v\n", err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		res, err := p.Process(ctx, m)
		cancel()
		if err != nil {
			logger.Error("submission failed", zap.String("subject_id", m.SubjectID), zap.Error(err))
			continue
		}

		printResult(res)
	}
}

// #endregion main

// #region input

func parseSubmission(line string) (herd.Metrics, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return herd.Metrics{}, fmt.Errorf("want 5 fields, got %d", len(fields))
	}

	vals := make([]float64, 4)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return herd.Metrics{}, fmt.Errorf("field %q: %w", f, err)
		}
		vals[i] = v
	}

	return herd.Metrics{
		SubjectID:     fields[0],
		Timestamp:     time.Now().UTC(),
		ActivityLevel: vals[0],
		AvgSpeed:      vals[1],
		Visits24h:     vals[2],
		Visits48h:     vals[3],
	}, nil
}

// #endregion input

// #region output

func printResult(res pipeline.Result) {
	fmt.Printf("\nbaseline=%s", res.Baseline.Status)
	if res.Baseline.Status == herd.BaselineLearning {
		fmt.Printf(" (%.0f%%)", res.Assessment.LearningProgress*100)
	}
	fmt.Printf(" risk=%d level=%s", res.Assessment.Score, res.Assessment.Level)
	if res.Drift != nil {
		fmt.Printf(" drift=%s", res.Drift.State)
		if res.Drift.ConsecutiveDays > 0 {
			fmt.Printf(" (%dd)", res.Drift.ConsecutiveDays)
		}
	}
	fmt.Println()

	for _, f := range res.Assessment.ContributingFactors {
		fmt.Printf("  - %s\n", f)
	}

	if res.Alert != nil {
		fmt.Printf("\nALERT [%s] %s\n", res.Alert.Severity, res.Alert.Explanation)
		for _, r := range res.Alert.Recommendations {
			fmt.Printf("  * %s\n", r)
		}
	}
	fmt.Println()
}

func printAlerts(p *pipeline.Pipeline) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	alerts, err := p.RecentAlerts(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load alerts: %v\n", err)
		return
	}
	if len(alerts) == 0 {
		fmt.Println("no alerts recorded")
		return
	}
	for _, a := range alerts {
		fmt.Printf("[%s] %-9s %-12s score=%d\n",
			a.Timestamp.Format("2006-01-02 15:04"), a.Severity, a.SubjectID, a.Score)
	}
}

// #endregion output

// #region store-selection

func openStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		return store.NewMemory(), func() {}, nil
	case "redis":
		s, err := store.NewRedis(cfg.RedisAddr, "", cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "sqlite":
		s, err := store.NewSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// #endregion store-selection
