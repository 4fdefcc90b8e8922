package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pasturelab/herdsense/internal/herd"
	_ "modernc.org/sqlite"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS metrics_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	subject_id  TEXT NOT NULL,
	ts          TEXT NOT NULL,
	activity    REAL NOT NULL,
	visits_24h  REAL NOT NULL,
	visits_48h  REAL NOT NULL,
	avg_speed   REAL NOT NULL,
	speed_std   REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_metrics_subject ON metrics_history(subject_id, id);

CREATE TABLE IF NOT EXISTS baselines (
	subject_id  TEXT PRIMARY KEY,
	doc         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_deviations (
	subject_id   TEXT NOT NULL,
	date         TEXT NOT NULL,
	activity_pct REAL NOT NULL,
	speed_pct    REAL NOT NULL,
	visits_pct   REAL NOT NULL,
	flag_count   INTEGER NOT NULL,
	PRIMARY KEY (subject_id, date)
);

CREATE TABLE IF NOT EXISTS drift_assessments (
	subject_id  TEXT PRIMARY KEY,
	doc         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS risk_assessments (
	subject_id  TEXT PRIMARY KEY,
	doc         TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
	id          TEXT PRIMARY KEY,
	subject_id  TEXT NOT NULL,
	ts          TEXT NOT NULL,
	doc         TEXT NOT NULL
);
`

// #endregion schema

// #region sqlite-store

// SQLite is the durable Store backed by a single database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database and runs migrations.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// #endregion sqlite-store

// #region metrics

func (s *SQLite) MetricsHistory(ctx context.Context, subjectID string) ([]herd.Metrics, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, activity, visits_24h, visits_48h, avg_speed, speed_std
		FROM metrics_history WHERE subject_id = ? ORDER BY id`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var out []herd.Metrics
	for rows.Next() {
		m := herd.Metrics{SubjectID: subjectID}
		var tsStr string
		if err := rows.Scan(&tsStr, &m.ActivityLevel, &m.Visits24h, &m.Visits48h, &m.AvgSpeed, &m.SpeedStdDev); err != nil {
			return nil, fmt.Errorf("scan metrics: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsStr)
		if err != nil {
			return nil, fmt.Errorf("parse ts: %w", err)
		}
		m.Timestamp = ts
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLite) AppendMetrics(ctx context.Context, m herd.Metrics) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO metrics_history (subject_id, ts, activity, visits_24h, visits_48h, avg_speed, speed_std)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.SubjectID, m.Timestamp.Format(time.RFC3339Nano),
		m.ActivityLevel, m.Visits24h, m.Visits48h, m.AvgSpeed, m.SpeedStdDev,
	)
	if err != nil {
		return fmt.Errorf("insert metrics: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM metrics_history WHERE subject_id = ? AND id NOT IN (
			SELECT id FROM metrics_history WHERE subject_id = ? ORDER BY id DESC LIMIT ?
		)`,
		m.SubjectID, m.SubjectID, herd.MetricsHistoryCap,
	)
	if err != nil {
		return fmt.Errorf("trim metrics: %w", err)
	}

	return tx.Commit()
}

// #endregion metrics

// #region baseline

func (s *SQLite) Baseline(ctx context.Context, subjectID string) (herd.Baseline, bool, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM baselines WHERE subject_id = ?`, subjectID,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return herd.Baseline{}, false, nil
	}
	if err != nil {
		return herd.Baseline{}, false, fmt.Errorf("query baseline: %w", err)
	}

	var b herd.Baseline
	if err := json.Unmarshal([]byte(doc), &b); err != nil {
		return herd.Baseline{}, false, fmt.Errorf("unmarshal baseline: %w", err)
	}
	return b, true, nil
}

func (s *SQLite) PutBaseline(ctx context.Context, b herd.Baseline) error {
	doc, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal baseline: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO baselines (subject_id, doc) VALUES (?, ?)
		ON CONFLICT(subject_id) DO UPDATE SET doc = excluded.doc`,
		b.SubjectID, string(doc),
	)
	if err != nil {
		return fmt.Errorf("put baseline: %w", err)
	}
	return nil
}

// #endregion baseline

// #region deviations

func (s *SQLite) DeviationHistory(ctx context.Context, subjectID string) ([]herd.DailyDeviation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, activity_pct, speed_pct, visits_pct, flag_count
		FROM daily_deviations WHERE subject_id = ? ORDER BY date DESC`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query deviations: %w", err)
	}
	defer rows.Close()

	var out []herd.DailyDeviation
	for rows.Next() {
		var d herd.DailyDeviation
		if err := rows.Scan(&d.Date, &d.ActivityPct, &d.SpeedPct, &d.VisitsPct, &d.FlagCount); err != nil {
			return nil, fmt.Errorf("scan deviation: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLite) UpsertDeviation(ctx context.Context, subjectID string, d herd.DailyDeviation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO daily_deviations (subject_id, date, activity_pct, speed_pct, visits_pct, flag_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(subject_id, date) DO UPDATE SET
			activity_pct = excluded.activity_pct,
			speed_pct    = excluded.speed_pct,
			visits_pct   = excluded.visits_pct,
			flag_count   = excluded.flag_count`,
		subjectID, d.Date, d.ActivityPct, d.SpeedPct, d.VisitsPct, d.FlagCount,
	)
	if err != nil {
		return fmt.Errorf("upsert deviation: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM daily_deviations WHERE subject_id = ? AND date NOT IN (
			SELECT date FROM daily_deviations WHERE subject_id = ? ORDER BY date DESC LIMIT ?
		)`,
		subjectID, subjectID, herd.DeviationHistoryCap,
	)
	if err != nil {
		return fmt.Errorf("trim deviations: %w", err)
	}

	return tx.Commit()
}

// #endregion deviations

// #region assessments

func (s *SQLite) DriftAssessment(ctx context.Context, subjectID string) (herd.DriftAssessment, bool, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM drift_assessments WHERE subject_id = ?`, subjectID,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return herd.DriftAssessment{}, false, nil
	}
	if err != nil {
		return herd.DriftAssessment{}, false, fmt.Errorf("query drift: %w", err)
	}

	var a herd.DriftAssessment
	if err := json.Unmarshal([]byte(doc), &a); err != nil {
		return herd.DriftAssessment{}, false, fmt.Errorf("unmarshal drift: %w", err)
	}
	return a, true, nil
}

func (s *SQLite) PutDriftAssessment(ctx context.Context, a herd.DriftAssessment) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal drift: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drift_assessments (subject_id, doc) VALUES (?, ?)
		ON CONFLICT(subject_id) DO UPDATE SET doc = excluded.doc`,
		a.SubjectID, string(doc),
	)
	if err != nil {
		return fmt.Errorf("put drift: %w", err)
	}
	return nil
}

func (s *SQLite) RiskAssessment(ctx context.Context, subjectID string) (herd.RiskAssessment, bool, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM risk_assessments WHERE subject_id = ?`, subjectID,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return herd.RiskAssessment{}, false, nil
	}
	if err != nil {
		return herd.RiskAssessment{}, false, fmt.Errorf("query risk: %w", err)
	}

	var a herd.RiskAssessment
	if err := json.Unmarshal([]byte(doc), &a); err != nil {
		return herd.RiskAssessment{}, false, fmt.Errorf("unmarshal risk: %w", err)
	}
	return a, true, nil
}

func (s *SQLite) PutRiskAssessment(ctx context.Context, a herd.RiskAssessment) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal risk: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO risk_assessments (subject_id, doc) VALUES (?, ?)
		ON CONFLICT(subject_id) DO UPDATE SET doc = excluded.doc`,
		a.SubjectID, string(doc),
	)
	if err != nil {
		return fmt.Errorf("put risk: %w", err)
	}
	return nil
}

// #endregion assessments

// #region alerts

func (s *SQLite) AppendAlert(ctx context.Context, a herd.Alert) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO alerts (id, subject_id, ts, doc) VALUES (?, ?, ?, ?)`,
		a.ID, a.SubjectID, a.Timestamp.Format(time.RFC3339Nano), string(doc),
	)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM alerts WHERE id NOT IN (
			SELECT id FROM alerts ORDER BY ts DESC LIMIT ?
		)`,
		herd.AlertLogCap,
	)
	if err != nil {
		return fmt.Errorf("trim alerts: %w", err)
	}

	return tx.Commit()
}

func (s *SQLite) Alerts(ctx context.Context) ([]herd.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM alerts ORDER BY ts`)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []herd.Alert
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		var a herd.Alert
		if err := json.Unmarshal([]byte(doc), &a); err != nil {
			return nil, fmt.Errorf("unmarshal alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// #endregion alerts

// #region subjects

func (s *SQLite) Subjects(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subject_id FROM metrics_history
		UNION SELECT subject_id FROM baselines
		ORDER BY subject_id`)
	if err != nil {
		return nil, fmt.Errorf("query subjects: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// #endregion subjects
