package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/pasturelab/herdsense/internal/drift"
	"github.com/pasturelab/herdsense/internal/herd"
)

// #region redis-store

// Redis is the Store for shared deployments where several front-ends read
// the same herd state. Histories live in capped lists, single records in
// plain keys, deviations as one JSON document per subject.
type Redis struct {
	client *redis.Client
}

// NewRedis connects and pings the server.
func NewRedis(addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Redis{client: client}, nil
}

// NewRedisFromClient wraps an existing client (used by tests).
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Close releases the client connection pool.
func (s *Redis) Close() error {
	return s.client.Close()
}

func metricsKey(id string) string   { return "herdsense:metrics:" + id }
func baselineKey(id string) string  { return "herdsense:baseline:" + id }
func deviationKey(id string) string { return "herdsense:deviations:" + id }
func driftKey(id string) string     { return "herdsense:drift:" + id }
func riskKey(id string) string      { return "herdsense:risk:" + id }

const (
	alertsKey   = "herdsense:alerts"
	subjectsKey = "herdsense:subjects"
)

// #endregion redis-store

// #region metrics

func (s *Redis) MetricsHistory(ctx context.Context, subjectID string) ([]herd.Metrics, error) {
	raw, err := s.client.LRange(ctx, metricsKey(subjectID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read metrics list: %w", err)
	}

	// List is newest-first (LPUSH); history is returned oldest-first.
	out := make([]herd.Metrics, len(raw))
	for i, item := range raw {
		var m herd.Metrics
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			return nil, fmt.Errorf("unmarshal metrics: %w", err)
		}
		out[len(raw)-1-i] = m
	}
	return out, nil
}

func (s *Redis) AppendMetrics(ctx context.Context, m herd.Metrics) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, metricsKey(m.SubjectID), doc)
	pipe.LTrim(ctx, metricsKey(m.SubjectID), 0, int64(herd.MetricsHistoryCap-1))
	pipe.SAdd(ctx, subjectsKey, m.SubjectID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append metrics: %w", err)
	}
	return nil
}

// #endregion metrics

// #region baseline

func (s *Redis) Baseline(ctx context.Context, subjectID string) (herd.Baseline, bool, error) {
	var b herd.Baseline
	ok, err := s.getJSON(ctx, baselineKey(subjectID), &b)
	return b, ok, err
}

func (s *Redis) PutBaseline(ctx context.Context, b herd.Baseline) error {
	if err := s.setJSON(ctx, baselineKey(b.SubjectID), b); err != nil {
		return err
	}
	return s.client.SAdd(ctx, subjectsKey, b.SubjectID).Err()
}

// #endregion baseline

// #region deviations

func (s *Redis) DeviationHistory(ctx context.Context, subjectID string) ([]herd.DailyDeviation, error) {
	var history []herd.DailyDeviation
	if _, err := s.getJSON(ctx, deviationKey(subjectID), &history); err != nil {
		return nil, err
	}
	return history, nil
}

func (s *Redis) UpsertDeviation(ctx context.Context, subjectID string, d herd.DailyDeviation) error {
	history, err := s.DeviationHistory(ctx, subjectID)
	if err != nil {
		return err
	}
	return s.setJSON(ctx, deviationKey(subjectID), drift.Upsert(history, d))
}

// #endregion deviations

// #region assessments

func (s *Redis) DriftAssessment(ctx context.Context, subjectID string) (herd.DriftAssessment, bool, error) {
	var a herd.DriftAssessment
	ok, err := s.getJSON(ctx, driftKey(subjectID), &a)
	return a, ok, err
}

func (s *Redis) PutDriftAssessment(ctx context.Context, a herd.DriftAssessment) error {
	return s.setJSON(ctx, driftKey(a.SubjectID), a)
}

func (s *Redis) RiskAssessment(ctx context.Context, subjectID string) (herd.RiskAssessment, bool, error) {
	var a herd.RiskAssessment
	ok, err := s.getJSON(ctx, riskKey(subjectID), &a)
	return a, ok, err
}

func (s *Redis) PutRiskAssessment(ctx context.Context, a herd.RiskAssessment) error {
	return s.setJSON(ctx, riskKey(a.SubjectID), a)
}

// #endregion assessments

// #region alerts

func (s *Redis) AppendAlert(ctx context.Context, a herd.Alert) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, alertsKey, doc)
	pipe.LTrim(ctx, alertsKey, 0, int64(herd.AlertLogCap-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append alert: %w", err)
	}
	return nil
}

func (s *Redis) Alerts(ctx context.Context) ([]herd.Alert, error) {
	raw, err := s.client.LRange(ctx, alertsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read alerts: %w", err)
	}

	out := make([]herd.Alert, len(raw))
	for i, item := range raw {
		var a herd.Alert
		if err := json.Unmarshal([]byte(item), &a); err != nil {
			return nil, fmt.Errorf("unmarshal alert: %w", err)
		}
		out[len(raw)-1-i] = a
	}
	return out, nil
}

// #endregion alerts

// #region subjects

func (s *Redis) Subjects(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, subjectsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read subjects: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// #endregion subjects

// #region json-helpers

func (s *Redis) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (s *Redis) setJSON(ctx context.Context, key string, v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, doc, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// #endregion json-helpers
