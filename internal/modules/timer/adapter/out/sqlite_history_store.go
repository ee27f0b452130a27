package out

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pomoguard/internal/modules/timer/domain"
	timerout "pomoguard/internal/modules/timer/port/out"
)

const defaultHistoryLimit = 50

type SQLiteHistoryStore struct {
	db *sql.DB
}

func NewSQLiteHistoryStore(db *sql.DB) (timerout.HistoryStore, error) {
	s := &SQLiteHistoryStore{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteHistoryStore) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS phase_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  phase TEXT NOT NULL,
  planned_seconds INTEGER NOT NULL,
  started_at TEXT NOT NULL,
  completed_at TEXT NOT NULL,
  pomodoro_count INTEGER NOT NULL
);`)
	if err != nil {
		return fmt.Errorf("ensure phase_history schema: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryStore) Append(ctx context.Context, record domain.PhaseRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO phase_history(phase, planned_seconds, started_at, completed_at, pomodoro_count)
VALUES(?, ?, ?, ?, ?)`,
		string(record.Phase),
		record.PlannedSeconds,
		formatTime(record.StartedAt),
		formatTime(record.CompletedAt),
		record.PomodoroCount,
	)
	if err != nil {
		return fmt.Errorf("append phase history: %w", err)
	}
	return nil
}

// List returns the newest records first.
func (s *SQLiteHistoryStore) List(ctx context.Context, limit int) ([]domain.PhaseRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT phase, planned_seconds, started_at, completed_at, pomodoro_count
FROM phase_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query phase history: %w", err)
	}
	defer rows.Close()
	out := []domain.PhaseRecord{}
	for rows.Next() {
		var (
			phase              string
			started, completed string
			record             domain.PhaseRecord
		)
		if err := rows.Scan(&phase, &record.PlannedSeconds, &started, &completed, &record.PomodoroCount); err != nil {
			return nil, fmt.Errorf("scan phase history: %w", err)
		}
		record.Phase = domain.Phase(phase)
		record.StartedAt = parseTime(started)
		record.CompletedAt = parseTime(completed)
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate phase history: %w", err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
