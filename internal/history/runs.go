package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is one execution of a behavior against a device
type Run struct {
	ID         string
	Behavior   string
	Device     string
	Status     string
	Error      sql.NullString
	StartedAt  time.Time
	FinishedAt sql.NullTime
}

// StepRecord is one recorded step outcome within a run
type StepRecord struct {
	ID         int64
	RunID      string
	StepIndex  int
	Done       bool
	Wait       bool
	Error      sql.NullString
	RecordedAt time.Time
}

// StartRun inserts a new running run and returns its generated ID
func (db *DB) StartRun(behavior, device string) (string, error) {
	runID := uuid.NewString()

	_, err := db.conn.Exec(`
		INSERT INTO runs (id, behavior, device, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, runID, behavior, device, RunStatusRunning, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}

	return runID, nil
}

// CompleteRun marks a run as completed
func (db *DB) CompleteRun(runID string) error {
	return db.finishRun(runID, RunStatusCompleted, nil)
}

// FailRun marks a run as failed with the given error
func (db *DB) FailRun(runID string, runErr error) error {
	return db.finishRun(runID, RunStatusFailed, runErr)
}

func (db *DB) finishRun(runID, status string, runErr error) error {
	var errText sql.NullString
	if runErr != nil {
		errText = sql.NullString{String: runErr.Error(), Valid: true}
	}

	result, err := db.conn.Exec(`
		UPDATE runs SET status = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, status, errText, time.Now(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("run '%s' not found", runID)
	}
	return nil
}

// RecordStep records one step outcome for a run
func (db *DB) RecordStep(runID string, stepIndex int, done, wait bool, stepErr error) error {
	var errText sql.NullString
	if stepErr != nil {
		errText = sql.NullString{String: stepErr.Error(), Valid: true}
	}

	_, err := db.conn.Exec(`
		INSERT INTO step_outcomes (run_id, step_index, done, wait, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, runID, stepIndex, done, wait, errText, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record step: %w", err)
	}
	return nil
}

// GetRun fetches a run by ID
func (db *DB) GetRun(runID string) (*Run, error) {
	run := &Run{}
	err := db.conn.QueryRow(`
		SELECT id, behavior, device, status, error, started_at, finished_at
		FROM runs WHERE id = ?
	`, runID).Scan(&run.ID, &run.Behavior, &run.Device, &run.Status, &run.Error, &run.StartedAt, &run.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run '%s' not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRecentRuns returns the most recent runs, newest first
func (db *DB) ListRecentRuns(limit int) ([]*Run, error) {
	rows, err := db.conn.Query(`
		SELECT id, behavior, device, status, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(&run.ID, &run.Behavior, &run.Device, &run.Status, &run.Error, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetSteps returns all recorded step outcomes for a run, in order
func (db *DB) GetSteps(runID string) ([]*StepRecord, error) {
	rows, err := db.conn.Query(`
		SELECT id, run_id, step_index, done, wait, error, recorded_at
		FROM step_outcomes WHERE run_id = ? ORDER BY step_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get steps: %w", err)
	}
	defer rows.Close()

	var steps []*StepRecord
	for rows.Next() {
		s := &StepRecord{}
		if err := rows.Scan(&s.ID, &s.RunID, &s.StepIndex, &s.Done, &s.Wait, &s.Error, &s.RecordedAt); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}
