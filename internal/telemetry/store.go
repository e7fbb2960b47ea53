package telemetry

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fieldmark-robotics/avoid.sim/internal/policy"
)

// Store persists runs and step records in sqlite for post-hoc queries.
type Store struct {
	*sql.DB
}

// NewStore opens (or creates) the sqlite database at path. The schema
// is managed by migrations; call MigrateUp before recording.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	return &Store{db}, nil
}

// RunParams captures the tuning a run was started with.
type RunParams struct {
	Dt             float64
	ForwardSpeed   float64
	TurnRate       float64
	StopDistance   float64
	GoDistance     float64
	NoiseAmplitude float64
}

// BeginRun inserts a new run row and returns its generated ID.
func (s *Store) BeginRun(params RunParams) (string, error) {
	runID := uuid.NewString()
	_, err := s.Exec(`
		INSERT INTO runs (run_id, started_at, dt, forward_speed, turn_rate, stop_distance, go_distance, noise_amplitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC(), params.Dt, params.ForwardSpeed, params.TurnRate,
		params.StopDistance, params.GoDistance, params.NoiseAmplitude)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return runID, nil
}

// FinishRun marks a run as done, recording how many steps completed and
// whether the run was interrupted before its cap.
func (s *Store) FinishRun(runID string, steps int, interrupted bool) error {
	_, err := s.Exec(`
		UPDATE runs SET finished_at = ?, steps = ?, interrupted = ? WHERE run_id = ?`,
		time.Now().UTC(), steps, interrupted, runID)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	return nil
}

// RecordSteps batch-inserts step records for a run inside one
// transaction.
func (s *Store) RecordSteps(runID string, records []StepRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("begin steps tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO steps (run_id, t, x, y, theta, dmin, state, reason, v, omega, nearest_ox, nearest_oy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare step insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(runID, r.T, r.X, r.Y, r.Theta, r.NearestDist,
			string(r.State), string(r.Reason), r.V, r.Omega, r.NearestX, r.NearestY); err != nil {
			return fmt.Errorf("insert step t=%f: %w", r.T, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit steps tx: %w", err)
	}
	return nil
}

// StepsForRun returns all step records for a run in time order.
func (s *Store) StepsForRun(runID string) ([]StepRecord, error) {
	rows, err := s.Query(`
		SELECT t, x, y, theta, dmin, state, reason, v, omega, nearest_ox, nearest_oy
		FROM steps WHERE run_id = ? ORDER BY t`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps for run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []StepRecord
	for rows.Next() {
		var r StepRecord
		var state, reason string
		if err := rows.Scan(&r.T, &r.X, &r.Y, &r.Theta, &r.NearestDist,
			&state, &reason, &r.V, &r.Omega, &r.NearestX, &r.NearestY); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		r.State = policy.State(state)
		r.Reason = policy.Reason(reason)
		records = append(records, r)
	}
	return records, rows.Err()
}

// LatestRunID returns the most recently started run's ID, or
// sql.ErrNoRows if the store holds no runs.
func (s *Store) LatestRunID() (string, error) {
	var runID string
	err := s.QueryRow(`SELECT run_id FROM runs ORDER BY started_at DESC LIMIT 1`).Scan(&runID)
	if err != nil {
		return "", err
	}
	return runID, nil
}

// RunStats summarises a finished run.
type RunStats struct {
	Steps       int
	MinDistance float64
	TurnSteps   int // steps spent in the TURN state
	Duration    float64
}

// Stats computes aggregate statistics for a run from its step rows.
func (s *Store) Stats(runID string) (RunStats, error) {
	var st RunStats
	err := s.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(MIN(dmin), 0),
		       COALESCE(SUM(CASE WHEN state = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(MAX(t), 0)
		FROM steps WHERE run_id = ?`, string(policy.StateTurn), runID).
		Scan(&st.Steps, &st.MinDistance, &st.TurnSteps, &st.Duration)
	if err != nil {
		return st, fmt.Errorf("stats for run %s: %w", runID, err)
	}
	return st, nil
}

// BufferedRecorder adapts a Store to the Recorder interface, batching
// inserts so the sqlite sink does not add a transaction per step.
type BufferedRecorder struct {
	store     *Store
	runID     string
	batchSize int
	pending   []StepRecord
}

// NewBufferedRecorder creates a recorder writing to the given run.
// batchSize <= 0 defaults to 256.
func NewBufferedRecorder(store *Store, runID string, batchSize int) *BufferedRecorder {
	if batchSize <= 0 {
		batchSize = 256
	}
	return &BufferedRecorder{store: store, runID: runID, batchSize: batchSize}
}

// Record buffers one step, flushing when the batch fills.
func (b *BufferedRecorder) Record(r StepRecord) error {
	b.pending = append(b.pending, r)
	if len(b.pending) >= b.batchSize {
		return b.Flush()
	}
	return nil
}

// Flush writes any buffered steps to the store.
func (b *BufferedRecorder) Flush() error {
	if len(b.pending) == 0 {
		return nil
	}
	if err := b.store.RecordSteps(b.runID, b.pending); err != nil {
		return err
	}
	b.pending = b.pending[:0]
	return nil
}
