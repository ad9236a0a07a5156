package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BeginRun records the start of a batch run and returns it with a fresh ID
func (db *DB) BeginRun(inputDir, outputDir string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC().Truncate(time.Second),
		InputDir:  inputDir,
		OutputDir: outputDir,
	}

	_, err := db.Exec(`
		INSERT INTO runs (id, started_at, input_dir, output_dir)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.StartedAt.Format(time.RFC3339), run.InputDir, run.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by ID
func (db *DB) GetRun(id string) (*Run, error) {
	var r Run
	var startedAt string
	err := db.QueryRow(`
		SELECT id, started_at, input_dir, output_dir FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &startedAt, &r.InputDir, &r.OutputDir)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}

	r.StartedAt, err = time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
	}
	return &r, nil
}

// ListRuns returns the most recent runs first
func (db *DB) ListRuns(limit int) ([]Run, error) {
	rows, err := db.Query(`
		SELECT id, started_at, input_dir, output_dir
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt string
		if err = rows.Scan(&r.ID, &startedAt, &r.InputDir, &r.OutputDir); err != nil {
			return nil, err
		}
		r.StartedAt, err = time.Parse(time.RFC3339, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}
