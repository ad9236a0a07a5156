package store

import "database/sql"

// migrate runs all database migrations
func migrate(db *sql.DB) error {
	migrations := []string{
		// Batch runs
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			input_dir TEXT NOT NULL,
			output_dir TEXT NOT NULL
		)`,

		// Persisted test summaries, one per subject per run
		`CREATE TABLE IF NOT EXISTS test_results (
			run_id TEXT NOT NULL,
			subject_id INTEGER NOT NULL,
			automatic_termination INTEGER NOT NULL,
			manual_termination TEXT NOT NULL,
			average_hr REAL NOT NULL,
			hrv REAL NOT NULL,
			maximum_hr REAL NOT NULL,
			test_length_s INTEGER NOT NULL,
			test_power_w INTEGER NOT NULL,
			plot_path TEXT NOT NULL,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (run_id, subject_id),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_test_results_subject ON test_results(subject_id)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
