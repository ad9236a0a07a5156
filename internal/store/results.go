package store

import "fmt"

// SaveTestResult stores a test summary under a run.
// Saving the same subject twice within a run replaces the earlier row.
func (db *DB) SaveTestResult(runID string, r TestResult) error {
	_, err := db.Exec(`
		INSERT INTO test_results (
			run_id, subject_id, automatic_termination, manual_termination,
			average_hr, hrv, maximum_hr, test_length_s, test_power_w, plot_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, subject_id) DO UPDATE SET
			automatic_termination = excluded.automatic_termination,
			manual_termination = excluded.manual_termination,
			average_hr = excluded.average_hr,
			hrv = excluded.hrv,
			maximum_hr = excluded.maximum_hr,
			test_length_s = excluded.test_length_s,
			test_power_w = excluded.test_power_w,
			plot_path = excluded.plot_path,
			created_at = CURRENT_TIMESTAMP
	`,
		runID, r.SubjectID, boolToInt(r.AutomaticTermination), r.ManualTermination,
		r.AverageHR, r.HRV, r.MaximumHR, r.TestLengthS, r.TestPowerW, r.PlotPath,
	)
	if err != nil {
		return fmt.Errorf("saving result for subject %d: %w", r.SubjectID, err)
	}
	return nil
}

// GetTestResults retrieves all summaries of a run ordered by subject
func (db *DB) GetTestResults(runID string) ([]TestResult, error) {
	rows, err := db.Query(`
		SELECT subject_id, automatic_termination, manual_termination,
			average_hr, hrv, maximum_hr, test_length_s, test_power_w, plot_path
		FROM test_results
		WHERE run_id = ?
		ORDER BY subject_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []TestResult
	for rows.Next() {
		var r TestResult
		var auto int
		err := rows.Scan(
			&r.SubjectID, &auto, &r.ManualTermination,
			&r.AverageHR, &r.HRV, &r.MaximumHR, &r.TestLengthS, &r.TestPowerW, &r.PlotPath,
		)
		if err != nil {
			return nil, err
		}
		r.AutomaticTermination = auto == 1
		results = append(results, r)
	}

	return results, rows.Err()
}

// GetSubjectHistory returns every stored summary for a subject, newest run first
func (db *DB) GetSubjectHistory(subjectID int) ([]TestResult, error) {
	rows, err := db.Query(`
		SELECT t.subject_id, t.automatic_termination, t.manual_termination,
			t.average_hr, t.hrv, t.maximum_hr, t.test_length_s, t.test_power_w, t.plot_path
		FROM test_results t
		JOIN runs r ON r.id = t.run_id
		WHERE t.subject_id = ?
		ORDER BY r.started_at DESC, r.rowid DESC
	`, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []TestResult
	for rows.Next() {
		var r TestResult
		var auto int
		err := rows.Scan(
			&r.SubjectID, &auto, &r.ManualTermination,
			&r.AverageHR, &r.HRV, &r.MaximumHR, &r.TestLengthS, &r.TestPowerW, &r.PlotPath,
		)
		if err != nil {
			return nil, err
		}
		r.AutomaticTermination = auto == 1
		results = append(results, r)
	}

	return results, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
