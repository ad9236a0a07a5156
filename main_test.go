package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ergometry/internal/config"
	"ergometry/internal/store"
)

func TestDemoCohort(t *testing.T) {
	subjects := demoCohort(5)
	if len(subjects) != 5 {
		t.Fatalf("len = %d, want 5", len(subjects))
	}
	for i, s := range subjects {
		if s.ID != i+1 {
			t.Errorf("subjects[%d].ID = %d, want %d", i, s.ID, i+1)
		}
	}
	// The cohort template repeats
	if subjects[3].BirthYear != subjects[0].BirthYear {
		t.Errorf("subjects[3].BirthYear = %d, want %d", subjects[3].BirthYear, subjects[0].BirthYear)
	}
}

func TestRunFlagsApply(t *testing.T) {
	tests := []struct {
		name     string
		flags    runFlags
		wantMode string
		wantYear int
	}{
		{"no flags keeps config", runFlags{}, config.ReviewConsole, 0},
		{"answers file implies answers mode", runFlags{AnswersFile: "a.json"}, config.ReviewAnswers, 0},
		{"explicit mode wins", runFlags{AnswersFile: "a.json", ReviewMode: config.ReviewAccept}, config.ReviewAccept, 0},
		{"reference year", runFlags{ReferenceYear: 2022}, config.ReviewConsole, 2022},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.flags.apply(&cfg)
			if cfg.Review.Mode != tt.wantMode {
				t.Errorf("Review.Mode = %q, want %q", cfg.Review.Mode, tt.wantMode)
			}
			if cfg.Analysis.ReferenceYear != tt.wantYear {
				t.Errorf("Analysis.ReferenceYear = %d, want %d", cfg.Analysis.ReferenceYear, tt.wantYear)
			}
		})
	}

	// 1990 against 2022 gives the 188 bpm maximum regardless of today's date
	cfg := config.DefaultConfig()
	runFlags{ReferenceYear: 2022}.apply(&cfg)
	s := store.Subject{BirthYear: 1990, ReferenceYear: cfg.ResolveReferenceYear(time.Now())}
	if s.MaxHR() != 188 {
		t.Errorf("MaxHR() = %d, want 188", s.MaxHR())
	}
}

func setupHistory(t *testing.T) (*store.DB, string) {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	run, err := db.BeginRun("/in", "/out")
	if err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}
	for _, r := range []store.TestResult{
		{SubjectID: 1, AverageHR: 120, MaximumHR: 150, HRV: 0.5, TestLengthS: 299},
		{SubjectID: 2, AverageHR: 140, MaximumHR: 170, HRV: 0.43, TestLengthS: 299, ManualTermination: "irregular breathing"},
	} {
		if err := db.SaveTestResult(run.ID, r); err != nil {
			t.Fatalf("SaveTestResult() error = %v", err)
		}
	}
	return db, run.ID
}

func TestPrintHistory(t *testing.T) {
	db, runID := setupHistory(t)

	t.Run("recent runs", func(t *testing.T) {
		var buf bytes.Buffer
		if err := printHistory(&buf, db, historyQuery{Limit: 10}); err != nil {
			t.Fatalf("printHistory() error = %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, runID) || !strings.Contains(out, "150 bpm") || !strings.Contains(out, "170 bpm") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("one subject", func(t *testing.T) {
		var buf bytes.Buffer
		if err := printHistory(&buf, db, historyQuery{SubjectID: 2}); err != nil {
			t.Fatalf("printHistory() error = %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "Subject 2") || !strings.Contains(out, "irregular breathing") {
			t.Errorf("unexpected output:\n%s", out)
		}
		if strings.Contains(out, "150 bpm") {
			t.Errorf("subject 1 should not be listed:\n%s", out)
		}
	})

	t.Run("unknown subject", func(t *testing.T) {
		var buf bytes.Buffer
		if err := printHistory(&buf, db, historyQuery{SubjectID: 9}); err != nil {
			t.Fatalf("printHistory() error = %v", err)
		}
		if !strings.Contains(buf.String(), "No results recorded for subject 9") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("one run", func(t *testing.T) {
		var buf bytes.Buffer
		if err := printHistory(&buf, db, historyQuery{RunID: runID}); err != nil {
			t.Fatalf("printHistory() error = %v", err)
		}
		if !strings.Contains(buf.String(), "Run "+runID) {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		err := printHistory(&bytes.Buffer{}, db, historyQuery{RunID: "missing"})
		if !errors.Is(err, store.ErrRunNotFound) {
			t.Errorf("printHistory() error = %v, want ErrRunNotFound", err)
		}
	})
}
