package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Analysis.SamplingRate != 1000 {
		t.Errorf("Analysis.SamplingRate = %d, want 1000", cfg.Analysis.SamplingRate)
	}
	if cfg.Analysis.SmoothingWindow != 10000 {
		t.Errorf("Analysis.SmoothingWindow = %d, want 10000", cfg.Analysis.SmoothingWindow)
	}
	if cfg.Review.Mode != ReviewConsole {
		t.Errorf("Review.Mode = %q, want %q", cfg.Review.Mode, ReviewConsole)
	}
	if cfg.Paths.SubjectLog != "Subject.log" {
		t.Errorf("Paths.SubjectLog = %q, want %q", cfg.Paths.SubjectLog, "Subject.log")
	}
	if cfg.Paths.TerminationLog != "Termination.log" {
		t.Errorf("Paths.TerminationLog = %q, want %q", cfg.Paths.TerminationLog, "Termination.log")
	}

	// History ledger is off by default
	if cfg.Paths.HistoryDB != "" {
		t.Errorf("Paths.HistoryDB should be empty, got %q", cfg.Paths.HistoryDB)
	}
	if !cfg.Display.ShowChart() {
		t.Error("ASCII chart should be enabled by default")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*Config)
		expectError bool
		errContains string
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:        "zero sampling rate",
			modify:      func(c *Config) { c.Analysis.SamplingRate = 0 },
			expectError: true,
			errContains: "sampling_rate",
		},
		{
			name:        "negative window",
			modify:      func(c *Config) { c.Analysis.SmoothingWindow = -1 },
			expectError: true,
			errContains: "smoothing_window",
		},
		{
			name:        "unknown review mode",
			modify:      func(c *Config) { c.Review.Mode = "email" },
			expectError: true,
			errContains: "review.mode",
		},
		{
			name:        "answers mode without file",
			modify:      func(c *Config) { c.Review.Mode = ReviewAnswers },
			expectError: true,
			errContains: "answers_file",
		},
		{
			name: "answers mode with file",
			modify: func(c *Config) {
				c.Review.Mode = ReviewAnswers
				c.Review.AnswersFile = "answers.json"
			},
		},
		{
			name:        "negative timeout",
			modify:      func(c *Config) { c.Review.TimeoutS = -5 },
			expectError: true,
			errContains: "timeout_s",
		},
		{
			name:        "negative reference year",
			modify:      func(c *Config) { c.Analysis.ReferenceYear = -1 },
			expectError: true,
			errContains: "reference_year",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, ErrNoConfig) {
		t.Errorf("Load() error = %v, want ErrNoConfig", err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"paths": {"input_dir": "lab"}, "analysis": {"reference_year": 2022}, "display": {"ascii_chart": false}}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Paths.InputDir != "lab" {
		t.Errorf("Paths.InputDir = %q, want %q", cfg.Paths.InputDir, "lab")
	}
	if cfg.Paths.OutputDir != "result_data" {
		t.Errorf("Paths.OutputDir = %q, want default", cfg.Paths.OutputDir)
	}
	if cfg.Analysis.SamplingRate != 1000 || cfg.Analysis.SmoothingWindow != 10000 {
		t.Errorf("analysis defaults not applied: %+v", cfg.Analysis)
	}
	if cfg.Analysis.ReferenceYear != 2022 {
		t.Errorf("Analysis.ReferenceYear = %d, want 2022", cfg.Analysis.ReferenceYear)
	}
	if cfg.Review.Mode != ReviewConsole {
		t.Errorf("Review.Mode = %q, want default", cfg.Review.Mode)
	}
	if cfg.Display.ShowChart() {
		t.Error("explicit ascii_chart=false should disable the chart")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil || errors.Is(err, ErrNoConfig) {
		t.Errorf("Load() error = %v, want parse error", err)
	}
}

func TestSaveAndCreateExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	if err := CreateExample(path); err != nil {
		t.Fatalf("CreateExample() error = %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Paths.HistoryDB == "" {
		t.Error("example config should enable the history ledger")
	}

	// CreateExample must not overwrite an existing file
	cfg.Paths.InputDir = "custom"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := CreateExample(path); err != nil {
		t.Fatalf("CreateExample() error = %v", err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Paths.InputDir != "custom" {
		t.Errorf("Paths.InputDir = %q, want %q", cfg.Paths.InputDir, "custom")
	}
}

func TestResolveReferenceYear(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	cfg := DefaultConfig()
	if got := cfg.ResolveReferenceYear(now); got != 2026 {
		t.Errorf("ResolveReferenceYear() = %d, want 2026", got)
	}

	cfg.Analysis.ReferenceYear = 2022
	if got := cfg.ResolveReferenceYear(now); got != 2022 {
		t.Errorf("ResolveReferenceYear() = %d, want 2022", got)
	}
}

func TestReviewTimeout(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ReviewTimeout() != 0 {
		t.Errorf("ReviewTimeout() = %v, want 0", cfg.ReviewTimeout())
	}
	cfg.Review.TimeoutS = 30
	if cfg.ReviewTimeout() != 30*time.Second {
		t.Errorf("ReviewTimeout() = %v, want 30s", cfg.ReviewTimeout())
	}
}
