package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Review modes
const (
	ReviewConsole = "console"
	ReviewPrompt  = "prompt"
	ReviewAccept  = "accept"
	ReviewAnswers = "answers"
)

// Config represents the application configuration
type Config struct {
	Paths    PathsConfig    `json:"paths"`
	Analysis AnalysisConfig `json:"analysis"`
	Review   ReviewConfig   `json:"review"`
	Display  DisplayConfig  `json:"display"`
}

// PathsConfig holds input and output locations
type PathsConfig struct {
	InputDir       string `json:"input_dir"`
	OutputDir      string `json:"output_dir"`
	SubjectLog     string `json:"subject_log"`
	TerminationLog string `json:"termination_log"`
	HistoryDB      string `json:"history_db"` // empty disables the run history
}

// AnalysisConfig holds heart rate computation settings
type AnalysisConfig struct {
	SamplingRate    int `json:"sampling_rate"`    // Hz
	SmoothingWindow int `json:"smoothing_window"` // samples
	ReferenceYear   int `json:"reference_year"`   // 0 = current year
}

// ReviewConfig holds manual termination review settings
type ReviewConfig struct {
	Mode        string `json:"mode"`
	AnswersFile string `json:"answers_file"`
	TimeoutS    int    `json:"timeout_s"` // 0 = wait forever
}

// DisplayConfig holds console output preferences
type DisplayConfig struct {
	ASCIIChart  *bool `json:"ascii_chart,omitempty"`
	ChartWidth  int   `json:"chart_width"`
	ChartHeight int   `json:"chart_height"`
}

// ShowChart reports whether the terminal chart is enabled (default true)
func (d DisplayConfig) ShowChart() bool {
	return d.ASCIIChart == nil || *d.ASCIIChart
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			InputDir:       "input_data",
			OutputDir:      "result_data",
			SubjectLog:     "Subject.log",
			TerminationLog: "Termination.log",
		},
		Analysis: AnalysisConfig{
			SamplingRate:    1000,
			SmoothingWindow: 10000,
		},
		Review: ReviewConfig{
			Mode: ReviewConsole,
		},
		Display: DisplayConfig{
			ChartWidth:  72,
			ChartHeight: 10,
		},
	}
}

// Load reads the configuration from path, or ~/.ergometry/config.json when path is empty
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := getConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills zero values from DefaultConfig
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Paths.InputDir == "" {
		c.Paths.InputDir = defaults.Paths.InputDir
	}
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = defaults.Paths.OutputDir
	}
	if c.Paths.SubjectLog == "" {
		c.Paths.SubjectLog = defaults.Paths.SubjectLog
	}
	if c.Paths.TerminationLog == "" {
		c.Paths.TerminationLog = defaults.Paths.TerminationLog
	}
	if c.Analysis.SamplingRate == 0 {
		c.Analysis.SamplingRate = defaults.Analysis.SamplingRate
	}
	if c.Analysis.SmoothingWindow == 0 {
		c.Analysis.SmoothingWindow = defaults.Analysis.SmoothingWindow
	}
	if c.Review.Mode == "" {
		c.Review.Mode = defaults.Review.Mode
	}
	if c.Display.ChartWidth == 0 {
		c.Display.ChartWidth = defaults.Display.ChartWidth
	}
	if c.Display.ChartHeight == 0 {
		c.Display.ChartHeight = defaults.Display.ChartHeight
	}
}

// Save writes the configuration to path, or ~/.ergometry/config.json when path is empty
func Save(path string, cfg *Config) error {
	if path == "" {
		p, err := getConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample(path string) error {
	if path == "" {
		p, err := getConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Paths.HistoryDB = "result_data/history.db"
	return Save(path, &example)
}

// Validate checks that the config values are usable
func (c *Config) Validate() error {
	if c.Analysis.SamplingRate <= 0 {
		return fmt.Errorf("analysis.sampling_rate must be positive, got %d", c.Analysis.SamplingRate)
	}
	if c.Analysis.SmoothingWindow <= 0 {
		return fmt.Errorf("analysis.smoothing_window must be positive, got %d", c.Analysis.SmoothingWindow)
	}
	if c.Analysis.ReferenceYear < 0 {
		return fmt.Errorf("analysis.reference_year must not be negative, got %d", c.Analysis.ReferenceYear)
	}

	switch c.Review.Mode {
	case ReviewConsole, ReviewPrompt, ReviewAccept:
	case ReviewAnswers:
		if c.Review.AnswersFile == "" {
			return errors.New("review.answers_file is required when review.mode is \"answers\"")
		}
	default:
		return fmt.Errorf("review.mode must be one of console, prompt, accept, answers, got %q", c.Review.Mode)
	}
	if c.Review.TimeoutS < 0 {
		return fmt.Errorf("review.timeout_s must not be negative, got %d", c.Review.TimeoutS)
	}

	if c.Display.ChartWidth < 0 || c.Display.ChartHeight < 0 {
		return errors.New("display.chart_width and display.chart_height must not be negative")
	}

	return nil
}

// ResolveReferenceYear returns the configured reference year, or the year of now when unset
func (c *Config) ResolveReferenceYear(now time.Time) int {
	if c.Analysis.ReferenceYear > 0 {
		return c.Analysis.ReferenceYear
	}
	return now.Year()
}

// ReviewTimeout returns the review deadline, zero when disabled
func (c *Config) ReviewTimeout() time.Duration {
	return time.Duration(c.Review.TimeoutS) * time.Second
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".ergometry"), nil
}
