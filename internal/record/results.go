package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"ergometry/internal/store"
)

// resultFile is the on-disk layout of a persisted test
type resultFile struct {
	Test store.TestResult `json:"Test"`
}

// ResultFileName returns the result file name for a subject
func ResultFileName(subjectID int) string {
	return fmt.Sprintf("result_data_subject%d.json", subjectID)
}

// PlotFileName returns the plot image name for a subject
func PlotFileName(subjectID int) string {
	return fmt.Sprintf("Subject %d plot.jpeg", subjectID)
}

// PlotPath returns the plot image path for a subject inside dir
func PlotPath(dir string, subjectID int) string {
	return filepath.Join(dir, PlotFileName(subjectID))
}

// WriteResult writes a test summary as indented JSON
func WriteResult(path string, r store.TestResult) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(resultFile{Test: r}); err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing result file: %w", err)
	}
	return nil
}

// ReadResult loads a test summary written by WriteResult
func ReadResult(path string) (store.TestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return store.TestResult{}, fmt.Errorf("reading result file: %w", err)
	}

	var f resultFile
	if err := json.Unmarshal(data, &f); err != nil {
		return store.TestResult{}, fmt.Errorf("parsing result file: %w", err)
	}
	return f.Test, nil
}
