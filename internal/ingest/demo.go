package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"ergometry/internal/analysis"
	"ergometry/internal/store"
)

// DemoSubject describes one synthetic exercise test
type DemoSubject struct {
	ID         int
	BirthYear  int
	TestPowerW int
	Seconds    int
	RestHR     float64 // heart rate at the start of the test
	PeakHR     float64 // heart rate reached at the end of the ramp
}

// DefaultDemoSubjects returns a small cohort with one test that exceeds
// its age-predicted maximum
func DefaultDemoSubjects() []DemoSubject {
	return []DemoSubject{
		{ID: 1, BirthYear: 1990, TestPowerW: 150, Seconds: 120, RestHR: 95, PeakHR: 165},
		{ID: 2, BirthYear: 1965, TestPowerW: 120, Seconds: 120, RestHR: 90, PeakHR: 175},
		{ID: 3, BirthYear: 2001, TestPowerW: 200, Seconds: 120, RestHR: 100, PeakHR: 185},
	}
}

// WriteDemoInputs writes subject metadata, a ramped power trace and a
// synthetic ECG for each subject into dir, using the lab file layout
func WriteDemoInputs(dir string, subjects []DemoSubject, samplingRate int) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating demo directory: %w", err)
	}

	for _, s := range subjects {
		if err := writeDemoSubject(dir, s); err != nil {
			return err
		}
		if err := writeDemoPower(dir, s); err != nil {
			return err
		}
		if err := writeDemoECG(dir, s, samplingRate); err != nil {
			return err
		}
	}

	return nil
}

func writeDemoSubject(dir string, s DemoSubject) error {
	data, err := json.MarshalIndent(map[string]int{
		"subject_id":   s.ID,
		"birth_year":   s.BirthYear,
		"test_power_w": s.TestPowerW,
	}, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding subject %d: %w", s.ID, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("subject_%d.json", s.ID))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing subject %d: %w", s.ID, err)
	}
	return nil
}

func writeDemoPower(dir string, s DemoSubject) error {
	path := filepath.Join(dir, fmt.Sprintf("power_data_%d.txt", s.ID))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating power trace %d: %w", s.ID, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for sec := 0; sec < s.Seconds; sec++ {
		// Ramp to the prescribed power over the first minute
		watts := s.TestPowerW
		if sec < 60 {
			watts = s.TestPowerW * sec / 60
		}
		fmt.Fprintf(w, "%d\n", watts)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing power trace %d: %w", s.ID, err)
	}
	return nil
}

func writeDemoECG(dir string, s DemoSubject, samplingRate int) error {
	if samplingRate <= 0 {
		samplingRate = store.DefaultSamplingRate
	}

	path := filepath.Join(dir, fmt.Sprintf("ecg_data_%d.csv", s.ID))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating ECG %d: %w", s.ID, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "time_ms,ECG")

	gen := analysis.NewSyntheticECG(float64(samplingRate), s.RestHR, 0.01)
	total := s.Seconds * samplingRate
	for i := 0; i < total; i++ {
		frac := float64(i) / float64(total)
		gen.SetHeartRate(s.RestHR + (s.PeakHR-s.RestHR)*frac)
		w.WriteString(strconv.Itoa(i * 1000 / samplingRate))
		w.WriteByte(',')
		w.WriteString(strconv.FormatFloat(gen.Next(), 'f', 5, 64))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing ECG %d: %w", s.ID, err)
	}
	return nil
}
