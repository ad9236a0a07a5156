package ingest

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"ergometry/internal/store"
)

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// ErrNoIdentifier is returned when a file name carries no trailing digits
var ErrNoIdentifier = errors.New("file name has no trailing subject identifier")

// TrailingID extracts the subject identifier from the digits that end the
// file name stem, e.g. "ecg_data_12.csv" -> 12
func TrailingID(path string) (int, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	m := trailingDigits.FindString(stem)
	if m == "" {
		return 0, ErrNoIdentifier
	}
	return strconv.Atoi(m)
}

// subjectFile is the on-disk subject metadata layout
type subjectFile struct {
	SubjectID  *int `json:"subject_id"`
	BirthYear  *int `json:"birth_year"`
	TestPowerW *int `json:"test_power_w"`
}

// LoadSubject reads subject metadata; age is computed against referenceYear
func LoadSubject(path string, referenceYear int) (store.Subject, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return store.Subject{}, &LoadError{Path: path, Err: err}
	}

	var f subjectFile
	if err := json.Unmarshal(data, &f); err != nil {
		return store.Subject{}, &LoadError{Path: path, Err: fmt.Errorf("parsing subject metadata: %w", err)}
	}

	switch {
	case f.SubjectID == nil:
		return store.Subject{}, &LoadError{Path: path, Err: errors.New("missing subject_id")}
	case f.BirthYear == nil:
		return store.Subject{}, &LoadError{Path: path, Err: errors.New("missing birth_year")}
	case f.TestPowerW == nil:
		return store.Subject{}, &LoadError{Path: path, Err: errors.New("missing test_power_w")}
	}

	if *f.BirthYear > referenceYear {
		return store.Subject{}, &LoadError{Path: path, Err: fmt.Errorf("birth_year %d is after %d", *f.BirthYear, referenceYear)}
	}

	return store.Subject{
		ID:            *f.SubjectID,
		BirthYear:     *f.BirthYear,
		TestPowerW:    *f.TestPowerW,
		ReferenceYear: referenceYear,
	}, nil
}

// LoadPower reads a power trace with one sample per line. The trailing
// blank line written by the ergometer is discarded.
func LoadPower(path string) (store.PowerTrace, error) {
	id, err := TrailingID(path)
	if err != nil {
		return store.PowerTrace{}, &LoadError{Path: path, Err: err}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return store.PowerTrace{}, &LoadError{Path: path, Err: err}
	}

	lines := strings.Split(string(data), "\n")
	if last := len(lines) - 1; strings.TrimSpace(lines[last]) == "" {
		lines = lines[:last]
	}

	watts := make([]float64, 0, len(lines))
	for i, line := range lines {
		v, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
		if err != nil {
			return store.PowerTrace{}, &LoadError{Path: path, Err: fmt.Errorf("line %d: %w", i+1, err)}
		}
		watts = append(watts, v)
	}

	return store.PowerTrace{SubjectID: id, Watts: watts}, nil
}

// LoadECG reads an ECG recording: a CSV with a header row whose second
// column holds the raw signal
func LoadECG(path string, samplingRate int) (store.ECGTrace, error) {
	id, err := TrailingID(path)
	if err != nil {
		return store.ECGTrace{}, &LoadError{Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return store.ECGTrace{}, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	samples, err := readECG(f)
	if err != nil {
		return store.ECGTrace{}, &LoadError{Path: path, Err: err}
	}

	return store.ECGTrace{SubjectID: id, Samples: samples, SamplingRate: samplingRate}, nil
}

func readECG(r io.Reader) ([]float64, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	var samples []float64
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		if len(rec) < 2 {
			return nil, fmt.Errorf("row %d: expected at least 2 columns, got %d", row, len(rec))
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		samples = append(samples, v)
	}

	return samples, nil
}
