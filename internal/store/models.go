package store

import "time"

// DefaultSamplingRate is the ECG sampling rate of the lab recorders (Hz)
const DefaultSamplingRate = 1000

// Subject represents the test subject described by a metadata file
type Subject struct {
	ID            int `json:"subject_id"`
	BirthYear     int `json:"birth_year"`
	TestPowerW    int `json:"test_power_w"`
	ReferenceYear int `json:"-"` // year the age is computed against
}

// Age returns the subject's age in the reference year
func (s Subject) Age() int {
	return s.ReferenceYear - s.BirthYear
}

// MaxHR returns the age-predicted maximum heart rate (220 - age).
// It is always derived from the birth year and never stored.
func (s Subject) MaxHR() int {
	return 220 - s.Age()
}

// PowerTrace represents the ergometer power output, one sample per second
type PowerTrace struct {
	SubjectID int
	Watts     []float64
}

// DurationS returns the trace length in seconds
func (p PowerTrace) DurationS() int {
	return len(p.Watts)
}

// ECGTrace represents a raw electrocardiogram recording
type ECGTrace struct {
	SubjectID    int
	Samples      []float64
	SamplingRate int // Hz
}

// SmoothedSeries holds a trailing moving average heart rate.
// BPM[k] describes sample Offset+k; samples before Offset are undefined.
type SmoothedSeries struct {
	Offset int
	BPM    []float64
}

// At returns the smoothed heart rate at sample i
func (s SmoothedSeries) At(i int) (float64, bool) {
	k := i - s.Offset
	if k < 0 || k >= len(s.BPM) {
		return 0, false
	}
	return s.BPM[k], true
}

// Len returns the number of samples the series spans, including undefined ones
func (s SmoothedSeries) Len() int {
	if len(s.BPM) == 0 {
		return 0
	}
	return s.Offset + len(s.BPM)
}

// HeartRateMetrics represents the heart rate figures derived from an ECG trace
type HeartRateMetrics struct {
	Markers      []bool
	Smoothed     SmoothedSeries
	BeatCount    int
	DurationMin  float64
	MeanHR       float64 // beats/min
	PeakHR       float64 // max of the smoothed series, beats/min
	HRV          float64 // mean beat-to-beat interval, seconds
	SamplingRate int
}

// TestResult represents the persisted summary of one exercise test
type TestResult struct {
	SubjectID            int     `json:"User ID"`
	AutomaticTermination bool    `json:"Automatic termination"`
	ManualTermination    string  `json:"Manual termination"`
	AverageHR            float64 `json:"Average Heart Rate"`
	HRV                  float64 `json:"Heart rate variability"`
	MaximumHR            float64 `json:"Maximum Heart Rate"`
	TestLengthS          int     `json:"Test Length (s)"`
	TestPowerW           int     `json:"Test Power (W)"`
	PlotPath             string  `json:"path of plot"`
}

// Run represents one batch invocation recorded in the history ledger
type Run struct {
	ID        string    `db:"id"`
	StartedAt time.Time `db:"started_at"`
	InputDir  string    `db:"input_dir"`
	OutputDir string    `db:"output_dir"`
}
