// Package record binds one subject's inputs and derived heart rate metrics
// into a test record that moves through a fixed sequence of states.
package record

import (
	"context"
	"fmt"
	"path/filepath"

	"ergometry/internal/analysis"
	"ergometry/internal/store"
)

// State is a stage of a test record's lifecycle
type State int

const (
	Loaded State = iota
	MetricsComputed
	SubjectAttached
	PowerAttached
	TerminationEvaluated
	ManuallyReviewed
	Persisted
)

var stateNames = [...]string{
	"Loaded",
	"MetricsComputed",
	"SubjectAttached",
	"PowerAttached",
	"TerminationEvaluated",
	"ManuallyReviewed",
	"Persisted",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// OperationOrderError is returned when an operation is called out of
// sequence. It indicates a programming error, not bad input data.
type OperationOrderError struct {
	Op    string
	State State // state the record was in
	Want  State // state the operation requires
}

func (e *OperationOrderError) Error() string {
	return fmt.Sprintf("%s called in state %s, requires %s", e.Op, e.State, e.Want)
}

// TestRecord is one subject's exercise test
type TestRecord struct {
	id    int
	state State
	trace store.ECGTrace

	metrics store.HeartRateMetrics
	subject store.Subject
	power   store.PowerTrace

	automaticTermination bool
	manualTermination    string
	resultPath           string
}

// New creates a record from a loaded ECG trace
func New(id int, trace store.ECGTrace) *TestRecord {
	return &TestRecord{id: id, trace: trace, state: Loaded}
}

// ID returns the subject identifier the record was loaded for
func (r *TestRecord) ID() int { return r.id }

// State returns the current lifecycle state
func (r *TestRecord) State() State { return r.state }

// advance moves from want to want+1, or reports an ordering error
func (r *TestRecord) advance(op string, want State) error {
	if r.state != want {
		return &OperationOrderError{Op: op, State: r.state, Want: want}
	}
	r.state = want + 1
	return nil
}

func (r *TestRecord) require(op string, atLeast State) error {
	if r.state < atLeast {
		return &OperationOrderError{Op: op, State: r.state, Want: atLeast}
	}
	return nil
}

// ComputeMetrics derives heart rate metrics from the ECG trace.
// On failure the record stays Loaded and cannot progress.
func (r *TestRecord) ComputeMetrics(b *analysis.Builder) error {
	if r.state != Loaded {
		return &OperationOrderError{Op: "ComputeMetrics", State: r.state, Want: Loaded}
	}

	m, err := b.Build(r.trace)
	if err != nil {
		return fmt.Errorf("subject %d: %w", r.id, err)
	}

	r.metrics = m
	// Markers are kept in the metrics; the raw samples are no longer needed
	r.trace.Samples = nil
	return r.advance("ComputeMetrics", Loaded)
}

// AttachSubject binds the subject metadata
func (r *TestRecord) AttachSubject(s store.Subject) error {
	if r.state == MetricsComputed && s.ID != r.id {
		return fmt.Errorf("attaching subject %d to record %d: identifiers differ", s.ID, r.id)
	}
	if err := r.advance("AttachSubject", MetricsComputed); err != nil {
		return err
	}
	r.subject = s
	return nil
}

// AttachPower binds the power trace
func (r *TestRecord) AttachPower(p store.PowerTrace) error {
	if r.state == SubjectAttached && p.SubjectID != r.id {
		return fmt.Errorf("attaching power trace %d to record %d: identifiers differ", p.SubjectID, r.id)
	}
	if err := r.advance("AttachPower", SubjectAttached); err != nil {
		return err
	}
	r.power = p
	return nil
}

// EvaluateTermination applies the automatic termination rule: the test is
// terminated when the peak smoothed heart rate exceeds the subject's
// age-predicted maximum
func (r *TestRecord) EvaluateTermination() (bool, error) {
	if err := r.advance("EvaluateTermination", PowerAttached); err != nil {
		return false, err
	}
	r.automaticTermination = analysis.ExceedsMaxHR(r.metrics.PeakHR, r.subject.MaxHR())
	return r.automaticTermination, nil
}

// Review asks the reviewer for a manual termination reason and records it
// verbatim. This blocks for as long as the reviewer does.
func (r *TestRecord) Review(ctx context.Context, reviewer TerminationReviewer) error {
	if r.state != TerminationEvaluated {
		return &OperationOrderError{Op: "Review", State: r.state, Want: TerminationEvaluated}
	}

	summary, err := r.Summary()
	if err != nil {
		return err
	}

	reason, err := reviewer.ReviewTermination(ctx, summary)
	if err != nil {
		return fmt.Errorf("reviewing subject %d: %w", r.id, err)
	}

	r.manualTermination = reason
	return r.advance("Review", TerminationEvaluated)
}

// AutomaticTermination reports the outcome of EvaluateTermination
func (r *TestRecord) AutomaticTermination() (bool, error) {
	if err := r.require("AutomaticTermination", TerminationEvaluated); err != nil {
		return false, err
	}
	return r.automaticTermination, nil
}

// ManuallyTerminated reports whether a non-empty termination reason was recorded
func (r *TestRecord) ManuallyTerminated() bool {
	return r.manualTermination != ""
}

// ManualTermination returns the recorded reason; empty until reviewed or if
// the test was accepted
func (r *TestRecord) ManualTermination() string {
	return r.manualTermination
}

// Metrics returns the derived heart rate metrics
func (r *TestRecord) Metrics() (store.HeartRateMetrics, error) {
	if err := r.require("Metrics", MetricsComputed); err != nil {
		return store.HeartRateMetrics{}, err
	}
	return r.metrics, nil
}

// Summary returns the figures shown to the operator and the reviewer
func (r *TestRecord) Summary() (Summary, error) {
	if err := r.require("Summary", TerminationEvaluated); err != nil {
		return Summary{}, err
	}
	return Summary{
		SubjectID:            r.subject.ID,
		BirthYear:            r.subject.BirthYear,
		MaxHR:                r.subject.MaxHR(),
		TestPowerW:           r.subject.TestPowerW,
		PeakHR:               r.metrics.PeakHR,
		MeanHR:               r.metrics.MeanHR,
		HRV:                  r.metrics.HRV,
		BeatCount:            r.metrics.BeatCount,
		DurationS:            r.power.DurationS(),
		AutomaticTermination: r.automaticTermination,
		ManualTermination:    r.manualTermination,
		HeartRate:            PerSecond(r.metrics.Smoothed, r.metrics.SamplingRate),
	}, nil
}

// PlotData returns the power trace and the smoothed heart rate sampled once
// per second
func (r *TestRecord) PlotData() (PlotData, error) {
	if err := r.require("PlotData", PowerAttached); err != nil {
		return PlotData{}, err
	}
	return PlotData{
		SubjectID: r.id,
		PowerW:    r.power.Watts,
		HeartRate: PerSecond(r.metrics.Smoothed, r.metrics.SamplingRate),
	}, nil
}

// Result builds the persisted summary
func (r *TestRecord) Result(plotPath string) (store.TestResult, error) {
	if err := r.require("Result", ManuallyReviewed); err != nil {
		return store.TestResult{}, err
	}
	return store.TestResult{
		SubjectID:            r.id,
		AutomaticTermination: r.automaticTermination,
		ManualTermination:    r.manualTermination,
		AverageHR:            r.metrics.MeanHR,
		HRV:                  r.metrics.HRV,
		MaximumHR:            r.metrics.PeakHR,
		TestLengthS:          r.power.DurationS(),
		TestPowerW:           r.subject.TestPowerW,
		PlotPath:             plotPath,
	}, nil
}

// Persist writes the result file into dir and returns the stored summary.
// The record accepts no further operations afterwards.
func (r *TestRecord) Persist(dir, plotPath string) (store.TestResult, error) {
	if r.state != ManuallyReviewed {
		return store.TestResult{}, &OperationOrderError{Op: "Persist", State: r.state, Want: ManuallyReviewed}
	}

	result, err := r.Result(plotPath)
	if err != nil {
		return store.TestResult{}, err
	}

	path := filepath.Join(dir, ResultFileName(r.id))
	if err := WriteResult(path, result); err != nil {
		return store.TestResult{}, err
	}

	r.resultPath = path
	return result, r.advance("Persist", ManuallyReviewed)
}

// ResultPath returns where the record was persisted, empty before Persist
func (r *TestRecord) ResultPath() string {
	return r.resultPath
}
