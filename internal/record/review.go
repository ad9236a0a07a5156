package record

import (
	"context"

	"ergometry/internal/store"
)

// TerminationReviewer decides whether a test is invalid for reasons the
// automatic rule cannot see. An empty reason accepts the test; anything
// else terminates it manually. Implementations may block.
type TerminationReviewer interface {
	ReviewTermination(ctx context.Context, s Summary) (string, error)
}

// ReviewerFunc adapts a function to TerminationReviewer
type ReviewerFunc func(ctx context.Context, s Summary) (string, error)

// ReviewTermination calls f
func (f ReviewerFunc) ReviewTermination(ctx context.Context, s Summary) (string, error) {
	return f(ctx, s)
}

// Summary is the operator-facing view of an evaluated test
type Summary struct {
	SubjectID            int
	BirthYear            int
	MaxHR                int
	TestPowerW           int
	PeakHR               float64
	MeanHR               float64
	HRV                  float64
	BeatCount            int
	DurationS            int
	AutomaticTermination bool
	ManualTermination    string
	HeartRate            []HRPoint
}

// HRPoint is the smoothed heart rate at a whole second
type HRPoint struct {
	Second int
	BPM    float64
}

// PlotData is the input of the test visualization
type PlotData struct {
	SubjectID int
	PowerW    []float64 // one sample per second
	HeartRate []HRPoint
}

// PerSecond samples the smoothed series at every whole second, skipping
// seconds whose window is not yet full
func PerSecond(s store.SmoothedSeries, samplingRate int) []HRPoint {
	if samplingRate <= 0 {
		return nil
	}
	var points []HRPoint
	for i := 0; i < s.Len(); i += samplingRate {
		if v, ok := s.At(i); ok {
			points = append(points, HRPoint{Second: i / samplingRate, BPM: v})
		}
	}
	return points
}
