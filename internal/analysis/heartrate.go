package analysis

import (
	"fmt"

	"ergometry/internal/store"
)

// DefaultSmoothingWindow is the moving average length in samples (10 s at 1000 Hz)
const DefaultSmoothingWindow = 10000

// InsufficientDataError is returned when a trace cannot support a heart rate figure
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return "insufficient data: " + e.Reason
}

// Builder derives heart rate metrics from ECG traces
type Builder struct {
	Detector     PeakDetector
	SamplingRate int // Hz
	Window       int // smoothing window, samples
}

// NewBuilder returns a Builder with the default detector, rate and window
func NewBuilder() *Builder {
	return &Builder{
		Detector:     NewGradientDetector(),
		SamplingRate: store.DefaultSamplingRate,
		Window:       DefaultSmoothingWindow,
	}
}

// Build detects beats in the trace and computes the metrics.
// A trace carrying its own sampling rate overrides the builder's.
func (b *Builder) Build(trace store.ECGTrace) (store.HeartRateMetrics, error) {
	rate := b.SamplingRate
	if trace.SamplingRate > 0 {
		rate = trace.SamplingRate
	}
	if rate <= 0 {
		return store.HeartRateMetrics{}, fmt.Errorf("invalid sampling rate %d", rate)
	}
	if len(trace.Samples) == 0 {
		return store.HeartRateMetrics{}, &InsufficientDataError{Reason: "empty ECG trace"}
	}

	detector := b.Detector
	if detector == nil {
		detector = NewGradientDetector()
	}
	markers := detector.DetectPeaks(trace.Samples, rate)
	if len(markers) != len(trace.Samples) {
		return store.HeartRateMetrics{}, fmt.Errorf("detector returned %d markers for %d samples", len(markers), len(trace.Samples))
	}

	return MetricsFromMarkers(markers, rate, b.Window)
}

// MetricsFromMarkers computes beat count, duration, mean heart rate,
// smoothed heart rate, its peak, and the mean beat-to-beat interval
func MetricsFromMarkers(markers []bool, samplingRate, window int) (store.HeartRateMetrics, error) {
	if samplingRate <= 0 {
		return store.HeartRateMetrics{}, fmt.Errorf("invalid sampling rate %d", samplingRate)
	}
	if window <= 0 {
		return store.HeartRateMetrics{}, fmt.Errorf("invalid smoothing window %d", window)
	}

	beats := 0
	for _, m := range markers {
		if m {
			beats++
		}
	}

	durationMin := float64(len(markers)) / float64(samplingRate) / 60
	if durationMin == 0 {
		return store.HeartRateMetrics{}, &InsufficientDataError{Reason: "zero-length trace"}
	}
	if beats == 0 {
		return store.HeartRateMetrics{}, &InsufficientDataError{Reason: "no heartbeats detected"}
	}

	smoothed := MovingAverageBPM(markers, samplingRate, window)
	if len(smoothed.BPM) == 0 {
		return store.HeartRateMetrics{}, &InsufficientDataError{
			Reason: fmt.Sprintf("trace of %d samples is shorter than the %d-sample smoothing window", len(markers), window),
		}
	}

	peak := smoothed.BPM[0]
	for _, v := range smoothed.BPM[1:] {
		if v > peak {
			peak = v
		}
	}

	return store.HeartRateMetrics{
		Markers:      markers,
		Smoothed:     smoothed,
		BeatCount:    beats,
		DurationMin:  durationMin,
		MeanHR:       float64(beats) / durationMin,
		PeakHR:       peak,
		HRV:          durationMin * 60 / float64(beats),
		SamplingRate: samplingRate,
	}, nil
}

// MovingAverageBPM returns the trailing mean of the markers over window
// samples, scaled to beats per minute. Only samples with a full window of
// history are defined.
func MovingAverageBPM(markers []bool, samplingRate, window int) store.SmoothedSeries {
	series := store.SmoothedSeries{Offset: window - 1}
	if window <= 0 || len(markers) < window {
		return series
	}

	scale := 60 * float64(samplingRate) / float64(window)
	series.BPM = make([]float64, 0, len(markers)-window+1)

	count := 0
	for i, m := range markers {
		if m {
			count++
		}
		if i >= window && markers[i-window] {
			count--
		}
		if i >= window-1 {
			series.BPM = append(series.BPM, float64(count)*scale)
		}
	}

	return series
}
