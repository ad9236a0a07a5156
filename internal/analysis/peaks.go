package analysis

import "math"

// PeakDetector finds heartbeats (R-peaks) in a raw ECG trace.
// The returned marker slice always has the same length as samples.
type PeakDetector interface {
	DetectPeaks(samples []float64, samplingRate int) []bool
}

// GradientDetector detects QRS complexes where the smoothed signal gradient
// rises well above its running average, then places the R-peak at the
// signal maximum inside each complex.
type GradientDetector struct {
	HighPassHz     float64 // baseline wander cutoff
	PowerlineHz    float64 // mains frequency removed by a one-period moving average
	SmoothWindow   float64 // seconds
	AverageWindow  float64 // seconds
	GradThreshold  float64 // smooth gradient must exceed this multiple of the average
	MinWidthWeight float64 // fraction of the mean QRS width a complex must reach
	MinDelay       float64 // seconds between accepted peaks
}

// NewGradientDetector returns a detector tuned for resting and exercise ECG
func NewGradientDetector() GradientDetector {
	return GradientDetector{
		HighPassHz:     0.5,
		PowerlineHz:    50,
		SmoothWindow:   0.1,
		AverageWindow:  0.75,
		GradThreshold:  1.5,
		MinWidthWeight: 0.4,
		MinDelay:       0.3,
	}
}

// DetectPeaks marks each detected R-peak. Degenerate input (empty, flat,
// or too short to hold a complex) yields no markers.
func (d GradientDetector) DetectPeaks(samples []float64, samplingRate int) []bool {
	markers := make([]bool, len(samples))
	if len(samples) < 3 || samplingRate <= 0 {
		return markers
	}

	cleaned := highPass(samples, samplingRate, d.HighPassHz)
	if d.PowerlineHz > 0 {
		cleaned = boxcar(cleaned, int(math.Round(float64(samplingRate)/d.PowerlineHz)))
	}
	grad := absGradient(cleaned)

	smooth := boxcar(grad, secondsToSamples(d.SmoothWindow, samplingRate))
	average := boxcar(grad, secondsToSamples(d.AverageWindow, samplingRate))

	// Candidate complexes: rising and falling edges of the threshold mask
	var begins, ends []int
	inside := false
	for i := range smooth {
		above := smooth[i] > d.GradThreshold*average[i]
		if above && !inside {
			begins = append(begins, i)
		}
		if !above && inside {
			ends = append(ends, i)
		}
		inside = above
	}

	n := min(len(begins), len(ends))
	if n == 0 {
		return markers
	}

	totalWidth := 0
	for i := 0; i < n; i++ {
		totalWidth += ends[i] - begins[i]
	}
	minWidth := d.MinWidthWeight * float64(totalWidth) / float64(n)
	minDelay := secondsToSamples(d.MinDelay, samplingRate)

	last := -minDelay - 1
	for i := 0; i < n; i++ {
		if float64(ends[i]-begins[i]) < minWidth {
			continue
		}
		peak := begins[i] + argmax(cleaned[begins[i]:ends[i]])
		if peak-last > minDelay {
			markers[peak] = true
			last = peak
		}
	}

	return markers
}

// highPass applies a first-order high-pass filter; a constant input maps to zero
func highPass(x []float64, samplingRate int, cutoffHz float64) []float64 {
	y := make([]float64, len(x))
	if cutoffHz <= 0 {
		copy(y, x)
		return y
	}
	rc := 1 / (2 * math.Pi * cutoffHz)
	dt := 1 / float64(samplingRate)
	alpha := rc / (rc + dt)
	for i := 1; i < len(x); i++ {
		y[i] = alpha * (y[i-1] + x[i] - x[i-1])
	}
	return y
}

// absGradient returns |dx| using central differences, one-sided at the edges
func absGradient(x []float64) []float64 {
	n := len(x)
	g := make([]float64, n)
	for i := range x {
		switch i {
		case 0:
			g[i] = x[1] - x[0]
		case n - 1:
			g[i] = x[n-1] - x[n-2]
		default:
			g[i] = (x[i+1] - x[i-1]) / 2
		}
		g[i] = math.Abs(g[i])
	}
	return g
}

// boxcar returns a centered moving average; windows are clipped at the edges
func boxcar(x []float64, width int) []float64 {
	out := make([]float64, len(x))
	if width < 1 {
		width = 1
	}
	prefix := make([]float64, len(x)+1)
	for i, v := range x {
		prefix[i+1] = prefix[i] + v
	}
	half := width / 2
	for i := range x {
		lo := max(0, i-half)
		hi := min(len(x), i-half+width)
		out[i] = (prefix[hi] - prefix[lo]) / float64(hi-lo)
	}
	return out
}

func argmax(x []float64) int {
	best := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[best] {
			best = i
		}
	}
	return best
}

func secondsToSamples(seconds float64, samplingRate int) int {
	return int(math.Round(seconds * float64(samplingRate)))
}
