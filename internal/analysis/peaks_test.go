package analysis

import (
	"math"
	"testing"
)

func countMarkers(markers []bool) int {
	n := 0
	for _, m := range markers {
		if m {
			n++
		}
	}
	return n
}

func markerPositions(markers []bool) []int {
	var pos []int
	for i, m := range markers {
		if m {
			pos = append(pos, i)
		}
	}
	return pos
}

func TestGradientDetectorSyntheticECG(t *testing.T) {
	tests := []struct {
		name      string
		hr        float64
		seconds   int
		noise     float64 // white noise sigma, R wave amplitudes
		mains     float64 // 50 Hz interference amplitude
		wantBeats int
	}{
		// First R wave sits at 32% of the first cycle
		{"resting 60 bpm", 60, 20, 0, 0, 20},
		{"72 bpm with noise", 72, 20, 0.005, 0, 24},
		{"exercise 150 bpm", 150, 20, 0.005, 0, 50},
		{"60 bpm white noise", 60, 20, 0.05, 0, 20},
		{"60 bpm white noise and mains", 60, 20, 0.05, 0.05, 20},
		{"90 bpm white noise and mains", 90, 20, 0.05, 0.05, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewSyntheticECG(1000, tt.hr, tt.noise)
			gen.Seed(42)
			samples := gen.Samples(tt.seconds * 1000)
			for i := range samples {
				samples[i] += tt.mains * math.Sin(2*math.Pi*50*float64(i)/1000)
			}
			markers := NewGradientDetector().DetectPeaks(samples, 1000)

			if len(markers) != len(samples) {
				t.Fatalf("len(markers) = %d, want %d", len(markers), len(samples))
			}

			got := countMarkers(markers)
			if abs := math.Abs(float64(got - tt.wantBeats)); abs > 1 {
				t.Errorf("beats = %d, want %d (±1)", got, tt.wantBeats)
			}

			// Beats should be evenly spaced at the cycle length
			cycle := 60000 / tt.hr
			pos := markerPositions(markers)
			for i := 1; i < len(pos); i++ {
				gap := float64(pos[i] - pos[i-1])
				if math.Abs(gap-cycle) > 0.05*cycle {
					t.Errorf("gap between beats %d and %d = %v samples, want ~%v", i-1, i, gap, cycle)
				}
			}
		})
	}
}

func TestSyntheticECGSeeded(t *testing.T) {
	a := NewSyntheticECG(1000, 60, 0.05)
	b := NewSyntheticECG(1000, 60, 0.05)
	b.Seed(7)

	first, second := a.Samples(500), b.Samples(500)
	same := true
	for i := range first {
		if first[i] != second[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds should give different noise")
	}

	// Noise does not repeat from one beat to the next
	c := NewSyntheticECG(1000, 60, 0.05).Samples(2000)
	if c[100] == c[1100] {
		t.Error("noise repeats with the beat cycle")
	}
}

func TestGradientDetectorDegenerate(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		rate    int
	}{
		{"empty", []float64{}, 1000},
		{"nil", nil, 1000},
		{"all zero", make([]float64, 5000), 1000},
		{"constant", constant(5000, 0.7), 1000},
		{"two samples", []float64{0, 1}, 1000},
		{"zero sampling rate", NewSyntheticECG(1000, 60, 0).Samples(3000), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			markers := NewGradientDetector().DetectPeaks(tt.samples, tt.rate)
			if len(markers) != len(tt.samples) {
				t.Errorf("len(markers) = %d, want %d", len(markers), len(tt.samples))
			}
			if n := countMarkers(markers); n != 0 {
				t.Errorf("detected %d beats in degenerate trace, want 0", n)
			}
		})
	}
}

func TestGradientDetectorDeterministic(t *testing.T) {
	samples := NewSyntheticECG(1000, 90, 0.005).Samples(12000)
	d := NewGradientDetector()

	first := d.DetectPeaks(samples, 1000)
	second := d.DetectPeaks(samples, 1000)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("marker %d differs between runs", i)
		}
	}
}

func TestGradientDetectorBaselineWander(t *testing.T) {
	samples := NewSyntheticECG(1000, 60, 0).Samples(20000)
	for i := range samples {
		// 0.2 Hz breathing drift, larger than the P and T waves
		samples[i] += 0.4 * math.Sin(2*math.Pi*0.2*float64(i)/1000)
	}

	got := countMarkers(NewGradientDetector().DetectPeaks(samples, 1000))
	if got < 19 || got > 20 {
		t.Errorf("beats with baseline wander = %d, want 19-20", got)
	}
}

func TestBoxcar(t *testing.T) {
	got := boxcar([]float64{0, 0, 3, 0, 0}, 3)
	want := []float64{0, 1, 1, 1, 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("boxcar[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestGradientDetectorPowerlineWindow(t *testing.T) {
	// A 50 Hz sine averages out over one period at 1000 Hz
	mains := make([]float64, 200)
	for i := range mains {
		mains[i] = math.Sin(2 * math.Pi * 50 * float64(i) / 1000)
	}
	out := boxcar(mains, 1000/50)
	for i := 20; i < 180; i++ {
		if math.Abs(out[i]) > 1e-9 {
			t.Fatalf("boxcar(mains)[%d] = %v, want 0", i, out[i])
		}
	}
}

func TestHighPassRemovesOffset(t *testing.T) {
	y := highPass(constant(100, 5), 1000, 0.5)
	for i, v := range y {
		if v != 0 {
			t.Fatalf("highPass(constant)[%d] = %v, want 0", i, v)
		}
	}
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
