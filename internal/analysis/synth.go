package analysis

import (
	"math"
	"math/rand"
)

// SyntheticECG produces a non-clinical ECG-like waveform: a slow baseline
// plus Gaussian P, Q, R, S and T waves and white measurement noise.
// It is used to generate demo inputs and test fixtures; the noise is seeded,
// so a generator always yields the same trace.
type SyntheticECG struct {
	samplingRate float64
	phase        float64
	hrBPM        float64
	noise        float64 // standard deviation, in R wave amplitudes
	rng          *rand.Rand
}

// NewSyntheticECG creates a generator at samplingRate Hz beating at hrBPM
func NewSyntheticECG(samplingRate, hrBPM, noise float64) *SyntheticECG {
	return &SyntheticECG{
		samplingRate: samplingRate,
		hrBPM:        hrBPM,
		noise:        noise,
		rng:          rand.New(rand.NewSource(1)),
	}
}

// Seed restarts the noise sequence from seed
func (s *SyntheticECG) Seed(seed int64) {
	s.rng = rand.New(rand.NewSource(seed))
}

// SetHeartRate changes the beat rate from the next sample on
func (s *SyntheticECG) SetHeartRate(hrBPM float64) {
	s.hrBPM = hrBPM
}

// Next returns the next sample and advances time
func (s *SyntheticECG) Next() float64 {
	cycleHz := s.hrBPM / 60.0
	s.phase += cycleHz / s.samplingRate
	if s.phase >= 1.0 {
		s.phase -= 1.0
	}

	t := s.phase // position within the beat cycle, 0..1

	baseline := 0.05 * math.Sin(2*math.Pi*0.33*t)

	p := 0.08 * gauss(t, 0.18, 0.03)
	q := -0.12 * gauss(t, 0.30, 0.01)
	r := 1.00 * gauss(t, 0.32, 0.008)
	sw := -0.25 * gauss(t, 0.35, 0.012)
	tw := 0.25 * gauss(t, 0.60, 0.06)

	n := s.noise * s.rng.NormFloat64()

	return baseline + p + q + r + sw + tw + n
}

// Samples returns the next count samples
func (s *SyntheticECG) Samples(count int) []float64 {
	out := make([]float64, count)
	for i := range out {
		out[i] = s.Next()
	}
	return out
}

func gauss(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return math.Exp(-0.5 * z * z)
}
