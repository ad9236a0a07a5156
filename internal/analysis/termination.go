package analysis

// ExceedsMaxHR reports whether the peak smoothed heart rate is strictly
// above the subject's age-predicted maximum. Reaching the maximum exactly
// does not terminate the test.
func ExceedsMaxHR(peakHR float64, maxHR int) bool {
	return peakHR > float64(maxHR)
}

// TerminationAssessment returns a human-readable description of the margin
// between the peak heart rate and the subject's maximum
func TerminationAssessment(peakHR float64, maxHR int) string {
	margin := float64(maxHR) - peakHR
	switch {
	case margin < 0:
		return "Maximum heart rate exceeded"
	case margin < 5:
		return "At the limit"
	case margin < 15:
		return "High effort"
	case margin < 30:
		return "Moderate effort"
	default:
		return "Well below maximum"
	}
}
