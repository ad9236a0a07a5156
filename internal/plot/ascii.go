package plot

import (
	"github.com/guptarohit/asciigraph"

	"ergometry/internal/record"
)

// ASCII renders the smoothed heart rate as a terminal line chart. It returns
// an empty string when there are fewer than two points.
func ASCII(points []record.HRPoint, width, height int) string {
	if len(points) < 2 {
		return ""
	}

	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.BPM
	}

	return asciigraph.Plot(values,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.LowerBound(MinDisplayHR),
		asciigraph.UpperBound(MaxDisplayHR),
		asciigraph.Precision(0),
		asciigraph.Caption("Heart rate (bpm, 10 s average)"),
	)
}
