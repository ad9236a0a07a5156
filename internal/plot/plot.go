// Package plot renders exercise test charts: a dual-axis JPEG for the
// report and a compact terminal chart for the console summary.
package plot

import (
	"errors"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ergometry/internal/record"
)

// Heart rate axis display range (bpm)
const (
	MinDisplayHR = 60
	MaxDisplayHR = 200
)

var (
	heartRateColor = drawing.ColorFromHex("420420")
	powerColor     = drawing.ColorFromHex("ffd966")
)

// ErrNotEnoughData is returned when a series has fewer than two points
var ErrNotEnoughData = errors.New("not enough data to plot")

// Renderer writes test charts as JPEG images
type Renderer struct {
	Width   int
	Height  int
	Quality int
}

// NewRenderer returns a renderer with the default image size
func NewRenderer() *Renderer {
	return &Renderer{Width: 1024, Height: 576, Quality: 90}
}

// Render draws power on the left axis and the smoothed heart rate on the
// right axis, fixed to 60-200 bpm, and writes the image to path
func (r *Renderer) Render(path string, data record.PlotData) error {
	graph, err := r.chart(data)
	if err != nil {
		return err
	}

	collector := &chart.ImageWriter{}
	if err := graph.Render(chart.PNG, collector); err != nil {
		return fmt.Errorf("rendering plot for subject %d: %w", data.SubjectID, err)
	}
	img, err := collector.Image()
	if err != nil {
		return fmt.Errorf("rendering plot for subject %d: %w", data.SubjectID, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating plot directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating plot file: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: r.Quality}); err != nil {
		return fmt.Errorf("encoding plot: %w", err)
	}
	return f.Close()
}

func (r *Renderer) chart(data record.PlotData) (*chart.Chart, error) {
	if len(data.PowerW) < 2 || len(data.HeartRate) < 2 {
		return nil, fmt.Errorf("subject %d: %w", data.SubjectID, ErrNotEnoughData)
	}

	powerX := make([]float64, len(data.PowerW))
	for i := range powerX {
		powerX[i] = float64(i)
	}

	hrX := make([]float64, len(data.HeartRate))
	hrY := make([]float64, len(data.HeartRate))
	for i, p := range data.HeartRate {
		hrX[i] = float64(p.Second)
		// Keep the line inside the fixed axis
		hrY[i] = min(max(p.BPM, MinDisplayHR), MaxDisplayHR)
	}

	graph := &chart.Chart{
		Title:  fmt.Sprintf("Subject %d", data.SubjectID),
		Width:  r.Width,
		Height: r.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name: "Time / s",
		},
		YAxis: chart.YAxis{
			Name: "Power / W",
		},
		YAxisSecondary: chart.YAxis{
			Name:  "Heart rate / bpm",
			Range: &chart.ContinuousRange{Min: MinDisplayHR, Max: MaxDisplayHR},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Power Watt",
				XValues: powerX,
				YValues: data.PowerW,
				Style:   chart.Style{StrokeColor: powerColor, StrokeWidth: 2},
			},
			chart.ContinuousSeries{
				Name:    "Heart Rate",
				YAxis:   chart.YAxisSecondary,
				XValues: hrX,
				YValues: hrY,
				Style:   chart.Style{StrokeColor: heartRateColor, StrokeWidth: 2},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(graph)}

	return graph, nil
}
