package service

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"ergometry/internal/analysis"
	"ergometry/internal/audit"
	"ergometry/internal/ingest"
	"ergometry/internal/plot"
	"ergometry/internal/record"
	"ergometry/internal/store"
	"ergometry/internal/tui"
)

// Plotter renders the visualization of one test
type Plotter interface {
	Render(path string, data record.PlotData) error
}

// Pipeline processes every test found in an input directory, one subject
// at a time in ascending ID order
type Pipeline struct {
	InputDir  string
	OutputDir string

	Loader   *ingest.Loader
	Builder  *analysis.Builder
	Reviewer record.TerminationReviewer
	Plotter  Plotter
	Audit    *audit.Log
	History  *store.DB // nil disables the run history

	// Console summaries
	Out         io.Writer
	ShowChart   bool
	ChartWidth  int
	ChartHeight int

	Log logrus.FieldLogger
}

// Outcome is the result of processing one subject
type Outcome struct {
	SubjectID int
	Result    *store.TestResult // nil on failure
	Err       error
}

// BatchResult contains the results of a pipeline run
type BatchResult struct {
	RunID    string // empty when the run history is disabled
	Outcomes []Outcome
	Errors   []error // load and correspondence failures found before processing
}

// Failed returns the number of inputs that did not produce a result
func (b *BatchResult) Failed() int {
	n := len(b.Errors)
	for _, o := range b.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Rows converts the outcomes into summary table rows
func (b *BatchResult) Rows() []tui.BatchRow {
	rows := make([]tui.BatchRow, 0, len(b.Outcomes))
	for _, o := range b.Outcomes {
		rows = append(rows, tui.BatchRow{SubjectID: o.SubjectID, Result: o.Result, Err: o.Err})
	}
	return rows
}

// RenderBatch writes the end-of-run summary table
func RenderBatch(w io.Writer, b *BatchResult) {
	tui.RenderBatchTable(w, b.Rows())
}

func (p *Pipeline) logger() logrus.FieldLogger {
	if p.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return p.Log
}

// Run discovers the inputs and processes each matched subject. A failed
// subject is recorded in the result and the batch continues; only
// discovery failures and cancellation stop the run.
func (p *Pipeline) Run(ctx context.Context) (*BatchResult, error) {
	log := p.logger()
	result := &BatchResult{}

	loader := ingest.Loader{}
	if p.Loader != nil {
		loader = *p.Loader
	}
	if p.Audit != nil {
		next := loader.OnSubjectLoaded
		loader.OnSubjectLoaded = func(s store.Subject) {
			p.Audit.SubjectLoaded(s.ID)
			if next != nil {
				next(s)
			}
		}
	}

	catalog, err := loader.Discover(p.InputDir)
	if err != nil {
		return result, fmt.Errorf("discovering inputs: %w", err)
	}
	for _, err := range catalog.Errors {
		log.WithError(err).Warn("skipping input")
		result.Errors = append(result.Errors, err)
	}
	log.WithField("subjects", len(catalog.Entries)).Info("inputs discovered")

	if err := os.MkdirAll(p.OutputDir, 0755); err != nil {
		return result, fmt.Errorf("creating output directory: %w", err)
	}

	if p.History != nil {
		run, err := p.History.BeginRun(p.InputDir, p.OutputDir)
		if err != nil {
			return result, fmt.Errorf("recording run: %w", err)
		}
		result.RunID = run.ID
		log = log.WithField("run_id", run.ID)
	}

	for _, entry := range catalog.Entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		entryLog := log.WithField("subject_id", entry.ID)
		res, err := p.ProcessEntry(ctx, entry)
		result.Outcomes = append(result.Outcomes, Outcome{SubjectID: entry.ID, Result: res, Err: err})
		if err != nil {
			entryLog.WithError(err).Error("test failed")
			continue
		}

		entryLog.WithFields(logrus.Fields{
			"automatic_termination": res.AutomaticTermination,
			"manual_termination":    res.ManualTermination != "",
		}).Info("test persisted")

		if p.History != nil {
			if err := p.History.SaveTestResult(result.RunID, *res); err != nil {
				entryLog.WithError(err).Warn("saving run history")
			}
		}
	}

	return result, ctx.Err()
}

// ProcessEntry runs one subject through the record lifecycle: load the ECG,
// compute metrics, attach subject and power, evaluate termination, plot,
// summarize, review and persist
func (p *Pipeline) ProcessEntry(ctx context.Context, e ingest.Entry) (*store.TestResult, error) {
	builder := p.Builder
	if builder == nil {
		builder = analysis.NewBuilder()
	}

	trace, err := ingest.LoadECG(e.ECGPath, builder.SamplingRate)
	if err != nil {
		return nil, err
	}

	rec := record.New(e.ID, trace)
	if err := rec.ComputeMetrics(builder); err != nil {
		return nil, err
	}
	if err := rec.AttachSubject(e.Subject); err != nil {
		return nil, err
	}
	if err := rec.AttachPower(e.Power); err != nil {
		return nil, err
	}
	if _, err := rec.EvaluateTermination(); err != nil {
		return nil, err
	}

	var plotPath string
	if p.Plotter != nil {
		plotPath = record.PlotPath(p.OutputDir, e.ID)
		data, err := rec.PlotData()
		if err != nil {
			return nil, err
		}
		if err := p.Plotter.Render(plotPath, data); err != nil {
			return nil, fmt.Errorf("plotting subject %d: %w", e.ID, err)
		}
	}

	if p.Out != nil {
		summary, err := rec.Summary()
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(p.Out, tui.RenderSummary(summary, p.chart(summary)))
	}

	reviewer := p.Reviewer
	if reviewer == nil {
		reviewer = acceptAll
	}
	if err := rec.Review(ctx, reviewer); err != nil {
		return nil, err
	}
	if rec.ManuallyTerminated() && p.Audit != nil {
		p.Audit.ManualTermination(e.ID, rec.ManualTermination())
	}

	res, err := rec.Persist(p.OutputDir, plotPath)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (p *Pipeline) chart(s record.Summary) string {
	if !p.ShowChart {
		return ""
	}
	width, height := p.ChartWidth, p.ChartHeight
	if width <= 0 {
		width = DefaultChartWidth
	}
	if height <= 0 {
		height = DefaultChartHeight
	}
	return plot.ASCII(s.HeartRate, width, height)
}

var acceptAll = record.ReviewerFunc(func(ctx context.Context, s record.Summary) (string, error) {
	return "", nil
})
