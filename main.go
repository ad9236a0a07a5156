package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"ergometry/internal/analysis"
	"ergometry/internal/audit"
	"ergometry/internal/config"
	"ergometry/internal/ingest"
	"ergometry/internal/plot"
	"ergometry/internal/record"
	"ergometry/internal/review"
	"ergometry/internal/service"
	"ergometry/internal/store"
	"ergometry/internal/tui"
)

var (
	app        = kingpin.New("ergometry", "Heart rate analysis of ergometer exercise tests.")
	configPath = app.Flag("config", "Path to the config file (default ~/.ergometry/config.json).").String()
	verbose    = app.Flag("verbose", "Enable debug logging.").Short('v').Bool()

	runCmd     = app.Command("run", "Process every test in the input directory.").Default()
	inputDir   = runCmd.Flag("input", "Input directory with ECG, power and subject files.").Short('i').String()
	outputDir  = runCmd.Flag("output", "Output directory for plots and results.").Short('o').String()
	reviewMode = runCmd.Flag("review", "Review mode.").Short('r').Enum(config.ReviewConsole, config.ReviewPrompt, config.ReviewAccept, config.ReviewAnswers)
	answers    = runCmd.Flag("answers", "JSON file of manual termination answers keyed by subject id.").String()
	refYear    = runCmd.Flag("reference-year", "Year ages are computed against; 220 minus age is the maximum heart rate. Defaults to analysis.reference_year, or the current year when that is 0.").Int()
	initConfig = runCmd.Flag("init-config", "Write an example config file and exit.").Bool()

	demoCmd      = app.Command("demo", "Write synthetic input data.")
	demoDir      = demoCmd.Flag("dir", "Directory to write the inputs to.").Default("input_data").String()
	demoSubjects = demoCmd.Flag("subjects", "Number of subjects.").Default("3").Int()

	historyCmd   = app.Command("history", "Show recent runs from the history database.")
	historyLimit   = historyCmd.Flag("limit", "Number of runs to show.").Default(fmt.Sprint(service.RecentRunsLimit)).Int()
	historySubject = historyCmd.Flag("subject", "Show every stored result of one subject.").Int()
	historyRun     = historyCmd.Flag("run", "Show the results of one run.").String()
)

func main() {
	if err := run(); err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	switch cmd {
	case demoCmd.FullCommand():
		return runDemo(cfg, log)
	case historyCmd.FullCommand():
		return runHistory(cfg)
	}

	if *initConfig {
		if err := config.CreateExample(*configPath); err != nil {
			return fmt.Errorf("creating example config: %w", err)
		}
		fmt.Println("Example config written.")
		return nil
	}

	runFlags{
		InputDir:      *inputDir,
		OutputDir:     *outputDir,
		ReviewMode:    *reviewMode,
		AnswersFile:   *answers,
		ReferenceYear: *refYear,
	}.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return runBatch(cfg, log)
}

// runFlags are the run command flags that override the config file
type runFlags struct {
	InputDir      string
	OutputDir     string
	ReviewMode    string
	AnswersFile   string
	ReferenceYear int
}

func (f runFlags) apply(cfg *config.Config) {
	if f.InputDir != "" {
		cfg.Paths.InputDir = f.InputDir
	}
	if f.OutputDir != "" {
		cfg.Paths.OutputDir = f.OutputDir
	}
	if f.AnswersFile != "" {
		cfg.Review.AnswersFile = f.AnswersFile
		if f.ReviewMode == "" {
			cfg.Review.Mode = config.ReviewAnswers
		}
	}
	if f.ReviewMode != "" {
		cfg.Review.Mode = f.ReviewMode
	}
	if f.ReferenceYear > 0 {
		cfg.Analysis.ReferenceYear = f.ReferenceYear
	}
}

func loadConfig(log *logrus.Logger) (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if errors.Is(err, config.ErrNoConfig) {
		log.Debug("no config file found, using defaults")
		d := config.DefaultConfig()
		return &d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func runBatch(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reviewer, err := newReviewer(cfg)
	if err != nil {
		return err
	}

	events, err := audit.Open(cfg.Paths.SubjectLog, cfg.Paths.TerminationLog)
	if err != nil {
		return fmt.Errorf("opening event logs: %w", err)
	}
	defer events.Close()

	var history *store.DB
	if cfg.Paths.HistoryDB != "" {
		history, err = store.Open(cfg.Paths.HistoryDB)
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer history.Close()
	}

	builder := analysis.NewBuilder()
	builder.SamplingRate = cfg.Analysis.SamplingRate
	builder.Window = cfg.Analysis.SmoothingWindow

	p := &service.Pipeline{
		InputDir:    cfg.Paths.InputDir,
		OutputDir:   cfg.Paths.OutputDir,
		Loader:      &ingest.Loader{ReferenceYear: cfg.ResolveReferenceYear(time.Now())},
		Builder:     builder,
		Reviewer:    reviewer,
		Plotter:     plot.NewRenderer(),
		Audit:       events,
		History:     history,
		Out:         os.Stdout,
		ShowChart:   cfg.Display.ShowChart(),
		ChartWidth:  cfg.Display.ChartWidth,
		ChartHeight: cfg.Display.ChartHeight,
		Log:         log,
	}

	result, err := p.Run(ctx)
	if result != nil && len(result.Outcomes) > 0 {
		service.RenderBatch(os.Stdout, result)
	}
	if err != nil {
		return err
	}

	if failed := result.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, len(result.Outcomes)+len(result.Errors))
	}
	return nil
}

func newReviewer(cfg *config.Config) (record.TerminationReviewer, error) {
	var r record.TerminationReviewer
	switch cfg.Review.Mode {
	case config.ReviewPrompt:
		r = &tui.PromptReviewer{}
	case config.ReviewAccept:
		r = review.AcceptAll{}
	case config.ReviewAnswers:
		a, err := review.LoadAnswers(cfg.Review.AnswersFile)
		if err != nil {
			return nil, err
		}
		r = a
	default:
		r = review.NewConsole(os.Stdin, os.Stdout)
	}
	return review.WithTimeout(r, cfg.ReviewTimeout()), nil
}

func runDemo(cfg *config.Config, log *logrus.Logger) error {
	if *demoSubjects < 1 {
		return fmt.Errorf("--subjects must be at least 1, got %d", *demoSubjects)
	}

	subjects := demoCohort(*demoSubjects)
	if err := ingest.WriteDemoInputs(*demoDir, subjects, cfg.Analysis.SamplingRate); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{"dir": *demoDir, "subjects": len(subjects)}).Info("demo inputs written")
	return nil
}

// demoCohort repeats the default cohort with fresh IDs until n subjects exist
func demoCohort(n int) []ingest.DemoSubject {
	base := ingest.DefaultDemoSubjects()
	subjects := make([]ingest.DemoSubject, n)
	for i := range subjects {
		s := base[i%len(base)]
		s.ID = i + 1
		subjects[i] = s
	}
	return subjects
}

func runHistory(cfg *config.Config) error {
	if cfg.Paths.HistoryDB == "" {
		return errors.New("run history is disabled (paths.history_db is empty)")
	}

	db, err := store.Open(cfg.Paths.HistoryDB)
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer db.Close()

	return printHistory(os.Stdout, db, historyQuery{
		Limit:     *historyLimit,
		SubjectID: *historySubject,
		RunID:     *historyRun,
	})
}

// historyQuery selects what the history command shows
type historyQuery struct {
	Limit     int
	SubjectID int    // > 0 shows one subject across runs
	RunID     string // non-empty shows one run
}

func printHistory(w io.Writer, db *store.DB, q historyQuery) error {
	if q.SubjectID > 0 {
		results, err := db.GetSubjectHistory(q.SubjectID)
		if err != nil {
			return fmt.Errorf("loading history of subject %d: %w", q.SubjectID, err)
		}
		if len(results) == 0 {
			fmt.Fprintf(w, "No results recorded for subject %d.\n", q.SubjectID)
			return nil
		}
		fmt.Fprintf(w, "Subject %d, newest first\n", q.SubjectID)
		tui.RenderBatchTable(w, resultRows(results))
		return nil
	}

	var runs []store.Run
	if q.RunID != "" {
		r, err := db.GetRun(q.RunID)
		if err != nil {
			return fmt.Errorf("loading run %s: %w", q.RunID, err)
		}
		runs = []store.Run{*r}
	} else {
		var err error
		runs, err = db.ListRuns(q.Limit)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet.")
		return nil
	}

	for _, r := range runs {
		results, err := db.GetTestResults(r.ID)
		if err != nil {
			return fmt.Errorf("loading results of run %s: %w", r.ID, err)
		}
		fmt.Fprintf(w, "\nRun %s  %s  (%s -> %s)\n", r.ID, r.StartedAt.Format(time.RFC1123), r.InputDir, r.OutputDir)
		tui.RenderBatchTable(w, resultRows(results))
	}
	return nil
}

func resultRows(results []store.TestResult) []tui.BatchRow {
	rows := make([]tui.BatchRow, len(results))
	for i := range results {
		rows[i] = tui.BatchRow{SubjectID: results[i].SubjectID, Result: &results[i]}
	}
	return rows
}
