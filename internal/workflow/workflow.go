// Package workflow runs a JMeter test end to end: clean old artifacts,
// execute the plan, aggregate the timing log, serve the dashboard and ask a
// model to interpret the numbers.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wesleyorama2/jtlens/internal/analysis"
	"github.com/wesleyorama2/jtlens/internal/artifacts"
	"github.com/wesleyorama2/jtlens/internal/config"
	httpclient "github.com/wesleyorama2/jtlens/internal/http"
	"github.com/wesleyorama2/jtlens/internal/jmeter"
	"github.com/wesleyorama2/jtlens/internal/jtl"
	"github.com/wesleyorama2/jtlens/internal/output"
	"github.com/wesleyorama2/jtlens/internal/report"
)

// Executor runs the load test.
type Executor interface {
	CommandLine() string
	Run(ctx context.Context) error
}

// Analyzer interprets a prompt.
type Analyzer interface {
	Model() string
	Analyze(ctx context.Context, prompt string) (string, error)
}

// ReportServer is the handle on a running dashboard server.
type ReportServer interface {
	URL() string
	Ping(ctx context.Context) (*httpclient.Response, error)
	Shutdown(ctx context.Context) error
}

// CleanFunc removes artifacts of a previous run.
type CleanFunc func(paths ...string) ([]artifacts.Removed, error)

// LoadFunc reads the timing log.
type LoadFunc func(path string) ([]jtl.Record, error)

// ServeFunc starts serving a report directory.
type ServeFunc func(dir string, port int) (ReportServer, error)

// Result is what a run produced. Server is set once the dashboard is being
// served and stays running after Run returns, even when a later step
// failed; the caller decides when to shut it down.
type Result struct {
	Summary   *jtl.Summary
	Dashboard *report.Dashboard
	Server    ReportServer
	Analysis  string
}

// Workflow drives a single run.
type Workflow struct {
	cfg     config.Config
	log     logrus.FieldLogger
	console *output.Console
	stderr  io.Writer

	clean    CleanFunc
	executor Executor
	load     LoadFunc
	serve    ServeFunc
	analyzer Analyzer

	state State
	err   error
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithConsole sets where operator messages and JMeter output go.
func WithConsole(c *output.Console) Option {
	return func(w *Workflow) {
		w.console = c
	}
}

// WithStderr sets where JMeter's standard error is echoed. Defaults to
// os.Stderr.
func WithStderr(wr io.Writer) Option {
	return func(w *Workflow) {
		w.stderr = wr
	}
}

// WithCleaner replaces artifact removal.
func WithCleaner(fn CleanFunc) Option {
	return func(w *Workflow) {
		w.clean = fn
	}
}

// WithExecutor replaces the JMeter runner.
func WithExecutor(e Executor) Option {
	return func(w *Workflow) {
		w.executor = e
	}
}

// WithLoader replaces the timing log reader.
func WithLoader(fn LoadFunc) Option {
	return func(w *Workflow) {
		w.load = fn
	}
}

// WithServer replaces the dashboard server.
func WithServer(fn ServeFunc) Option {
	return func(w *Workflow) {
		w.serve = fn
	}
}

// WithAnalyzer replaces the analysis client.
func WithAnalyzer(a Analyzer) Option {
	return func(w *Workflow) {
		w.analyzer = a
	}
}

// New creates a workflow for cfg. cfg is expected to be validated.
func New(log logrus.FieldLogger, cfg config.Config, options ...Option) *Workflow {
	w := &Workflow{
		cfg:   cfg,
		log:   log.WithField("component", "workflow"),
		clean: artifacts.Clean,
		load:  jtl.Load,
		serve: func(dir string, port int) (ReportServer, error) {
			return report.Serve(dir, port)
		},
		stderr: os.Stderr,
		state:  StateInit,
	}
	for _, option := range options {
		option(w)
	}

	if w.console == nil {
		w.console = output.NewConsole(output.ConsoleConfig{})
	}
	if w.executor == nil {
		w.executor = jmeter.NewRunner(cfg,
			jmeter.WithStdout(w.console.Writer()),
			jmeter.WithStderr(w.stderr),
		)
	}
	if w.analyzer == nil {
		w.analyzer = analysis.NewClient(cfg)
	}

	return w
}

// State returns where the run currently is.
func (w *Workflow) State() State {
	return w.state
}

// Err returns the error that moved the run to StateFailed.
func (w *Workflow) Err() error {
	return w.err
}

func (w *Workflow) advance(next State) {
	if w.state == StateFailed || next != w.state+1 {
		panic(fmt.Sprintf("workflow: invalid transition %s -> %s", w.state, next))
	}
	w.log.WithField("state", next).Debug("Workflow state changed")
	w.state = next
}

func (w *Workflow) fail(step Step, err error) error {
	stepErr := &StepError{Step: step, Err: err}
	w.state = StateFailed
	w.err = stepErr
	w.log.WithError(err).WithField("step", step).Error("Workflow step failed")
	return stepErr
}

// Run executes every step in order and stops at the first failure. The
// returned Result is never nil; on failure it holds whatever earlier steps
// produced, including a running server.
func (w *Workflow) Run(ctx context.Context) (*Result, error) {
	if w.state != StateInit {
		return nil, errors.New("workflow has already run")
	}

	result := &Result{}

	if err := w.cleanup(); err != nil {
		return result, w.fail(StepCleanup, err)
	}
	w.advance(StateCleaned)

	if err := w.execute(ctx); err != nil {
		return result, w.fail(StepExecution, err)
	}
	w.advance(StateExecuted)

	summary, err := w.aggregate()
	if err != nil {
		return result, w.fail(StepAggregation, err)
	}
	result.Summary = summary
	w.advance(StateAggregated)

	server, dashboard, err := w.startReport(ctx, summary)
	if err != nil {
		return result, w.fail(StepReporting, err)
	}
	result.Server = server
	result.Dashboard = dashboard
	w.advance(StateReported)

	text, err := w.analyze(ctx, summary)
	if err != nil {
		return result, w.fail(StepAnalysis, err)
	}
	result.Analysis = text
	w.advance(StateDone)

	return result, nil
}

func (w *Workflow) cleanup() error {
	removed, err := w.clean(w.cfg.ArtifactPaths()...)
	for _, r := range removed {
		w.log.WithFields(logrus.Fields{"path": r.Path, "dir": r.Dir}).Info("Removed previous artifact")
	}
	return err
}

func (w *Workflow) execute(ctx context.Context) error {
	w.console.Running(w.executor.CommandLine())

	start := time.Now()
	if err := w.executor.Run(ctx); err != nil {
		return err
	}
	w.log.WithField("duration", time.Since(start).Round(time.Millisecond)).Info("JMeter run finished")

	w.console.Executed(w.cfg.ResultsPath, filepath.Join(w.cfg.ReportDir, report.IndexPage))
	return nil
}

func (w *Workflow) aggregate() (*jtl.Summary, error) {
	records, err := w.load(w.cfg.ResultsPath)
	if err != nil {
		return nil, err
	}

	summary, err := jtl.Aggregate(records)
	if err != nil {
		return nil, &jtl.AggregationError{Path: w.cfg.ResultsPath, Err: err}
	}

	w.log.WithFields(logrus.Fields{
		"records": summary.Overall.Count,
		"labels":  len(summary.Labels),
		"errors":  summary.Overall.Errors,
	}).Info("Aggregated timing log")

	w.console.Summary(summary.Overall.Count, summary.ErrorRate, summary.Table())
	return summary, nil
}

func (w *Workflow) startReport(ctx context.Context, summary *jtl.Summary) (ReportServer, *report.Dashboard, error) {
	server, err := w.serve(w.cfg.ReportDir, w.cfg.ServerPort)
	if err != nil {
		return nil, nil, err
	}
	w.console.Serving(server.URL())

	if resp, err := server.Ping(ctx); err != nil {
		w.log.WithError(err).Warn("Report server check failed")
	} else {
		w.log.WithFields(logrus.Fields{
			"status":       resp.StatusCode,
			"content_type": resp.GetHeader("Content-Type"),
			"latency_ms":   resp.GetTotalTimeMillis(),
		}).Debug("Report server is reachable")
	}

	dashboard, err := report.ReadStatistics(w.cfg.ReportDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.log.WithError(err).Warn("Could not read dashboard statistics")
		}
		return server, nil, nil
	}

	if dashboard.Total.SampleCount != int64(summary.Overall.Count) {
		w.console.Warning("JMeter dashboard counts %d samples but the timing log has %d",
			dashboard.Total.SampleCount, summary.Overall.Count)
	}

	return server, dashboard, nil
}

func (w *Workflow) analyze(ctx context.Context, summary *jtl.Summary) (string, error) {
	w.console.Analyzing(w.analyzer.Model())

	prompt := analysis.BuildPrompt(summary)
	w.log.WithField("prompt_bytes", len(prompt)).Debug("Sending analysis prompt")

	text, err := w.analyzer.Analyze(ctx, prompt)
	if err != nil {
		return "", err
	}

	w.console.Analysis(text)
	return text, nil
}
