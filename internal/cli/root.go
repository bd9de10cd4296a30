package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/jtlens/internal/config"
	"github.com/wesleyorama2/jtlens/internal/output"
	"github.com/wesleyorama2/jtlens/internal/workflow"
)

var version = "0.1.0"

// shutdownTimeout bounds how long in-flight dashboard requests may take
// once the operator has acknowledged.
const shutdownTimeout = 5 * time.Second

// exitError carries a process exit status out of RunE. The failure has
// already been reported to the operator.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

type rootOptions struct {
	configFile  string
	envFile     string
	plan        string
	tool        string
	results     string
	reportDir   string
	port        int
	model       string
	maxTokens   int
	apiBaseURL  string
	toolTimeout string
	noWait      bool
	noColor     bool
	verbose     bool
}

// NewRootCmd builds the jtlens command reading operator input from stdin
// and writing to stdout and stderr.
func NewRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:     "jtlens",
		Short:   "Run a JMeter test plan and get its results explained",
		Version: version,
		Long: `jtlens runs a JMeter test plan in non-GUI mode, aggregates the timing log
per sampler label, serves JMeter's HTML dashboard locally and asks an
OpenAI-compatible model to analyze the results.

The dashboard stays up until Enter is pressed, so it can be inspected
after the analysis is printed.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, stdin, stdout, stderr)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML or JSON configuration file")
	flags.StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file to load before reading the environment")
	flags.StringVar(&opts.plan, "plan", defaults.TestPlanPath, "JMeter test plan (.jmx)")
	flags.StringVar(&opts.tool, "jmeter", defaults.ToolPath, "JMeter executable")
	flags.StringVar(&opts.results, "results", defaults.ResultsPath, "timing log written by JMeter")
	flags.StringVar(&opts.reportDir, "report-dir", defaults.ReportDir, "directory for the HTML dashboard")
	flags.IntVar(&opts.port, "port", defaults.ServerPort, "port the dashboard is served on")
	flags.StringVar(&opts.model, "model", defaults.Model, "model used for the analysis")
	flags.IntVar(&opts.maxTokens, "max-tokens", defaults.MaxTokens, "maximum length of the analysis in tokens")
	flags.StringVar(&opts.apiBaseURL, "api-base-url", "", "base URL of an OpenAI-compatible API")
	flags.StringVar(&opts.toolTimeout, "tool-timeout", "", "stop JMeter after this long (e.g. 30m); empty waits for it to finish")
	flags.BoolVar(&opts.noWait, "no-wait", false, "stop the dashboard server right after the analysis")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

// RootCmd represents the base command
var RootCmd = NewRootCmd(os.Stdin, os.Stdout, os.Stderr)

// Execute runs the root command and returns the process exit status.
func Execute() int {
	if err := RootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		return workflow.ExitFailure
	}
	return workflow.ExitOK
}

func run(cmd *cobra.Command, opts *rootOptions, stdin io.Reader, stdout, stderr io.Writer) error {
	// The env file may set LOG_LEVEL, so it is loaded before the logger.
	if err := config.LoadEnvFile(opts.envFile); err != nil {
		return err
	}
	log := newLogger(stderr, opts.verbose)

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"config":     fmt.Sprintf("%+v", redact(cfg)),
		"report_url": cfg.ReportURL(),
	}).Debug("Configuration loaded")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := output.NewConsole(output.ConsoleConfig{Writer: stdout, NoColor: opts.noColor})
	wf := workflow.New(log, cfg, workflow.WithConsole(console), workflow.WithStderr(stderr))

	result, runErr := wf.Run(ctx)
	if runErr != nil {
		var stepErr *workflow.StepError
		if errors.As(runErr, &stepErr) {
			console.Failed(string(stepErr.Step), stepErr.Err)
		} else {
			console.Failed("run", runErr)
		}
	}

	if result != nil && result.Server != nil {
		if !opts.noWait {
			console.WaitPrompt()
			waitForOperator(ctx, stdin)
			fmt.Fprintln(stdout)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := result.Server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Report server did not shut down cleanly")
		}
	}

	if runErr != nil {
		return &exitError{code: workflow.ExitCode(runErr), err: runErr}
	}
	return nil
}

// loadConfig resolves the run configuration: defaults, then the config
// file, then flags set on the command line, then the environment. The env
// file must already be loaded.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	cfg := config.Default()

	if opts.configFile != "" {
		fileCfg, err := config.LoadFile(opts.configFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}

	flagCfg, err := flagOverrides(cmd, opts)
	if err != nil {
		return config.Config{}, err
	}
	cfg = config.FromEnv(cfg.Merge(flagCfg))

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// flagOverrides returns a Config holding only the flags the operator set,
// so unset flags do not mask values from the config file.
func flagOverrides(cmd *cobra.Command, opts *rootOptions) (config.Config, error) {
	var o config.Config
	flags := cmd.Flags()

	if flags.Changed("plan") {
		o.TestPlanPath = opts.plan
	}
	if flags.Changed("jmeter") {
		o.ToolPath = opts.tool
	}
	if flags.Changed("results") {
		o.ResultsPath = opts.results
	}
	if flags.Changed("report-dir") {
		o.ReportDir = opts.reportDir
	}
	if flags.Changed("port") {
		o.ServerPort = opts.port
	}
	if flags.Changed("model") {
		o.Model = opts.model
	}
	if flags.Changed("max-tokens") {
		o.MaxTokens = opts.maxTokens
	}
	if flags.Changed("api-base-url") {
		o.APIBaseURL = opts.apiBaseURL
	}
	if flags.Changed("tool-timeout") && opts.toolTimeout != "" {
		d, err := config.ParseDurationString(opts.toolTimeout)
		if err != nil {
			return o, fmt.Errorf("invalid --tool-timeout: %w", err)
		}
		o.ToolTimeout = config.Duration(d)
	}

	return o, nil
}

func redact(cfg config.Config) config.Config {
	if cfg.APIKey != "" {
		cfg.APIKey = "***"
	}
	return cfg
}
