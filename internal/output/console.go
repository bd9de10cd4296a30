// Package output prints the operator-facing progress of a jtlens run.
package output

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Console writes step banners, outcomes and the final analysis.
type Console struct {
	writer    io.Writer
	scheme    *ColorScheme
	useColors bool
}

// ConsoleConfig contains configuration for Console.
type ConsoleConfig struct {
	Writer      io.Writer
	NoColor     bool
	ForceColors bool
}

// NewConsole creates a console writer. Colors are used only when the writer
// is a terminal that supports them, unless forced; NoColor always wins.
func NewConsole(config ConsoleConfig) *Console {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}

	useColors := !config.NoColor && (config.ForceColors || (isTerminal(config.Writer) && supportsColors()))

	scheme := NoColorScheme()
	if useColors {
		scheme = DefaultColorScheme().forceColor()
	}

	return &Console{
		writer:    config.Writer,
		scheme:    scheme,
		useColors: useColors,
	}
}

// Writer returns the underlying writer, for streaming subprocess output.
func (c *Console) Writer() io.Writer {
	return c.writer
}

// isTerminal checks if the writer is a terminal.
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return checkIsTerminal(f)
	}
	return false
}

// supportsColors checks if the terminal supports colors.
func supportsColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	if runtime.GOOS == "windows" {
		return true
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// Running announces the JMeter run and the command line used.
func (c *Console) Running(commandLine string) {
	fmt.Fprintln(c.writer, c.scheme.Step.Sprint("Running JMeter test..."))
	fmt.Fprintf(c.writer, "  %s\n", c.scheme.Faint.Sprint(commandLine))
}

// Executed confirms the run finished and where its artifacts are.
func (c *Console) Executed(resultsPath, indexPath string) {
	fmt.Fprintf(c.writer, "%s JMeter run complete. CSV: %s, HTML report: %s\n",
		c.scheme.Success.Sprint(iconSuccess),
		c.scheme.Path.Sprint(resultsPath),
		c.scheme.Path.Sprint(indexPath))
}

// Summary prints the aggregated per-label table under a heading.
func (c *Console) Summary(total int, errorRate float64, table string) {
	fmt.Fprintf(c.writer, "\n%s %d requests, %.2f%% errors\n",
		c.scheme.Highlight.Sprint("Aggregated results:"), total, errorRate)
	fmt.Fprintln(c.writer, strings.TrimRight(table, "\n"))
	fmt.Fprintln(c.writer)
}

// Serving reports the dashboard address.
func (c *Console) Serving(url string) {
	fmt.Fprintf(c.writer, "Serving HTML report on %s\n", c.scheme.URL.Sprint(url))
}

// Analyzing announces the analysis request.
func (c *Console) Analyzing(model string) {
	fmt.Fprintf(c.writer, "Sending aggregated report to %s for analysis...\n", c.scheme.Highlight.Sprint(model))
}

// Analysis prints the model's reply verbatim.
func (c *Console) Analysis(text string) {
	fmt.Fprintf(c.writer, "\n%s\n", c.scheme.Step.Sprint("Analysis:"))
	fmt.Fprintln(c.writer, text)
}

// Failed reports the step that stopped the run.
func (c *Console) Failed(step string, err error) {
	fmt.Fprintf(c.writer, "%s %s failed: %v\n",
		c.scheme.Error.Sprint(iconError), step, err)
}

// Warning prints a non-fatal problem.
func (c *Console) Warning(format string, args ...interface{}) {
	fmt.Fprintf(c.writer, "%s %s\n", c.scheme.Warn.Sprint(iconWarning), fmt.Sprintf(format, args...))
}

// WaitPrompt asks the operator to acknowledge before the server stops.
func (c *Console) WaitPrompt() {
	fmt.Fprint(c.writer, "\nPress Enter to stop the HTTP server and exit…")
}
