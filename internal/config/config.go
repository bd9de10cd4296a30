// Package config holds the run configuration for a jtlens workflow.
//
// A Config is built once at startup from defaults, an optional config file,
// the process environment and command-line overrides, and is then passed by
// value to every workflow step. No step mutates it.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Default values used when neither a config file nor a flag sets a field.
const (
	DefaultResultsPath  = "results.jtl"
	DefaultReportDir    = "html-report"
	DefaultToolPath     = "jmeter"
	DefaultTestPlanPath = "TestPlan.jmx"
	DefaultServerPort   = 8000
	DefaultModel        = "gpt-3.5-turbo"
	DefaultMaxTokens    = 700
	DefaultAPIKeyEnv    = "OPENAI_API_KEY"
)

// Config is the immutable configuration of one workflow run.
//
// Example YAML:
//
//	results_path: results.jtl
//	report_dir: html-report
//	tool_path: /opt/jmeter/bin/jmeter
//	test_plan_path: plans/checkout.jmx
//	server_port: 8000
//	model: gpt-3.5-turbo
//	max_tokens: 700
type Config struct {
	// ResultsPath is where JMeter writes the JTL timing log
	ResultsPath string `json:"results_path,omitempty" yaml:"results_path,omitempty"`

	// ReportDir is where JMeter generates the HTML dashboard
	ReportDir string `json:"report_dir,omitempty" yaml:"report_dir,omitempty"`

	// ToolPath is the JMeter launcher (jmeter, jmeter.bat or an absolute path)
	ToolPath string `json:"tool_path,omitempty" yaml:"tool_path,omitempty"`

	// TestPlanPath is the .jmx test plan passed to JMeter
	TestPlanPath string `json:"test_plan_path,omitempty" yaml:"test_plan_path,omitempty"`

	// ServerPort is the local port the dashboard is served on
	ServerPort int `json:"server_port,omitempty" yaml:"server_port,omitempty"`

	// Model is the chat-completion model identifier
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// MaxTokens bounds the length of the analysis
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`

	// APIBaseURL overrides the chat-completion endpoint (empty = provider default).
	// MaxTokens is sent as max_completion_tokens; servers that only read
	// max_tokens will not bound the reply.
	APIBaseURL string `json:"api_base_url,omitempty" yaml:"api_base_url,omitempty"`

	// APIKeyEnv names the environment variable holding the API key
	APIKeyEnv string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`

	// ToolTimeout bounds the JMeter run. Zero means no timeout: the run
	// ends when JMeter itself exits.
	ToolTimeout Duration `json:"tool_timeout,omitempty" yaml:"tool_timeout,omitempty"`

	// APIKey is read from the environment variable named by APIKeyEnv.
	// It is never loaded from a file and never serialized.
	APIKey string `json:"-" yaml:"-"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		ResultsPath:  DefaultResultsPath,
		ReportDir:    DefaultReportDir,
		ToolPath:     DefaultToolPath,
		TestPlanPath: DefaultTestPlanPath,
		ServerPort:   DefaultServerPort,
		Model:        DefaultModel,
		MaxTokens:    DefaultMaxTokens,
		APIKeyEnv:    DefaultAPIKeyEnv,
	}
}

// Merge returns c with every non-zero field of o applied on top.
func (c Config) Merge(o Config) Config {
	if o.ResultsPath != "" {
		c.ResultsPath = o.ResultsPath
	}
	if o.ReportDir != "" {
		c.ReportDir = o.ReportDir
	}
	if o.ToolPath != "" {
		c.ToolPath = o.ToolPath
	}
	if o.TestPlanPath != "" {
		c.TestPlanPath = o.TestPlanPath
	}
	if o.ServerPort != 0 {
		c.ServerPort = o.ServerPort
	}
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.MaxTokens != 0 {
		c.MaxTokens = o.MaxTokens
	}
	if o.APIBaseURL != "" {
		c.APIBaseURL = o.APIBaseURL
	}
	if o.APIKeyEnv != "" {
		c.APIKeyEnv = o.APIKeyEnv
	}
	if o.ToolTimeout != 0 {
		c.ToolTimeout = o.ToolTimeout
	}
	if o.APIKey != "" {
		c.APIKey = o.APIKey
	}
	return c
}

// ArtifactPaths returns the paths removed before every run.
func (c Config) ArtifactPaths() []string {
	return []string{c.ResultsPath, c.ReportDir}
}

// ReportURL returns the address the dashboard index is served on.
func (c Config) ReportURL() string {
	return fmt.Sprintf("http://localhost:%d/index.html", c.ServerPort)
}

// Duration wraps time.Duration so it can be written as "90s" or "5m" in
// config files. A bare integer is read as seconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the duration in Go notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText implements encoding.TextUnmarshaler for YAML and JSON.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDurationString(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// UnmarshalJSON accepts both "90s" and 90.
func (d *Duration) UnmarshalJSON(b []byte) error {
	return d.UnmarshalText([]byte(strings.Trim(string(b), `"`)))
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
