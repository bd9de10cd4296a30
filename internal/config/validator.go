package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks that the configuration can drive a run.
//
// The API key is not checked: a missing key surfaces as an authentication
// failure when the analysis request is made.
func (c Config) Validate() error {
	errs := &ValidationErrors{}

	required := []struct {
		field string
		value string
	}{
		{"results_path", c.ResultsPath},
		{"report_dir", c.ReportDir},
		{"tool_path", c.ToolPath},
		{"test_plan_path", c.TestPlanPath},
		{"model", c.Model},
		{"api_key_env", c.APIKeyEnv},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs.Add(r.field, "must not be empty")
		}
	}

	if c.ResultsPath != "" && c.ReportDir != "" &&
		filepath.Clean(c.ResultsPath) == filepath.Clean(c.ReportDir) {
		errs.Add("report_dir", "must differ from results_path")
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		errs.Add("server_port", fmt.Sprintf("must be between 1 and 65535, got %d", c.ServerPort))
	}

	if c.MaxTokens < 1 {
		errs.Add("max_tokens", "must be at least 1")
	}

	if c.ToolTimeout < 0 {
		errs.Add("tool_timeout", "must not be negative")
	}

	if c.APIBaseURL != "" {
		u, err := url.Parse(c.APIBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs.Add("api_base_url", fmt.Sprintf("must be an absolute URL, got %q", c.APIBaseURL))
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
