package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_Default(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v, want nil", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{
			name:      "empty results path",
			modify:    func(c *Config) { c.ResultsPath = "" },
			wantField: "results_path",
		},
		{
			name:      "empty report dir",
			modify:    func(c *Config) { c.ReportDir = " " },
			wantField: "report_dir",
		},
		{
			name:      "report dir equals results path",
			modify:    func(c *Config) { c.ReportDir = "./results.jtl" },
			wantField: "report_dir",
		},
		{
			name:      "empty tool path",
			modify:    func(c *Config) { c.ToolPath = "" },
			wantField: "tool_path",
		},
		{
			name:      "empty test plan",
			modify:    func(c *Config) { c.TestPlanPath = "" },
			wantField: "test_plan_path",
		},
		{
			name:      "port zero",
			modify:    func(c *Config) { c.ServerPort = 0 },
			wantField: "server_port",
		},
		{
			name:      "port too large",
			modify:    func(c *Config) { c.ServerPort = 65536 },
			wantField: "server_port",
		},
		{
			name:      "empty model",
			modify:    func(c *Config) { c.Model = "" },
			wantField: "model",
		},
		{
			name:      "zero max tokens",
			modify:    func(c *Config) { c.MaxTokens = 0 },
			wantField: "max_tokens",
		},
		{
			name:      "negative timeout",
			modify:    func(c *Config) { c.ToolTimeout = -1 },
			wantField: "tool_timeout",
		},
		{
			name:      "relative base url",
			modify:    func(c *Config) { c.APIBaseURL = "/v1" },
			wantField: "api_base_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}

			var verrs *ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error type = %T, want *ValidationErrors", err)
			}

			found := false
			for _, e := range verrs.Errors {
				if e.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() errors = %v, want one on field %q", err, tt.wantField)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := &ValidationErrors{}
	if errs.Error() != "no validation errors" {
		t.Errorf("empty Error() = %q", errs.Error())
	}

	errs.Add("model", "must not be empty")
	if got := errs.Error(); got != "validation error on field 'model': must not be empty" {
		t.Errorf("single Error() = %q", got)
	}

	errs.Add("", "something else")
	if got := errs.Error(); !strings.HasPrefix(got, "2 validation errors:") {
		t.Errorf("multi Error() = %q", got)
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := Default()

	paths := cfg.ArtifactPaths()
	if len(paths) != 2 || paths[0] != DefaultResultsPath || paths[1] != DefaultReportDir {
		t.Errorf("ArtifactPaths() = %v", paths)
	}

	if got := cfg.ReportURL(); got != "http://localhost:8000/index.html" {
		t.Errorf("ReportURL() = %q", got)
	}
}

func TestConfig_MergeKeepsUnsetFields(t *testing.T) {
	base := Default()
	merged := base.Merge(Config{ServerPort: 9100, APIKey: "sk"})

	if merged.ServerPort != 9100 {
		t.Errorf("ServerPort = %d, want 9100", merged.ServerPort)
	}
	if merged.APIKey != "sk" {
		t.Errorf("APIKey = %q, want sk", merged.APIKey)
	}
	if merged.Model != DefaultModel || merged.ResultsPath != DefaultResultsPath {
		t.Errorf("Merge overwrote unset fields: %+v", merged)
	}
	if base.ServerPort != DefaultServerPort {
		t.Errorf("Merge mutated receiver: %d", base.ServerPort)
	}
}
